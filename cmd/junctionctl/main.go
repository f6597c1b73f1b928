// Command junctionctl loads stream definitions, drives synthetic load through
// their junctions and inspects the fault journal.
package main

import (
	"fmt"
	"os"

	"github.com/randalmurphal/junction/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
