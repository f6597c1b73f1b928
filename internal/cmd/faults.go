package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/junction/pkg/junction/faults"
)

var faultsCmd = &cobra.Command{
	Use:   "faults [stream]",
	Short: "List journaled delivery faults",
	Long: `List the delivery faults recorded in the SQLite journal given by --journal.
Pass a stream id to narrow the listing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFaults,
}

var faultsClear bool // Remove the listed faults after printing them

func init() {
	faultsCmd.Flags().BoolVar(&faultsClear, "clear", false, "remove the listed faults after printing them")
	rootCmd.AddCommand(faultsCmd)
}

func runFaults(cmd *cobra.Command, args []string) error {
	var streamID string
	if len(args) == 1 {
		streamID = args[0]
	}

	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	return listFaults(os.Stdout, store, streamID, faultsClear)
}

func listFaults(w io.Writer, store faults.Store, streamID string, clear bool) error {
	records, err := store.List(streamID)
	if err != nil {
		return fmt.Errorf("list faults: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No faults recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s %-16s %8s %-8s %s\n", "TIME", "RECEIVER", "SEQ", "ACTION", "ERROR")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, rec := range records {
		action := "continue"
		if rec.Aborted {
			action = "abort"
		}
		fmt.Fprintf(w, "%-20s %-16s %8d %-8s %s\n",
			rec.Time.Local().Format(time.DateTime), truncate(rec.Receiver, 16), rec.Sequence, action, rec.Error)
	}
	fmt.Fprintf(w, "\n%d fault(s)\n", len(records))

	if clear {
		if err := store.Clear(streamID); err != nil {
			return fmt.Errorf("clear faults: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
