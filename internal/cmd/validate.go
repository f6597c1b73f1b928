package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/annotation"
	"github.com/randalmurphal/junction/pkg/junction/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check stream definitions and extension declarations",
	Long: `Build a junction for every declared stream and validate every declared
extension. All problems are reported; the command fails if any were found.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadDefinitions()
	if err != nil {
		return err
	}
	return validateConfig(os.Stdout, cfg)
}

// validateConfig writes one line per stream and extension and returns the
// joined problems.
func validateConfig(w io.Writer, cfg config.Config) error {
	var problems []error

	defs, err := junction.DefinitionsFromConfig(cfg)
	if err != nil {
		problems = append(problems, err)
	}
	app := junction.ContextFromConfig(cfg, newLogger())
	for _, def := range defs {
		if _, err := junction.New(def, app); err != nil {
			fmt.Fprintf(w, "  ✗ stream %s: %v\n", def.ID, err)
			problems = append(problems, err)
			continue
		}
		fmt.Fprintf(w, "  ✓ stream %s (%d attributes)\n", def.ID, def.Arity())
	}

	catalog := annotation.NewCatalog()
	for _, ext := range annotation.ExtensionsFromConfig(cfg) {
		if err := catalog.Register(ext); err != nil {
			fmt.Fprintf(w, "  ✗ extension %s: %v\n", ext.Class, err)
			problems = append(problems, err)
			continue
		}
		fmt.Fprintf(w, "  ✓ extension %s (%s)\n", ext.QualifiedName(), ext.Kind)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found: %w", len(problems), errors.Join(problems...))
	}
	fmt.Fprintf(w, "\n%d stream(s), %d extension(s) valid\n", len(defs), catalog.Len())
	return nil
}
