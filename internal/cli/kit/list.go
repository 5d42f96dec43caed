package kit

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/feature"
)

func newListCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "Show the feature catalog and what the project already has",
		Long: `List prints every feature in the catalog. Inside a project each row
also shows whether the fingerprint already detects that feature; outside
one, only the catalog is shown.`,
		Example: `  # Catalog with install status for the current directory
  at3-kit list

  # Status for another project
  at3-kit list ../my-app`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDir(args)
			out := cmd.OutOrStdout()
			logger := newLogger(flags.verbose)
			defer logger.Sync()

			info, err := detect.New(detect.WithLogger(logger)).Detect(dir)
			if err != nil {
				if !errors.Is(err, detect.ErrPathNotFound) && !errors.Is(err, detect.ErrNoPackageJSON) {
					return err
				}
				// Not a project. The catalog is still worth showing.
				info = nil
			}

			table := ui.NewTable(out, []string{"FEATURE", "STATUS", "DESCRIPTION"}, ui.TableOptions{NoColor: flags.noColor})
			installed := 0
			for _, f := range feature.Catalog() {
				status := "-"
				if info != nil && f.Detected != nil {
					if f.Detected(info) {
						status = "✓ installed"
						installed++
					} else {
						status = "○ missing"
					}
				}
				table.AddRow(f.ID, status, f.Description)
			}
			table.Render()

			if info == nil {
				fmt.Fprintln(out, "\nRun inside a project to see install status.")
				return nil
			}
			fmt.Fprintf(out, "\n%d of %d features installed\n", installed, len(feature.Catalog()))
			return nil
		},
	}
}
