package create

import (
	"github.com/spf13/cobra"

	"github.com/at3-stack/at3/internal/cli/ui"
)

func newTemplatesCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available project templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := builtinRegistry()
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(),
				[]string{"TEMPLATE", "VERSION", "DESCRIPTION"},
				ui.TableOptions{NoColor: flags.noColor})
			for _, tmpl := range registry.List() {
				table.AddRow(tmpl.ID, tmpl.Version, tmpl.Description)
			}
			table.Render()
			return nil
		},
	}
}
