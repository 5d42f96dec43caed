package toolkit

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/at3-stack/at3/internal/backup"
	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/migrate"
)

func newRollbackCommand(flags *rootFlags) *cobra.Command {
	var (
		force bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "rollback [path]",
		Short: "Restore the files saved by the last migration",
		Long: `Rollback restores every file the most recent migration backed up,
overwriting whatever is in the project now. Files the migration created
from scratch are not tracked and stay in place.

Backups live under ` + backup.DirName + `/ inside the project, one
directory per migration run. Only the latest one is restored.`,
		Example: `  # Undo the last migration in the current directory
  at3t rollback

  # Undo without the confirmation prompt
  at3t rollback ../my-app --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDir(args)
			out := cmd.OutOrStdout()
			logger := newLogger(flags.verbose)
			defer logger.Sync()

			store := backup.NewStore(backup.WithLogger(logger))
			id, info, err := store.Latest(dir)
			if err != nil {
				if errors.Is(err, backup.ErrNoBackups) {
					fmt.Fprintf(cmd.ErrOrStderr(), "No backups found in %s/%s.\n", dir, backup.DirName)
				}
				return err
			}
			fmt.Fprintf(out, "Latest backup: %s (%d files, migration %s)\n", id, len(info.Files), info.MigrationID)

			if !force && !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Overwrite current files with backup %s?", id),
					Default: false,
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					if errors.Is(err, terminal.InterruptErr) {
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			runner := migrate.NewRunner(
				migrate.WithStore(store),
				migrate.WithLogger(logger),
				migrate.WithOutput(out),
			)
			if _, err := runner.Rollback(dir); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.MigrationError(err.Error(), "", nil, flags.noColor))
				return err
			}

			ui.WriteSuccess(out, "Rollback complete", flags.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Restore even without confirmation")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")

	return cmd
}
