package kit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/feature"
)

func newAddCommand(flags *rootFlags) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "add <feature>...",
		Short: "Install specific features by id",
		Long: `Add installs the named features without the interactive picker.
Unknown ids fail before anything is touched; close matches are
suggested, so a typo costs one retry.`,
		Example: `  # Add Supabase and Drizzle to the current directory
  at3-kit add supabase drizzle

  # Add Clerk to another project
  at3-kit add clerk --path ../my-app`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := newLogger(flags.verbose)
			defer logger.Sync()

			known := feature.IDs()
			index := make(map[string]bool, len(known))
			for _, id := range known {
				index[id] = true
			}
			for _, id := range args {
				if index[id] {
					continue
				}
				suggestions := ui.FindSimilar(id, known, nil)
				fmt.Fprint(cmd.ErrOrStderr(), ui.FeatureNotFoundError(id, suggestions, flags.noColor))
				return fmt.Errorf("unknown feature %q", id)
			}
			feats, err := feature.ByID(args...)
			if err != nil {
				return err
			}

			info, err := detect.New(detect.WithLogger(logger)).Detect(path)
			if err != nil {
				return reportDetectError(cmd, path, err, flags.noColor)
			}

			fmt.Fprintf(out, "Adding %d features to %s\n", len(feats), info.Path)
			return installFeatures(cmd, path, info, feats, flags, logger)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Project directory")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would be installed without changing anything")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Reapply features and overwrite existing boilerplate")
	cmd.Flags().BoolVar(&flags.noInstall, "no-install", false, "Skip the dependency install step")

	return cmd
}
