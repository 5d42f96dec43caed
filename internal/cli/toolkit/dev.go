package toolkit

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/at3-stack/at3/internal/dev"
)

func newDevCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dev [path]",
		Short: "Run the dev server and restart it when config changes",
		Long: `Dev runs the project's dev script through its package manager and
watches the files the server only reads at startup: package.json, env
files, and the Next.js, Tailwind and TypeScript configs. When one of
them changes the server is restarted; source files are left to the
framework's own hot reload.

Press Ctrl-C to stop. The running server is given a grace period to
shut down before it is killed.`,
		Example: `  # Watch the current directory
  at3t dev

  # Watch another project
  at3t dev ../my-app`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDir(args)
			logger := newLogger(flags.verbose)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := dev.NewRunner(dir,
				dev.WithLogger(logger),
				dev.WithOutput(cmd.OutOrStdout()),
			)
			return runner.Run(ctx)
		},
	}
}
