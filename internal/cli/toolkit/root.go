// Package toolkit implements the at3t command tree: migrate an existing
// Next.js project to the AT3 stack, inspect it, roll it back, and run the
// dev loop around it.
package toolkit

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/backup"
	"github.com/at3-stack/at3/internal/cli/config"
	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/migrate"
)

// Version information, set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// rootFlags carries the flags shared across the command tree. Persistent
// flags (verbose, no-color) land here too so subcommands read one struct.
type rootFlags struct {
	dryRun         bool
	skipDeps       bool
	verbose        bool
	noColor        bool
	force          bool
	yes            bool
	replaceLinting bool
	updateVersions bool
	configPath     string
}

// NewRootCommand builds the at3t command tree. Running the root command
// migrates a project; everything else is a subcommand.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "at3t [path]",
		Short: "Upgrade an existing Next.js project to the AT3 stack",
		Long: `at3-toolkit upgrades an existing Next.js project to the AT3 stack:
Tailwind v4, Biome, strict TypeScript and current package versions.

The project is fingerprinted first and only the steps it needs are run.
Changed files are backed up before anything is written, so a migration
can always be undone with "at3t rollback".`,
		Example: `  # Preview what would change
  at3t --dry-run

  # Migrate the current directory
  at3t

  # Migrate another project without prompts
  at3t ../my-app --yes`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, args, flags)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show the migration plan without changing anything")
	cmd.Flags().BoolVar(&flags.skipDeps, "skip-deps", false, "Skip the dependency install after migrating")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Re-run steps that look already applied")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip confirmation prompts")
	cmd.Flags().BoolVar(&flags.replaceLinting, "replace-linting", false, "Replace ESLint and Prettier with Biome")
	cmd.Flags().BoolVar(&flags.updateVersions, "update-versions", false, "Update core packages to the target versions")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to a .at3rc.yaml config file")

	cmd.AddCommand(
		newDetectCommand(flags),
		newRollbackCommand(flags),
		newDevCommand(flags),
		newDBCommand(flags),
		newVersionCommand(),
	)

	return cmd
}

// Execute runs the at3t command tree and prints any failure in red.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string, flags *rootFlags) error {
	dir := projectDir(args)
	out := cmd.OutOrStdout()

	cfg, err := config.Load(dir, flags.configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, flags.noColor))
		return err
	}
	applyConfig(cmd, flags, cfg)

	if flags.noColor {
		color.NoColor = true
	}
	logger := newLogger(flags.verbose)
	defer logger.Sync()
	if cfg.Path != "" {
		logger.Debug("config loaded", zap.String("file", cfg.Path))
	}

	// Dry runs read only, so there is nothing to confirm.
	if !flags.yes && !flags.dryRun {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Migrate %s to the AT3 stack?", dir),
			Default: true,
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
		migrate.WithLogger(logger),
		migrate.WithOutput(out),
	)
	result, err := runner.Migrate(cmd.Context(), dir, migrate.Options{
		DryRun:         flags.dryRun,
		SkipInstall:    flags.skipDeps,
		ReplaceLinting: flags.replaceLinting,
		UpdateVersions: flags.updateVersions,
		Force:          flags.force,
	})
	if err != nil {
		return migrateFailure(cmd, dir, result, err, flags.noColor)
	}

	printSummary(out, result, flags.noColor)
	return nil
}

// applyConfig fills in flags the user did not pass from the config file.
// An explicitly passed flag always wins.
func applyConfig(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) {
	if !cmd.Flags().Changed("skip-deps") {
		flags.skipDeps = cfg.SkipDeps
	}
	if !cmd.Flags().Changed("verbose") {
		flags.verbose = cfg.Verbose
	}
	if !cmd.Flags().Changed("update-versions") {
		flags.updateVersions = cfg.UpdateVersions
	}
	if !cmd.Flags().Changed("replace-linting") {
		flags.replaceLinting = cfg.ReplaceLinting
	}
	if !cmd.Flags().Changed("no-color") {
		flags.noColor = cfg.NoColor
	}
}

func migrateFailure(cmd *cobra.Command, dir string, result *migrate.Result, err error, noColor bool) error {
	if errors.Is(err, detect.ErrPathNotFound) || errors.Is(err, detect.ErrNoPackageJSON) {
		return reportDetectError(cmd, dir, err, noColor)
	}
	// A backup on the result means steps started running before the
	// failure, so files may already have changed.
	consequence := "Nothing was changed."
	if result != nil && result.Backup != nil {
		consequence = "Your project may be partially migrated."
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.MigrationError(err.Error(), consequence, nil, noColor))
	return err
}

func printSummary(w io.Writer, result *migrate.Result, noColor bool) {
	if result.DryRun || result.Plan.Empty() {
		return
	}
	fmt.Fprintln(w)
	for _, warn := range result.Warnings {
		fmt.Fprint(w, ui.Warning(warn, nil, noColor))
	}
	ui.WriteSuccess(w, fmt.Sprintf("Migration complete: %d/%d steps in %s",
		result.Completed(), len(result.Plan.Steps), result.Duration.Round(time.Millisecond)), noColor)
	if result.Backup != nil && result.Backup.CanRollback {
		fmt.Fprintf(w, "Backed up to %s/%s. Undo with: at3t rollback\n", backup.DirName, result.Backup.Timestamp)
	}
}

// reportDetectError prints the friendly block for detector sentinels. The
// original error is returned either way so the exit status is right.
func reportDetectError(cmd *cobra.Command, dir string, err error, noColor bool) error {
	switch {
	case errors.Is(err, detect.ErrPathNotFound):
		fmt.Fprint(cmd.ErrOrStderr(), ui.DetectionError(
			fmt.Sprintf("Path %s does not exist.", dir), nil, noColor))
	case errors.Is(err, detect.ErrNoPackageJSON):
		fmt.Fprint(cmd.ErrOrStderr(), ui.DetectionError(
			fmt.Sprintf("No package.json found in %s. Run this inside a web project.", dir), nil, noColor))
	}
	return err
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "at3-toolkit %s\n", Version)
			fmt.Fprintf(w, "  commit: %s\n", Commit)
			fmt.Fprintf(w, "  built:  %s\n", Date)
			fmt.Fprintf(w, "  go:     %s\n", runtime.Version())
		},
	}
}

func projectDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}
