// Package kit implements the at3-kit command tree: add integrations from
// the feature catalog to an existing Next.js project, list them, and ask
// Gemini which ones are worth adding.
package kit

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/cli/config"
	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/feature"
)

// Version information, set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

type rootFlags struct {
	dryRun     bool
	force      bool
	yes        bool
	noInstall  bool
	verbose    bool
	noColor    bool
	configPath string
}

// NewRootCommand builds the at3-kit command tree. The root command runs
// the interactive feature picker; list, add and suggest are subcommands.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "at3-kit [path]",
		Short: "Add AT3 stack integrations to an existing Next.js project",
		Long: `at3-stack-kit installs integrations from a curated catalog into an
existing Next.js project: Supabase, Clerk, Drizzle, the AI SDK, PWA
support and more. Each feature brings its packages, boilerplate files,
scripts and example env keys.

Run it bare to pick from the features the project does not have yet.
Features the fingerprint already shows are hidden from the picker and
skipped on install.`,
		Example: `  # Pick features interactively
  at3-kit

  # Install everything that is missing, no prompts
  at3-kit --yes

  # Preview without touching the project
  at3-kit ../my-app --dry-run`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker(cmd, args, flags)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a .at3rc.yaml config file")

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would be installed without changing anything")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Reapply features and overwrite existing boilerplate")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Install every missing feature without prompting")
	cmd.Flags().BoolVar(&flags.noInstall, "no-install", false, "Skip the dependency install step")

	cmd.AddCommand(
		newListCommand(flags),
		newAddCommand(flags),
		newSuggestCommand(flags),
		newVersionCommand(),
	)

	return cmd
}

// Execute runs the at3-kit command tree and prints any failure in red.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func runPicker(cmd *cobra.Command, args []string, flags *rootFlags) error {
	dir := projectDir(args)
	out := cmd.OutOrStdout()

	cfg, err := config.Load(dir, flags.configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, flags.noColor))
		return err
	}
	if !cmd.Flags().Changed("verbose") {
		flags.verbose = cfg.Verbose
	}
	if !cmd.Flags().Changed("no-color") {
		flags.noColor = cfg.NoColor
	}
	if !cmd.Flags().Changed("no-install") {
		flags.noInstall = cfg.SkipDeps
	}
	if flags.noColor {
		color.NoColor = true
	}
	logger := newLogger(flags.verbose)
	defer logger.Sync()

	info, err := detect.New(detect.WithLogger(logger)).Detect(dir)
	if err != nil {
		return reportDetectError(cmd, dir, err, flags.noColor)
	}

	missing := feature.Missing(info)
	if len(missing) == 0 {
		ui.WriteSuccess(out, "Project already has every catalog feature", flags.noColor)
		return nil
	}

	chosen := missing
	if !flags.yes {
		options := make([]string, len(missing))
		for i, f := range missing {
			options[i] = f.ID
		}
		var selected []string
		prompt := &survey.MultiSelect{
			Message: "Select features to install:",
			Options: options,
			Description: func(value string, index int) string {
				return missing[index].Description
			},
		}
		if err := survey.AskOne(prompt, &selected); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			return err
		}
		if len(selected) == 0 {
			fmt.Fprintln(out, "Nothing selected.")
			return nil
		}
		chosen, err = feature.ByID(selected...)
		if err != nil {
			return err
		}
	}

	return installFeatures(cmd, dir, info, chosen, flags, logger)
}

// installFeatures runs the installer and renders the summary. Shared by
// the interactive picker and `add`.
func installFeatures(cmd *cobra.Command, dir string, info *detect.ProjectInfo, feats []*feature.Feature, flags *rootFlags, logger *zap.Logger) error {
	out := cmd.OutOrStdout()

	installer := feature.NewInstaller(
		feature.WithLogger(logger),
		feature.WithOutput(out),
	)
	res, err := installer.Install(cmd.Context(), dir, info, feats, feature.Options{
		DryRun:    flags.dryRun,
		Force:     flags.force,
		NoInstall: flags.noInstall,
	})
	if err != nil {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context: "INSTALL FAILED",
			Problem: err.Error(),
			HelpCommands: []string{
				"See available features: at3-kit list",
				"Get help: at3-kit --help",
			},
			NoColor: flags.noColor,
		})
		return err
	}

	printInstallSummary(out, res, flags.dryRun, flags.noColor)
	return nil
}

func printInstallSummary(w io.Writer, res *feature.Result, dryRun, noColor bool) {
	if res == nil || len(res.Features) == 0 || dryRun {
		return
	}
	fmt.Fprintln(w)
	for _, warn := range res.Warnings {
		fmt.Fprint(w, ui.Warning(warn, nil, noColor))
	}
	ui.WriteSuccess(w, fmt.Sprintf("Added %s", strings.Join(res.Features, ", ")), noColor)
	if len(res.EnvAdded) > 0 {
		next := ui.NewSection(w, "Next steps", noColor)
		next.AddLine(fmt.Sprintf("Fill in the new keys in .env.example: %s", strings.Join(res.EnvAdded, ", ")))
		next.AddLine("Copy them to .env.local before starting the dev server")
		next.Render()
	}
}

// reportDetectError prints the friendly block for detector sentinels and
// passes the original error through.
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
			fmt.Fprintf(w, "at3-stack-kit %s\n", Version)
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
