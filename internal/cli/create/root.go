// Package create implements create-at3-app: scaffold a new Next.js
// project from a template, wired with whatever database, auth and AI
// choices the wizard collects.
package create

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/cli/config"
	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/marker"
	"github.com/at3-stack/at3/internal/pm"
	"github.com/at3-stack/at3/internal/templates"
)

// Version information, set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

const toolName = "create-at3-app"

// projectNameRe matches names safe to use as a directory and a package
// name. Dots are excluded so a name can never smuggle a path segment.
var projectNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type rootFlags struct {
	template   string
	yes        bool
	noGit      bool
	noInstall  bool
	verbose    bool
	noColor    bool
	configPath string

	database string
	auth     string
	ai       bool
	pmName   string
}

// NewRootCommand builds the create-at3-app command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "create-at3-app [name]",
		Short: "Scaffold a new AT3 stack application",
		Long: `create-at3-app scaffolds a new Next.js project on the AT3 stack:
App Router, TypeScript, Tailwind v4 and Biome, with optional Supabase,
authentication and AI wiring chosen in a short wizard.

Every answer can also be passed as a flag, and --yes takes the defaults
for anything not given, so the whole thing scripts cleanly in CI.`,
		Example: `  # Interactive wizard
  create-at3-app

  # Everything on the command line
  create-at3-app my-app --auth clerk --ai=false --pm pnpm --yes

  # Bare Next.js without the integrations
  create-at3-app my-app --template minimal --yes`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args, flags)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a .at3rc.yaml config file")

	cmd.Flags().StringVarP(&flags.template, "template", "t", "default", "Template to scaffold from")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip prompts and take defaults for unset options")
	cmd.Flags().BoolVar(&flags.noGit, "no-git", false, "Skip git repository initialization")
	cmd.Flags().BoolVar(&flags.noInstall, "no-install", false, "Skip the dependency install step")
	cmd.Flags().StringVar(&flags.database, "database", "supabase", "Database provider (supabase, none)")
	cmd.Flags().StringVar(&flags.auth, "auth", "supabase", "Authentication provider (supabase, clerk, none)")
	cmd.Flags().BoolVar(&flags.ai, "ai", true, "Include the AI chat route")
	cmd.Flags().StringVar(&flags.pmName, "pm", "pnpm", "Package manager (npm, pnpm, yarn, bun)")

	cmd.AddCommand(
		newTemplatesCommand(flags),
		newVersionCommand(),
	)

	return cmd
}

// Execute runs the create-at3-app command tree and prints any failure in
// red.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string, flags *rootFlags) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(".", flags.configPath)
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

	registry, err := builtinRegistry()
	if err != nil {
		return err
	}
	tmpl, err := registry.Get(flags.template)
	if err != nil {
		ids := registryIDs(registry)
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context:     "UNKNOWN TEMPLATE",
			Problem:     fmt.Sprintf("Cannot find template '%s'.", flags.template),
			Suggestions: ui.FindSimilar(flags.template, ids, nil),
			HelpCommands: []string{
				"See available templates: create-at3-app templates",
				"Get help: create-at3-app --help",
			},
			NoColor: flags.noColor,
		})
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		if flags.yes {
			return errors.New("project name is required with --yes")
		}
		prompt := &survey.Input{Message: "Project name"}
		if err := survey.AskOne(prompt, &name, survey.WithValidator(projectNameValidator)); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			return err
		}
	}
	name = strings.TrimSpace(name)
	if err := validateProjectName(name); err != nil {
		return err
	}

	targetDir := name
	if err := ensureTargetDir(targetDir); err != nil {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context: "CANNOT CREATE PROJECT",
			Problem: err.Error(),
			HelpCommands: []string{
				"Pick another name, or empty the directory first",
			},
			NoColor: flags.noColor,
		})
		return err
	}

	vars, err := collectVariables(cmd, tmpl, flags, name)
	if err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "\nCreating %s with the %s template\n\n", name, tmpl.Name)

	engine := templates.NewEngine()
	tctx := &templates.Context{
		ProjectName: name,
		Variables:   vars,
		Timestamp:   time.Now(),
	}
	if err := ui.WithSpinner(out, "Scaffolding project", flags.noColor, func() error {
		return engine.Execute(tmpl, tctx, targetDir)
	}); err != nil {
		return err
	}

	if !flags.noGit {
		if err := gitInit(cmd.Context(), targetDir); err != nil {
			fmt.Fprint(out, ui.Warning(fmt.Sprintf("git init failed: %v", err), nil, flags.noColor))
		} else {
			ui.WriteSuccess(out, "Initialized git repository", flags.noColor)
		}
	}

	mgr := pm.ByName(stringVar(vars, "pm"))
	if flags.noInstall {
		fmt.Fprintln(out, "Skipping dependency install (--no-install).")
	} else {
		fmt.Fprintf(out, "→ Installing dependencies with %s...\n", mgr.Name)
		installCtx, cancel := context.WithTimeout(cmd.Context(), pm.InstallTimeout)
		err := mgr.Install(installCtx, targetDir, out)
		cancel()
		if err != nil {
			fmt.Fprint(out, ui.Warning(
				fmt.Sprintf("dependency install failed: %v; run `%s install` manually", err, mgr.Name),
				nil, flags.noColor))
		} else {
			ui.WriteSuccess(out, "Dependencies installed", flags.noColor)
		}
	}

	if err := marker.RecordTemplate(targetDir, toolName, tmpl.ID, markerFeatures(vars)); err != nil {
		logger.Debug("could not write project marker", zap.Error(err))
	}

	fmt.Fprintln(out)
	ui.WriteSuccess(out, fmt.Sprintf("Created %s", name), flags.noColor)
	fmt.Fprintln(out)
	printNextSteps(out, engine, tmpl, tctx, flags.noColor)
	return nil
}

// collectVariables resolves every template variable except projectName:
// an explicitly passed flag wins, then --yes takes the default, then the
// wizard asks.
func collectVariables(cmd *cobra.Command, tmpl *templates.Template, flags *rootFlags, name string) (map[string]interface{}, error) {
	vars := map[string]interface{}{"projectName": name}

	for _, v := range tmpl.Variables {
		if v.Name == "projectName" {
			continue
		}
		if val, ok := flagVariable(cmd, flags, v.Name); ok {
			if err := checkOption(v, val); err != nil {
				return nil, err
			}
			vars[v.Name] = val
			continue
		}
		if flags.yes {
			if v.Default != nil {
				vars[v.Name] = v.Default
				continue
			}
			if v.Required {
				return nil, fmt.Errorf("variable %s requires a value with --yes", v.Name)
			}
			continue
		}
		val, err := promptVariable(v)
		if err != nil {
			return nil, err
		}
		vars[v.Name] = val
	}
	return vars, nil
}

// flagVariable maps a template variable name to its command line flag,
// reporting whether the user actually passed it.
func flagVariable(cmd *cobra.Command, flags *rootFlags, name string) (interface{}, bool) {
	switch name {
	case "database":
		return flags.database, cmd.Flags().Changed("database")
	case "auth":
		return flags.auth, cmd.Flags().Changed("auth")
	case "ai":
		return flags.ai, cmd.Flags().Changed("ai")
	case "pm":
		return flags.pmName, cmd.Flags().Changed("pm")
	default:
		return nil, false
	}
}

func checkOption(v *templates.Variable, val interface{}) error {
	if v.Type != templates.VariableTypeSelect {
		return nil
	}
	s, _ := val.(string)
	for _, opt := range v.Options {
		if opt == s {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (options: %s)", v.Name, s, strings.Join(v.Options, ", "))
}

func promptVariable(v *templates.Variable) (interface{}, error) {
	message := v.Prompt
	if message == "" {
		message = v.Name
	}

	switch v.Type {
	case templates.VariableTypeSelect:
		def, _ := v.Default.(string)
		choice := ""
		prompt := &survey.Select{Message: message, Options: v.Options, Default: def}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return nil, err
		}
		return choice, nil
	case templates.VariableTypeBool, templates.VariableTypeConfirm:
		def, _ := v.Default.(bool)
		confirmed := def
		prompt := &survey.Confirm{Message: message, Default: def}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return nil, err
		}
		return confirmed, nil
	default:
		def, _ := v.Default.(string)
		answer := ""
		prompt := &survey.Input{Message: message, Default: def}
		var opts []survey.AskOpt
		if v.Required {
			opts = append(opts, survey.WithValidator(survey.Required))
		}
		if err := survey.AskOne(prompt, &answer, opts...); err != nil {
			return nil, err
		}
		return answer, nil
	}
}

func projectNameValidator(ans interface{}) error {
	s, _ := ans.(string)
	return validateProjectName(strings.TrimSpace(s))
}

func validateProjectName(name string) error {
	if name == "" {
		return errors.New("project name is required")
	}
	if len(name) > 100 {
		return errors.New("project name must be 100 characters or fewer")
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return errors.New("project name must not contain path separators")
	}
	if !projectNameRe.MatchString(name) {
		return errors.New("project name may only contain letters, numbers, hyphens and underscores")
	}
	return nil
}

// ensureTargetDir accepts a missing or empty directory and rejects
// everything else.
func ensureTargetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot use %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s already exists and is not empty", dir)
	}
	return nil
}

func gitInit(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// markerFeatures maps wizard answers to catalog feature ids, so at3-kit
// sees what the scaffold already set up.
func markerFeatures(vars map[string]interface{}) []string {
	var feats []string
	if stringVar(vars, "database") == "supabase" || stringVar(vars, "auth") == "supabase" {
		feats = append(feats, "supabase")
	}
	if stringVar(vars, "auth") == "clerk" {
		feats = append(feats, "clerk")
	}
	if b, ok := vars["ai"].(bool); ok && b {
		feats = append(feats, "ai")
	}
	return feats
}

func printNextSteps(w io.Writer, engine *templates.Engine, tmpl *templates.Template, ctx *templates.Context, noColor bool) {
	if tmpl.Hooks == nil || len(tmpl.Hooks.AfterCreate) == 0 {
		return
	}
	lines, err := engine.RenderHooks(tmpl.Hooks.AfterCreate, ctx)
	if err != nil {
		return
	}
	sec := ui.NewSection(w, "Next steps", noColor)
	for _, line := range lines {
		sec.AddLine(line)
	}
	sec.Render()
}

func stringVar(vars map[string]interface{}, name string) string {
	s, _ := vars[name].(string)
	return s
}

// builtinRegistry returns a fresh registry holding the shipped templates.
// Each run gets its own so nothing leaks between invocations.
func builtinRegistry() (*templates.Registry, error) {
	registry := templates.NewRegistry()
	for _, tmpl := range []*templates.Template{
		templates.NewDefaultTemplate(),
		templates.NewMinimalTemplate(),
	} {
		if err := registry.Register(tmpl); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func registryIDs(registry *templates.Registry) []string {
	list := registry.List()
	ids := make([]string, 0, len(list))
	for _, t := range list {
		ids = append(ids, t.ID)
	}
	return ids
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "create-at3-app %s\n", Version)
			fmt.Fprintf(w, "  commit: %s\n", Commit)
			fmt.Fprintf(w, "  built:  %s\n", Date)
			fmt.Fprintf(w, "  go:     %s\n", runtime.Version())
		},
	}
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
