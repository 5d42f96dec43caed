package toolkit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/detect"
)

func newDetectCommand(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect [path]",
		Short: "Show what the project fingerprint detected",
		Long: `Detect inspects a project directory and reports its stack: framework,
package manager, router layout, styling, linting, auth and the rest of
the signals the migration planner keys on.

Nothing is modified. This is the same detection a migration starts with,
so it is the quickest way to see why a step will or will not run.`,
		Example: `  # Inspect the current directory
  at3t detect

  # Machine-readable output
  at3t detect ../my-app --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDir(args)
			logger := newLogger(flags.verbose)
			defer logger.Sync()

			info, err := detect.New(detect.WithLogger(logger)).Detect(dir)
			if err != nil {
				return reportDetectError(cmd, dir, err, flags.noColor)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode project info: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			renderInfo(cmd, info, flags.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the fingerprint as JSON")

	return cmd
}

func renderInfo(cmd *cobra.Command, info *detect.ProjectInfo, noColor bool) {
	out := cmd.OutOrStdout()

	ui.Header(out, fmt.Sprintf("Project: %s", info.Path), noColor)

	kv := ui.NewKeyValueTable(out, noColor)
	kv.AddRow("Type", string(info.Type))
	kv.AddRow("Package manager", string(info.PackageManager))
	kv.AddRow("TypeScript", yesNo(info.TypeScript))
	kv.AddRow("Tailwind", yesNo(info.Tailwind))
	kv.AddRow("Router", routerLabel(info))
	kv.AddRow("src directory", yesNo(info.SrcDirectory))
	kv.AddRow("Linting", lintLabel(info))
	kv.AddRow("Auth provider", string(info.AuthProvider))
	kv.AddRow("Supabase", yesNo(info.Supabase))
	kv.AddRow("Drizzle", yesNo(info.Drizzle))
	kv.AddRow("AI SDK", yesNo(info.AI))
	kv.AddRow("PWA", yesNo(info.PWA))
	kv.AddRow("i18n", yesNo(info.I18n))
	kv.AddRow("Edge runtime", yesNo(info.EdgeRuntime))
	kv.AddRow("Vector store", info.VectorStore.String())
	kv.AddRow("Dependencies", fmt.Sprintf("%d", len(info.Dependencies)))
	kv.AddRow("Config files", fmt.Sprintf("%d", len(info.ConfigFiles)))
	kv.Render()

	if len(info.EnvFiles) > 0 {
		fmt.Fprintf(out, "\nEnv files: %s\n", strings.Join(info.EnvFiles, ", "))
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func routerLabel(info *detect.ProjectInfo) string {
	switch {
	case info.AppRouter && info.PagesRouter:
		return "app + pages"
	case info.AppRouter:
		return "app"
	case info.PagesRouter:
		return "pages"
	default:
		return "none"
	}
}

func lintLabel(info *detect.ProjectInfo) string {
	var tools []string
	if info.Biome {
		tools = append(tools, "biome")
	}
	if info.ESLint {
		tools = append(tools, "eslint")
	}
	if info.Prettier {
		tools = append(tools, "prettier")
	}
	if len(tools) == 0 {
		return "none"
	}
	return strings.Join(tools, ", ")
}
