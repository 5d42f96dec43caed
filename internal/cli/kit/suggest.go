package kit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/at3-stack/at3/internal/ai"
	"github.com/at3-stack/at3/internal/ai/ratelimit"
	"github.com/at3-stack/at3/internal/cli/config"
	"github.com/at3-stack/at3/internal/cli/ui"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/feature"
)

func newSuggestCommand(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "suggest [path]",
		Short: "Ask Gemini which missing features fit this project",
		Long: `Suggest sends the project fingerprint and the list of features it does
not have to Gemini and prints which ones the model thinks are worth
adding, with a one-line reason each. Nothing is installed; follow up
with "at3-kit add" if you agree.

A Gemini API key is read from GEMINI_API_KEY or GOOGLE_API_KEY, falling
back to the project's .env.local and .env. Requests are rate limited;
set ai.redis_url in .at3rc.yaml to share the quota across machines.`,
		Example: `  # Suggestions for the current directory
  at3-kit suggest

  # Machine-readable output
  at3-kit suggest ../my-app --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, args, flags, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print suggestions as JSON")

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string, flags *rootFlags, asJSON bool) error {
	dir := projectDir(args)
	out := cmd.OutOrStdout()

	cfg, err := config.Load(dir, flags.configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, flags.noColor))
		return err
	}
	logger := newLogger(flags.verbose)
	defer logger.Sync()

	info, err := detect.New(detect.WithLogger(logger)).Detect(dir)
	if err != nil {
		return reportDetectError(cmd, dir, err, flags.noColor)
	}

	missing := feature.Missing(info)
	if len(missing) == 0 {
		if asJSON {
			fmt.Fprintln(out, "[]")
			return nil
		}
		ui.WriteSuccess(out, "Project already has every catalog feature", flags.noColor)
		return nil
	}
	available := make([]string, len(missing))
	for i, f := range missing {
		available[i] = f.ID
	}

	apiKey := ai.APIKey(dir)
	if apiKey == "" {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context:     "NO API KEY",
			Problem:     "No Gemini API key found.",
			Consequence: "Set GEMINI_API_KEY or GOOGLE_API_KEY in the environment or in the project's .env.local.",
			HelpCommands: []string{
				`export GEMINI_API_KEY="your-key"`,
				"Get a key: https://aistudio.google.com/apikey",
			},
			NoColor: flags.noColor,
		})
		return ai.ErrNoAPIKey
	}

	opts := []ai.Option{ai.WithLogger(logger)}
	if cfg.AI.Model != "" {
		opts = append(opts, ai.WithModel(cfg.AI.Model))
	}
	if cfg.AI.RedisURL != "" {
		ropts, err := redis.ParseURL(cfg.AI.RedisURL)
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(
				fmt.Sprintf("Invalid ai.redis_url: %v.", err), nil, flags.noColor))
			return err
		}
		limiter, err := ratelimit.NewRedisLimiter(redis.NewClient(ropts), cfg.AI.RequestsPerMinute, time.Minute)
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(
				fmt.Sprintf("Invalid ai rate limit settings: %v.", err), nil, flags.noColor))
			return err
		}
		opts = append(opts, ai.WithLimiter(limiter))
	} else if cfg.AI.RequestsPerMinute > 0 {
		opts = append(opts, ai.WithLimiter(ratelimit.NewTokenBucket(time.Minute, cfg.AI.RequestsPerMinute)))
	}

	client, err := ai.NewClient(cmd.Context(), apiKey, opts...)
	if err != nil {
		return err
	}

	var suggestions []ai.Suggestion
	ask := func() error {
		var serr error
		suggestions, serr = client.Suggest(cmd.Context(), info, available)
		return serr
	}
	if asJSON {
		err = ask()
	} else {
		err = ui.WithSpinner(out, "Asking Gemini", flags.noColor, ask)
	}
	if err != nil {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context: "AI REQUEST FAILED",
			Problem: err.Error(),
			HelpCommands: []string{
				"See the catalog instead: at3-kit list",
				"Get help: at3-kit --help",
			},
			NoColor: flags.noColor,
		})
		return err
	}

	if asJSON {
		if suggestions == nil {
			suggestions = []ai.Suggestion{}
		}
		data, err := json.MarshalIndent(suggestions, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode suggestions: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(suggestions) == 0 {
		fmt.Fprintln(out, "No suggestions. The project already looks complete.")
		return nil
	}

	fmt.Fprintln(out)
	ids := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		sec := ui.NewSection(out, s.Feature, flags.noColor)
		sec.AddLine(s.Reason)
		sec.Render()
		ids = append(ids, s.Feature)
	}
	fmt.Fprintf(out, "Install with: at3-kit add %s\n", strings.Join(ids, " "))
	return nil
}
