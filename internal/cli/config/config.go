// Package config loads the optional .at3rc.yaml tool configuration.
//
// The file supplies defaults for flags a team repeats on every run:
//
//	skip_deps: true
//	update_versions: true
//	ai:
//	  redis_url: redis://ci-redis:6379/0
//	  requests_per_minute: 5
//
// Resolution order is flag > AT3_* environment variable > config file >
// built-in default. The file is searched in the project directory and in
// $HOME; a missing file is fine, a file named with --config that does not
// exist is not.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config carries the tool defaults read from .at3rc.yaml.
type Config struct {
	SkipDeps       bool
	Verbose        bool
	UpdateVersions bool
	ReplaceLinting bool
	NoColor        bool
	AI             AIConfig

	// Path is the config file that was read, empty when none was found.
	Path string
}

// AIConfig tunes the suggestion client.
type AIConfig struct {
	// Model overrides the default Gemini model when set.
	Model string
	// RedisURL switches rate limiting to a shared Redis instance, for CI
	// where several runs draw on one API quota.
	RedisURL string
	// RequestsPerMinute sizes the rate limit window.
	RequestsPerMinute int
}

// Load reads the tool configuration for projectDir. explicitPath, when not
// empty, names the exact file to read and must exist.
func Load(projectDir, explicitPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("skip_deps", false)
	v.SetDefault("verbose", false)
	v.SetDefault("update_versions", false)
	v.SetDefault("replace_linting", false)
	v.SetDefault("no_color", false)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.redis_url", "")
	v.SetDefault("ai.requests_per_minute", 10)

	v.SetEnvPrefix("AT3")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, fmt.Errorf("config file %s does not exist", explicitPath)
		}
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(".at3rc")
		v.SetConfigType("yaml")
		v.AddConfigPath(projectDir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		SkipDeps:       v.GetBool("skip_deps"),
		Verbose:        v.GetBool("verbose"),
		UpdateVersions: v.GetBool("update_versions"),
		ReplaceLinting: v.GetBool("replace_linting"),
		NoColor:        v.GetBool("no_color"),
		AI: AIConfig{
			Model:             v.GetString("ai.model"),
			RedisURL:          v.GetString("ai.redis_url"),
			RequestsPerMinute: v.GetInt("ai.requests_per_minute"),
		},
		Path: v.ConfigFileUsed(),
	}

	if cfg.AI.RequestsPerMinute < 0 {
		return nil, fmt.Errorf("ai.requests_per_minute must not be negative, got %d", cfg.AI.RequestsPerMinute)
	}

	return cfg, nil
}
