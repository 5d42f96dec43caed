// Package ai asks Gemini which integrations fit a detected project.
// It backs `at3-kit suggest`; everything it returns is advisory and the
// caller decides what, if anything, to install.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"github.com/at3-stack/at3/internal/ai/ratelimit"
	"github.com/at3-stack/at3/internal/detect"
)

// Model is the default Gemini model.
const Model = "gemini-2.5-flash"

const maxAttempts = 3

// ErrNoAPIKey means no Gemini key was found in the environment or the
// project's env files.
var ErrNoAPIKey = errors.New("no Gemini API key found")

var errEmptyResponse = errors.New("model returned an empty response")

// Suggestion is one recommended integration.
type Suggestion struct {
	Feature string `json:"feature"`
	Reason  string `json:"reason"`
}

// Client wraps the official genai client with retries and rate
// limiting.
type Client struct {
	genai   *genai.Client
	model   string
	limiter ratelimit.Limiter
	logger  *zap.Logger
	sleep   func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLimiter replaces the default in-memory limiter, e.g. with the
// Redis one when several runs share a quota.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a suggestion client for the given API key. Use
// APIKey to resolve one from the environment first.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		model:   Model,
		limiter: ratelimit.NewTokenBucket(time.Minute, 10),
		logger:  zap.NewNop(),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.genai = cli
	return c, nil
}

// APIKey resolves the Gemini key: process environment first, then the
// project's .env.local and .env. Returns "" when nothing is set.
func APIKey(projectDir string) string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return key
	}
	for _, name := range []string{".env.local", ".env"} {
		env, err := godotenv.Read(filepath.Join(projectDir, name))
		if err != nil {
			continue
		}
		if key := env["GEMINI_API_KEY"]; key != "" {
			return key
		}
		if key := env["GOOGLE_API_KEY"]; key != "" {
			return key
		}
	}
	return ""
}

// suggestionSchema constrains the response to [{feature, reason}].
var suggestionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"feature": {Type: genai.TypeString},
			"reason":  {Type: genai.TypeString},
		},
		Required: []string{"feature", "reason"},
	},
}

// Suggest asks the model which of the available feature ids fit the
// project. Responses naming anything outside available are dropped, so
// the result is always installable as-is.
func (c *Client) Suggest(ctx context.Context, info *detect.ProjectInfo, available []string) ([]Suggestion, error) {
	if len(available) == 0 {
		return nil, nil
	}
	prompt := buildPrompt(info, available)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(time.Duration(300*(1<<(attempt-1))) * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if c.limiter != nil {
			d, err := c.limiter.Allow(ctx, "suggest")
			if err != nil {
				// A broken limiter should not block a local tool.
				c.logger.Warn("rate limiter unavailable", zap.Error(err))
			} else if !d.Allowed {
				return nil, fmt.Errorf("rate limited, retry after %s", d.ResetAt.Format(time.Kitchen))
			}
		}

		resp, err := c.genai.Models.GenerateContent(ctx, c.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
				ResponseSchema:   suggestionSchema,
			},
		)
		if err != nil {
			lastErr = err
		} else if text := responseText(resp); text == "" {
			lastErr = errEmptyResponse
		} else {
			suggestions, perr := parseSuggestions([]byte(text), available)
			if perr == nil {
				return suggestions, nil
			}
			lastErr = perr
		}
		c.logger.Debug("suggestion attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return nil, fmt.Errorf("suggestion request failed after %d attempts: %w", maxAttempts, lastErr)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return ""
	}
	return cand.Content.Parts[0].Text
}
