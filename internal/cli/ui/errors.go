package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel is the severity of a formatted message.
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions describes a user-facing problem: what happened, what it means
// for the project, and what to try next.
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError renders a standardized error block.
//
// Example output:
//
//	❌ UNKNOWN FEATURE
//	   Cannot find feature 'clrk'.
//
//	   Did you mean: clerk?
//
//	   → See available features: at3-kit list
//	   → Get help: at3-kit --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	default:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	}
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error block to w.
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess renders a green check line.
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a green check line to w.
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// FeatureNotFoundError renders the block for an unknown feature id.
func FeatureNotFoundError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "UNKNOWN FEATURE",
		Problem:     fmt.Sprintf("Cannot find feature '%s'.", name),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See available features: at3-kit list",
			"Get help: at3-kit --help",
		},
		NoColor: noColor,
	})
}

// MigrationError renders the block for a failed upgrade run.
func MigrationError(message, consequence string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "MIGRATION FAILED",
		Problem:     message,
		Consequence: consequence,
		Suggestions: suggestions,
		HelpCommands: []string{
			"Inspect the project: at3t detect",
			"Restore the last backup: at3t rollback",
			"Get help: at3t --help",
		},
		NoColor: noColor,
	})
}

// DatabaseError renders the block for a failed database operation.
func DatabaseError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "DATABASE ERROR",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"Check migration status: at3t db status",
			"Get help: at3t db --help",
		},
		NoColor: noColor,
	})
}

// ConfigError renders the block for a bad tool configuration.
func ConfigError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "CONFIGURATION ERROR",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"View config: cat .at3rc.yaml",
			"Get help: at3t --help",
		},
		NoColor: noColor,
	})
}

// DetectionError renders the block for a directory that is not a supported
// web project.
func DetectionError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "PROJECT DETECTION FAILED",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"Show what was detected: at3t detect",
			"Get help: at3t --help",
		},
		NoColor: noColor,
	})
}

// Warning renders a warning block.
func Warning(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	})
}

// Info renders an informational block.
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
