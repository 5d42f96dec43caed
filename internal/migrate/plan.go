// Package migrate upgrades an existing Next.js project toward the AT3
// stack. A plan is built from the project fingerprint, then a runner backs
// the project up, executes the steps, installs dependencies, and validates
// the result.
package migrate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/configmerge"
	"github.com/at3-stack/at3/internal/detect"
)

// Options control which steps run and how.
type Options struct {
	DryRun         bool
	SkipInstall    bool
	ReplaceLinting bool
	UpdateVersions bool
	Force          bool
}

// Step is one unit of migration work. Steps are idempotent: running one
// against an already-migrated project converges on the same state.
type Step struct {
	ID          string
	Name        string
	Description string
	Required    bool
	Run         func(*Context) error
}

// Plan is an ordered list of steps. Order is fixed by construction, not by
// any runtime scheduling.
type Plan struct {
	Steps []Step
}

// BuildPlan assembles the steps that apply to this project. Inclusion is
// decided purely from the fingerprint and options; no step logic runs here.
//
// Source order is the execution order: Next.js config, Tailwind, linting,
// TypeScript config, dependency versions.
func BuildPlan(info *detect.ProjectInfo, opts Options) *Plan {
	var steps []Step
	if info.IsNext() {
		steps = append(steps, nextConfigStep())
	}
	if info.Tailwind {
		steps = append(steps, tailwindStep())
	}
	if opts.ReplaceLinting && (info.ESLint || info.Prettier) {
		steps = append(steps, lintingStep())
	}
	if info.TypeScript {
		steps = append(steps, tsconfigStep())
	}
	if opts.UpdateVersions {
		steps = append(steps, versionsStep())
	}
	return &Plan{Steps: steps}
}

// Empty reports whether there is nothing to do.
func (p *Plan) Empty() bool { return len(p.Steps) == 0 }

// IDs returns the step ids in execution order.
func (p *Plan) IDs() []string {
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.ID
	}
	return ids
}

// Describe renders the plan for dry runs.
func (p *Plan) Describe(w io.Writer) {
	for i, s := range p.Steps {
		required := ""
		if s.Required {
			required = " (required)"
		}
		fmt.Fprintf(w, "  %d. %s%s\n     %s\n", i+1, s.Name, required, s.Description)
	}
}

// Context is what each step works with during execution.
type Context struct {
	Ctx        context.Context
	ProjectDir string
	Info       *detect.ProjectInfo
	Options    Options
	Logger     *zap.Logger
	Out        io.Writer

	warnings []string
}

// Warnf records a non-fatal problem to surface in the run summary.
func (c *Context) Warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// mergeWarnings folds configmerge warnings into the step warnings.
func (c *Context) mergeWarnings(warns []configmerge.Warning) {
	for _, w := range warns {
		c.warnings = append(c.warnings, w.String())
	}
}

// Notef prints a progress detail line under the current step.
func (c *Context) Notef(format string, args ...any) {
	if c.Out == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(c.Out, "      %s\n", strings.TrimSpace(msg))
}
