package migrate

import (
	"time"

	"github.com/at3-stack/at3/internal/backup"
	"github.com/at3-stack/at3/internal/detect"
)

// StepResult records one executed step.
type StepResult struct {
	ID       string
	Name     string
	Required bool
	Err      error
}

// Result is everything a migration run produced, for the summary the CLI
// renders.
type Result struct {
	Info      *detect.ProjectInfo
	Plan      *Plan
	DryRun    bool
	Backup    *backup.Info
	Steps     []StepResult
	Warnings  []string
	Installed bool
	Duration  time.Duration
}

// Completed counts the steps that ran without error.
func (r *Result) Completed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// Failed reports whether any step errored, required or not.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}
