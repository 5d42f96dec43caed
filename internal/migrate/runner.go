package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/backup"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/marker"
	"github.com/at3-stack/at3/internal/pm"
)

// toolName is what the runner records in the project marker.
const toolName = "at3-toolkit"

// Runner executes migration plans. Every collaborator is injected so tests
// can run against fakes; NewRunner wires the real ones.
type Runner struct {
	detector *detect.Detector
	store    *backup.Store
	manager  *pm.Manager
	logger   *zap.Logger
	out      io.Writer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDetector replaces the project detector.
func WithDetector(d *detect.Detector) RunnerOption {
	return func(r *Runner) { r.detector = d }
}

// WithStore replaces the backup store.
func WithStore(s *backup.Store) RunnerOption {
	return func(r *Runner) { r.store = s }
}

// WithManager pins the package manager instead of detecting it.
func WithManager(m *pm.Manager) RunnerOption {
	return func(r *Runner) { r.manager = m }
}

// WithLogger sets the debug logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithOutput sets where progress lines go.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) { r.out = w }
}

// NewRunner returns a Runner with production collaborators.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		detector: detect.New(),
		store:    backup.NewStore(),
		logger:   zap.NewNop(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Migrate runs the full migration against projectDir:
//
//	detect, plan, backup, execute, install, validate.
//
// Failures in the first three phases abort before anything is mutated. A
// required step failing aborts execution; an optional step failing becomes
// a warning. Install and validation failures never fail the run, they only
// warn, since by then the migration itself has landed.
func (r *Runner) Migrate(ctx context.Context, projectDir string, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{DryRun: opts.DryRun}

	r.phase("Detecting project")
	info, err := r.detector.Detect(projectDir)
	if err != nil {
		return nil, err
	}
	result.Info = info
	r.logger.Debug("fingerprint ready",
		zap.String("type", string(info.Type)),
		zap.String("packageManager", string(info.PackageManager)))

	r.phase("Building migration plan")
	plan := BuildPlan(info, opts)
	result.Plan = plan
	if plan.Empty() {
		fmt.Fprintln(r.out, "Nothing to migrate: the project already matches the target stack.")
		result.Duration = time.Since(start)
		return result, nil
	}
	if opts.DryRun {
		fmt.Fprintf(r.out, "Planned steps for %s:\n", projectDir)
		plan.Describe(r.out)
		fmt.Fprintln(r.out, "Dry run: no files were changed.")
		result.Duration = time.Since(start)
		return result, nil
	}

	r.phase("Creating backup")
	backupInfo, err := r.store.Create(projectDir, "")
	if err != nil {
		return nil, fmt.Errorf("creating backup: %w", err)
	}
	result.Backup = backupInfo
	fmt.Fprintf(r.out, "      %d files saved to %s/%s\n", len(backupInfo.Files), backup.DirName, backupInfo.Timestamp)

	stepCtx := &Context{
		Ctx:        ctx,
		ProjectDir: projectDir,
		Info:       info,
		Options:    opts,
		Logger:     r.logger,
		Out:        r.out,
	}
	if err := r.executeSteps(stepCtx, plan, result); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	if opts.SkipInstall {
		fmt.Fprintln(r.out, "Skipping dependency install (--skip-deps).")
	} else {
		r.phase("Installing dependencies")
		mgr := r.managerFor(info)
		installCtx, cancel := context.WithTimeout(ctx, pm.InstallTimeout)
		if err := mgr.Install(installCtx, projectDir, r.out); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("dependency install failed: %v; run `%s install` manually", err, mgr.Name))
		} else {
			result.Installed = true
		}
		cancel()
	}

	r.phase("Validating project")
	if err := validate(projectDir); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("validation: %v", err))
	}

	// Marker updates are advisory; failure is not worth surfacing.
	if err := marker.RecordMigration(projectDir, toolName, backupInfo.MigrationID); err != nil {
		r.logger.Debug("marker update failed", zap.Error(err))
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Rollback restores the most recent backup for a project.
func (r *Runner) Rollback(projectDir string) (*backup.Info, error) {
	info, err := r.store.Restore(projectDir)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.out, "Restored %d files from backup %s.\n", len(info.Files), info.Timestamp)
	return info, nil
}

// executeSteps runs the plan in order. A failed required step aborts and
// returns its error; a failed optional step turns into a warning and the
// plan continues. Step warnings always end up on the result, even when the
// run aborts.
func (r *Runner) executeSteps(stepCtx *Context, plan *Plan, result *Result) error {
	defer func() {
		result.Warnings = append(result.Warnings, stepCtx.warnings...)
	}()
	for i, step := range plan.Steps {
		fmt.Fprintf(r.out, "[%d/%d] %s...\n", i+1, len(plan.Steps), step.Name)
		err := step.Run(stepCtx)
		result.Steps = append(result.Steps, StepResult{ID: step.ID, Name: step.Name, Required: step.Required, Err: err})
		if err == nil {
			continue
		}
		r.logger.Debug("step failed", zap.String("step", step.ID), zap.Bool("required", step.Required), zap.Error(err))
		if step.Required {
			return fmt.Errorf("required step %q failed: %w", step.ID, err)
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("step %s failed: %v", step.ID, err))
	}
	return nil
}

func (r *Runner) managerFor(info *detect.ProjectInfo) *pm.Manager {
	if r.manager != nil {
		return r.manager
	}
	return pm.ByName(string(info.PackageManager))
}

func (r *Runner) phase(name string) {
	fmt.Fprintf(r.out, "→ %s...\n", name)
}

// validate re-parses package.json after the migration; a project the tools
// just broke must be caught here, not at the next npm invocation.
func validate(projectDir string) error {
	path := filepath.Join(projectDir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("package.json unreadable after migration: %w", err)
	}
	if _, err := detect.ParsePackageJSON(data); err != nil {
		return fmt.Errorf("package.json invalid after migration: %w", err)
	}
	return nil
}
