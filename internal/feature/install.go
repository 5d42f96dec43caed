package feature

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/configmerge"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/marker"
	"github.com/at3-stack/at3/internal/pm"
)

const toolName = "at3-stack-kit"

// Options control a single install run.
type Options struct {
	DryRun    bool
	Force     bool // overwrite existing boilerplate and reapply detected features
	NoInstall bool // skip the package manager install step
}

// Result reports what an install run did.
type Result struct {
	Features     []string
	FilesWritten []string
	FilesSkipped []string
	EnvAdded     []string
	Warnings     []string
	Installed    bool
}

// Installer applies catalog features to a project.
type Installer struct {
	manager *pm.Manager
	logger  *zap.Logger
	out     io.Writer
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithManager pins the package manager instead of detecting it from the
// project's lockfile.
func WithManager(m *pm.Manager) InstallerOption {
	return func(i *Installer) { i.manager = m }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) InstallerOption {
	return func(i *Installer) { i.logger = logger }
}

// WithOutput redirects progress output.
func WithOutput(w io.Writer) InstallerOption {
	return func(i *Installer) { i.out = w }
}

// NewInstaller creates an installer with default collaborators.
func NewInstaller(opts ...InstallerOption) *Installer {
	ins := &Installer{
		logger: zap.NewNop(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(ins)
	}
	return ins
}

// Install applies feats to projectDir in the given order. Features the
// fingerprint already shows are skipped unless opts.Force, as is
// boilerplate that already exists on disk. package.json changes go
// through the config merger and missing .env.example keys are appended;
// a single dependency install runs at the end unless opts.NoInstall.
func (i *Installer) Install(ctx context.Context, projectDir string, info *detect.ProjectInfo, feats []*Feature, opts Options) (*Result, error) {
	res := &Result{}

	updates := configmerge.PackageUpdates{
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{},
		Scripts:         map[string]string{},
	}
	var envVars []EnvVar

	for _, f := range feats {
		if !opts.Force && f.Detected != nil && info != nil && f.Detected(info) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s already present, skipped (use --force to reapply)", f.ID))
			fmt.Fprintf(i.out, "→ %s (already present, skipped)\n", f.Name)
			continue
		}

		res.Features = append(res.Features, f.ID)
		fmt.Fprintf(i.out, "→ %s\n", f.Name)

		for _, file := range f.Files {
			target := filepath.Join(projectDir, file.Path)
			if _, err := os.Stat(target); err == nil && !opts.Force {
				res.FilesSkipped = append(res.FilesSkipped, file.Path)
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s already exists, skipped (use --force to overwrite)", file.Path))
				fmt.Fprintf(i.out, "  - %s (exists, skipped)\n", file.Path)
				continue
			}
			if opts.DryRun {
				res.FilesWritten = append(res.FilesWritten, file.Path)
				fmt.Fprintf(i.out, "  + %s (dry run)\n", file.Path)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return res, fmt.Errorf("failed to create directory for %s: %w", file.Path, err)
			}
			if err := os.WriteFile(target, []byte(file.Content), 0644); err != nil {
				return res, fmt.Errorf("failed to write %s: %w", file.Path, err)
			}
			res.FilesWritten = append(res.FilesWritten, file.Path)
			fmt.Fprintf(i.out, "  ✓ %s\n", file.Path)
		}

		for name, version := range f.Packages {
			updates.Dependencies[name] = version
		}
		for name, version := range f.DevPackages {
			updates.DevDependencies[name] = version
		}
		for name, command := range f.Scripts {
			updates.Scripts[name] = command
		}
		envVars = append(envVars, f.EnvVars...)
	}

	if len(res.Features) == 0 {
		fmt.Fprintln(i.out, "Nothing to install.")
		return res, nil
	}

	if opts.DryRun {
		fmt.Fprintln(i.out, "Dry run, nothing was changed.")
		return res, nil
	}

	if !updates.IsZero() {
		warnings, err := configmerge.MergePackageJSON(filepath.Join(projectDir, "package.json"), updates)
		if err != nil {
			return res, fmt.Errorf("failed to update package.json: %w", err)
		}
		for _, w := range warnings {
			res.Warnings = append(res.Warnings, w.String())
		}
	}

	added, err := appendEnvExample(filepath.Join(projectDir, ".env.example"), envVars)
	if err != nil {
		return res, fmt.Errorf("failed to update .env.example: %w", err)
	}
	res.EnvAdded = added

	if err := marker.RecordFeatures(projectDir, toolName, res.Features); err != nil {
		i.logger.Debug("could not update project marker", zap.Error(err))
	}

	if opts.NoInstall {
		fmt.Fprintln(i.out, "Skipping dependency install (--no-install).")
		return res, nil
	}

	mgr := i.manager
	if mgr == nil {
		mgr = pm.Detect(projectDir)
	}
	fmt.Fprintf(i.out, "Installing dependencies with %s...\n", mgr.Name)

	installCtx, cancel := context.WithTimeout(ctx, pm.InstallTimeout)
	defer cancel()
	if err := mgr.Install(installCtx, projectDir, i.out); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("dependency install failed: %v; run `%s install` manually", err, mgr.Name))
	} else {
		res.Installed = true
	}

	return res, nil
}

// appendEnvExample appends missing keys to the example env file,
// creating it when absent. Keys already present are left untouched.
func appendEnvExample(path string, vars []EnvVar) ([]string, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, _, ok := strings.Cut(line, "="); ok {
			present[strings.TrimSpace(key)] = true
		}
	}

	var b strings.Builder
	var added []string
	for _, v := range vars {
		if present[v.Key] {
			continue
		}
		present[v.Key] = true
		fmt.Fprintf(&b, "%s=%s\n", v.Key, v.Value)
		added = append(added, v.Key)
	}
	if len(added) == 0 {
		return nil, nil
	}

	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += b.String()

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, err
	}
	return added, nil
}
