package migrate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/backup"
	"github.com/at3-stack/at3/internal/detect"
	"github.com/at3-stack/at3/internal/marker"
	"github.com/at3-stack/at3/internal/pm"
)

// trueManager runs /usr/bin/true, so every invocation succeeds instantly.
func trueManager() *pm.Manager { return &pm.Manager{Name: "true"} }

// brokenManager points at a binary that does not exist.
func brokenManager() *pm.Manager { return &pm.Manager{Name: "at3-test-no-such-binary"} }

func testRunner(opts ...RunnerOption) *Runner {
	base := []RunnerOption{WithOutput(io.Discard), WithLogger(zap.NewNop())}
	return NewRunner(append(base, opts...)...)
}

func fixtureNextProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeProjectFile(t, dir, "package.json", `{
		"name": "fixture",
		"dependencies": {"next": "^14.2.0", "react": "^18.3.0"},
		"devDependencies": {
			"typescript": "^5.0.0",
			"tailwindcss": "^3.4.0",
			"eslint": "^9.0.0",
			"prettier": "^3.3.0"
		}
	}`)
	writeProjectFile(t, dir, "tsconfig.json", `{"compilerOptions": {"jsx": "preserve"}}`)
	writeProjectFile(t, dir, ".eslintrc.json", `{}`)
	writeProjectFile(t, dir, "app/layout.tsx", "export default function L() {}")
	writeProjectFile(t, dir, "app/globals.css", "@tailwind base;\n")
	return dir
}

func TestMigrateHappyPath(t *testing.T) {
	dir := fixtureNextProject(t)
	runner := testRunner(WithManager(trueManager()))

	result, err := runner.Migrate(context.Background(), dir, Options{
		ReplaceLinting: true,
		UpdateVersions: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"next-config", "tailwind-v4", "replace-linting", "tsconfig-strict", "update-versions"}, result.Plan.IDs())
	assert.Equal(t, len(result.Plan.Steps), result.Completed(), "every step succeeds")
	assert.False(t, result.Failed())
	assert.True(t, result.Installed)

	// The migration landed on disk.
	_, err = os.Stat(filepath.Join(dir, "next.config.ts"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "biome.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".eslintrc.json"))
	assert.True(t, os.IsNotExist(err))

	// Backup was taken before any change.
	require.NotNil(t, result.Backup)
	backedUp, err := os.ReadFile(filepath.Join(dir, backup.DirName, result.Backup.Timestamp, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(backedUp), "^14.2.0", "backup holds the pre-migration file")

	// Marker was stamped with the run id.
	m, err := marker.Read(dir)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, result.Backup.MigrationID, m.LastMigration)
	assert.Contains(t, m.ToolsUsed, "at3-toolkit")
}

func TestMigrateDryRunChangesNothing(t *testing.T) {
	dir := fixtureNextProject(t)
	var out bytes.Buffer
	runner := NewRunner(WithOutput(&out), WithLogger(zap.NewNop()), WithManager(brokenManager()))

	result, err := runner.Migrate(context.Background(), dir, Options{DryRun: true, ReplaceLinting: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Empty(t, result.Steps, "no step may execute")
	assert.Nil(t, result.Backup)
	assert.Contains(t, out.String(), "Dry run")

	_, err = os.Stat(filepath.Join(dir, backup.DirName))
	assert.True(t, os.IsNotExist(err), "dry run must not create backups")
	_, err = os.Stat(filepath.Join(dir, "next.config.ts"))
	assert.True(t, os.IsNotExist(err), "dry run must not write configs")
}

func TestMigrateEmptyPlanSkipsBackup(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "package.json", `{"dependencies": {"express": "^4.21.0"}}`)

	result, err := testRunner(WithManager(trueManager())).Migrate(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.True(t, result.Plan.Empty())
	_, err = os.Stat(filepath.Join(dir, backup.DirName))
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateInstallFailureIsAWarning(t *testing.T) {
	dir := fixtureNextProject(t)
	runner := testRunner(WithManager(brokenManager()))

	result, err := runner.Migrate(context.Background(), dir, Options{})
	require.NoError(t, err, "install failure must not fail the migration")

	assert.False(t, result.Installed)
	require.NotEmpty(t, result.Warnings)
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "dependency install failed") {
			found = true
		}
	}
	assert.True(t, found, "warnings should mention the failed install: %v", result.Warnings)
}

func TestMigrateSkipInstall(t *testing.T) {
	dir := fixtureNextProject(t)
	runner := testRunner(WithManager(brokenManager()))

	result, err := runner.Migrate(context.Background(), dir, Options{SkipInstall: true})
	require.NoError(t, err)
	assert.False(t, result.Installed)
	for _, w := range result.Warnings {
		assert.NotContains(t, w, "dependency install failed")
	}
}

func TestExecuteStepsRequiredFailureAborts(t *testing.T) {
	boom := errors.New("boom")
	ran := []string{}
	plan := &Plan{Steps: []Step{
		{ID: "first", Name: "First", Run: func(*Context) error { ran = append(ran, "first"); return nil }},
		{ID: "explodes", Name: "Explodes", Required: true, Run: func(*Context) error { ran = append(ran, "explodes"); return boom }},
		{ID: "never", Name: "Never", Run: func(*Context) error { ran = append(ran, "never"); return nil }},
	}}

	runner := testRunner()
	result := &Result{}
	stepCtx := &Context{Ctx: context.Background(), Logger: zap.NewNop(), Out: io.Discard}

	err := runner.executeSteps(stepCtx, plan, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"first", "explodes"}, ran, "later steps must not run")
	assert.Len(t, result.Steps, 2)
}

func TestExecuteStepsOptionalFailureContinues(t *testing.T) {
	ran := []string{}
	plan := &Plan{Steps: []Step{
		{ID: "flaky", Name: "Flaky", Run: func(*Context) error { ran = append(ran, "flaky"); return errors.New("minor") }},
		{ID: "after", Name: "After", Run: func(*Context) error { ran = append(ran, "after"); return nil }},
	}}

	runner := testRunner()
	result := &Result{}
	stepCtx := &Context{Ctx: context.Background(), Logger: zap.NewNop(), Out: io.Discard}

	err := runner.executeSteps(stepCtx, plan, result)
	require.NoError(t, err)
	assert.Equal(t, []string{"flaky", "after"}, ran)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "step flaky failed")
	assert.True(t, result.Failed(), "the failure is still recorded")
}

func TestRunnerRollback(t *testing.T) {
	dir := fixtureNextProject(t)
	runner := testRunner(WithManager(trueManager()))

	_, err := runner.Migrate(context.Background(), dir, Options{ReplaceLinting: true})
	require.NoError(t, err)

	// The migration rewrote package.json; rollback must bring the old one back.
	info, err := runner.Rollback(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, info.Files)

	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "eslint", "pre-migration package.json restored")
}

func TestRunnerRollbackWithoutBackups(t *testing.T) {
	_, err := testRunner().Rollback(t.TempDir())
	assert.True(t, errors.Is(err, backup.ErrNoBackups))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, validate(dir), "missing package.json fails validation")

	writeProjectFile(t, dir, "package.json", `{"name": "ok"}`)
	assert.NoError(t, validate(dir))

	writeProjectFile(t, dir, "package.json", `{"name": `)
	require.Error(t, validate(dir))
}

func TestMigrateDetectionErrorsAreFatal(t *testing.T) {
	_, err := testRunner().Migrate(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	assert.True(t, errors.Is(err, detect.ErrPathNotFound))
}
