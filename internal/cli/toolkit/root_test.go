package toolkit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/at3-stack/at3/internal/backup"
)

// runCommand executes the at3t tree with args and captures both streams.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// isolateHome keeps a developer's real ~/.at3rc.yaml out of config
// resolution.
func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func writeProject(t *testing.T, pkg string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "at3t [path]" {
		t.Errorf("expected Use to be 'at3t [path]', got %s", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	expectedCommands := []string{"detect", "rollback", "dev", "db", "version"}
	for _, expected := range expectedCommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}

	for _, flag := range []string{"dry-run", "skip-deps", "force", "yes", "replace-linting", "update-versions", "config"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to be registered", flag)
		}
	}
	for _, flag := range []string{"verbose", "no-color"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected --%s to be a persistent flag", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3-test"
	Commit = "abc123"
	Date = "2025-06-01"

	out, _, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "at3-toolkit 1.2.3-test") {
		t.Errorf("version output missing tool name and version:\n%s", out)
	}
	if !strings.Contains(out, "commit: abc123") {
		t.Errorf("version output missing commit:\n%s", out)
	}
}

func TestMigrateDryRunShowsPlan(t *testing.T) {
	isolateHome(t)
	dir := writeProject(t, `{
  "name": "legacy-app",
  "dependencies": {"next": "14.0.0", "react": "18.2.0"}
}`)

	out, _, err := runCommand(t, dir, "--dry-run", "--no-color")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "Planned steps for "+dir) {
		t.Errorf("expected the plan header, got:\n%s", out)
	}
	if !strings.Contains(out, "Dry run: no files were changed.") {
		t.Errorf("expected the dry run footer, got:\n%s", out)
	}

	// Nothing may have been written.
	if _, err := os.Stat(filepath.Join(dir, backup.DirName)); !os.IsNotExist(err) {
		t.Error("dry run must not create a backup directory")
	}
}

func TestMigrateNothingToDo(t *testing.T) {
	isolateHome(t)
	dir := writeProject(t, `{"name": "plain-node"}`)

	out, _, err := runCommand(t, dir, "--yes", "--no-color")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "Nothing to migrate") {
		t.Errorf("expected the empty plan message, got:\n%s", out)
	}
}

func TestMigrateMissingPath(t *testing.T) {
	isolateHome(t)
	missing := filepath.Join(t.TempDir(), "nope")

	_, errOut, err := runCommand(t, missing, "--dry-run", "--no-color")
	if err == nil {
		t.Fatal("expected an error for a missing path")
	}
	if !strings.Contains(errOut, "PROJECT DETECTION FAILED") {
		t.Errorf("expected the detection error block on stderr, got:\n%s", errOut)
	}
}

func TestMigrateNoPackageJSON(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	_, errOut, err := runCommand(t, dir, "--dry-run", "--no-color")
	if err == nil {
		t.Fatal("expected an error for a directory without package.json")
	}
	if !strings.Contains(errOut, "No package.json found") {
		t.Errorf("expected the package.json hint on stderr, got:\n%s", errOut)
	}
}

func TestRollbackNoBackups(t *testing.T) {
	dir := t.TempDir()

	_, errOut, err := runCommand(t, "rollback", dir, "--yes", "--no-color")
	if !errors.Is(err, backup.ErrNoBackups) {
		t.Fatalf("expected ErrNoBackups, got %v", err)
	}
	if !strings.Contains(errOut, "No backups found") {
		t.Errorf("expected the no-backups hint on stderr, got:\n%s", errOut)
	}
}

func TestRollbackRestoresFiles(t *testing.T) {
	dir := writeProject(t, `{"name": "original"}`)

	store := backup.NewStore()
	if _, err := store.Create(dir, "mig-test"); err != nil {
		t.Fatalf("creating backup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "modified"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCommand(t, "rollback", dir, "--yes", "--no-color")
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if !strings.Contains(out, "Latest backup:") {
		t.Errorf("expected the backup summary line, got:\n%s", out)
	}
	if !strings.Contains(out, "Rollback complete") {
		t.Errorf("expected the success line, got:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "original") {
		t.Errorf("package.json was not restored: %s", data)
	}
}

func TestDBPushWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()

	_, errOut, err := runCommand(t, "db", "push", dir, "--no-color")
	if err == nil {
		t.Fatal("expected an error without DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL not set") {
		t.Errorf("expected the short error, got %v", err)
	}
	if !strings.Contains(errOut, "DATABASE ERROR") {
		t.Errorf("expected the database error block on stderr, got:\n%s", errOut)
	}
}

func TestDBStatusWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()

	_, errOut, err := runCommand(t, "db", "status", dir, "--no-color")
	if err == nil {
		t.Fatal("expected an error without DATABASE_URL")
	}
	if !strings.Contains(errOut, "DATABASE_URL is not set.") {
		t.Errorf("expected the guidance block on stderr, got:\n%s", errOut)
	}
}
