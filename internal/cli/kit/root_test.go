package kit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/at3-stack/at3/internal/ai"
	"github.com/at3-stack/at3/internal/feature"
)

// runCommand executes the at3-kit tree with args and captures both
// streams.
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

	if cmd.Use != "at3-kit [path]" {
		t.Errorf("expected Use to be 'at3-kit [path]', got %s", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	expectedCommands := []string{"list", "add", "suggest", "version"}
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

	for _, flag := range []string{"dry-run", "force", "yes", "no-install"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to be registered", flag)
		}
	}
	for _, flag := range []string{"verbose", "no-color", "config"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected --%s to be a persistent flag", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "2.0.0-test"
	Commit = "def456"

	out, _, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "at3-stack-kit 2.0.0-test") {
		t.Errorf("version output missing tool name and version:\n%s", out)
	}
}

func TestListOutsideProject(t *testing.T) {
	dir := t.TempDir()

	out, _, err := runCommand(t, "list", dir, "--no-color")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, id := range []string{"supabase", "clerk", "drizzle", "ai"} {
		if !strings.Contains(out, id) {
			t.Errorf("catalog output missing %q:\n%s", id, out)
		}
	}
	if !strings.Contains(out, "Run inside a project to see install status.") {
		t.Errorf("expected the outside-project hint:\n%s", out)
	}
}

func TestListInsideProject(t *testing.T) {
	dir := writeProject(t, `{
  "name": "my-app",
  "dependencies": {"next": "15.1.0", "@supabase/supabase-js": "2.47.0"}
}`)

	out, _, err := runCommand(t, "list", dir, "--no-color")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "✓ installed") {
		t.Errorf("expected supabase to show as installed:\n%s", out)
	}
	if !strings.Contains(out, "○ missing") {
		t.Errorf("expected other features to show as missing:\n%s", out)
	}
	want := fmt.Sprintf("1 of %d features installed", len(feature.Catalog()))
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in the footer:\n%s", want, out)
	}
}

func TestAddUnknownFeature(t *testing.T) {
	dir := writeProject(t, `{"name": "my-app", "dependencies": {"next": "15.1.0"}}`)

	_, errOut, err := runCommand(t, "add", "clrk", "--path", dir, "--no-color")
	if err == nil {
		t.Fatal("expected an error for an unknown feature id")
	}
	if !strings.Contains(err.Error(), `unknown feature "clrk"`) {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut, "UNKNOWN FEATURE") {
		t.Errorf("expected the error block on stderr:\n%s", errOut)
	}
	if !strings.Contains(errOut, "clerk") {
		t.Errorf("expected clerk to be suggested for clrk:\n%s", errOut)
	}
}

func TestAddDryRun(t *testing.T) {
	dir := writeProject(t, `{"name": "my-app", "dependencies": {"next": "15.1.0"}}`)

	out, _, err := runCommand(t, "add", "supabase", "--path", dir, "--dry-run", "--no-color")
	if err != nil {
		t.Fatalf("add --dry-run: %v", err)
	}
	if !strings.Contains(out, "lib/supabase/client.ts (dry run)") {
		t.Errorf("expected the planned file line:\n%s", out)
	}
	if !strings.Contains(out, "Dry run, nothing was changed.") {
		t.Errorf("expected the dry run footer:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "lib", "supabase", "client.ts")); !os.IsNotExist(err) {
		t.Error("dry run must not write files")
	}
}

func TestAddWritesFeatureFiles(t *testing.T) {
	dir := writeProject(t, `{"name": "my-app", "dependencies": {"next": "15.1.0"}}`)

	out, _, err := runCommand(t, "add", "supabase", "--path", dir, "--no-install", "--no-color")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added supabase") {
		t.Errorf("expected the success line:\n%s", out)
	}

	for _, path := range []string{"lib/supabase/client.ts", "lib/supabase/server.ts"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(path))); err != nil {
			t.Errorf("expected %s to be written: %v", path, err)
		}
	}

	pkg, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(pkg), "@supabase/supabase-js") {
		t.Errorf("package.json missing the supabase dependency:\n%s", pkg)
	}

	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatalf(".env.example should have been created: %v", err)
	}
	if !strings.Contains(string(env), "NEXT_PUBLIC_SUPABASE_URL") {
		t.Errorf(".env.example missing the supabase keys:\n%s", env)
	}

	marker, err := os.ReadFile(filepath.Join(dir, ".at3-config.json"))
	if err != nil {
		t.Fatalf("project marker should have been written: %v", err)
	}
	if !strings.Contains(string(marker), "supabase") {
		t.Errorf("marker missing the installed feature:\n%s", marker)
	}
}

func TestAddSkipsDetectedFeature(t *testing.T) {
	dir := writeProject(t, `{
  "name": "my-app",
  "dependencies": {"next": "15.1.0", "@supabase/supabase-js": "2.47.0"}
}`)

	out, _, err := runCommand(t, "add", "supabase", "--path", dir, "--no-install", "--no-color")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "already present, skipped") {
		t.Errorf("expected the skip notice:\n%s", out)
	}
	if !strings.Contains(out, "Nothing to install.") {
		t.Errorf("expected nothing to install:\n%s", out)
	}
}

func TestSuggestWithoutKey(t *testing.T) {
	isolateHome(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	dir := writeProject(t, `{"name": "my-app", "dependencies": {"next": "15.1.0"}}`)

	_, errOut, err := runCommand(t, "suggest", dir, "--no-color")
	if !errors.Is(err, ai.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if !strings.Contains(errOut, "NO API KEY") {
		t.Errorf("expected the API key error block:\n%s", errOut)
	}
}

func TestSuggestOutsideProject(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	_, errOut, err := runCommand(t, "suggest", dir, "--no-color")
	if err == nil {
		t.Fatal("expected an error outside a project")
	}
	if !strings.Contains(errOut, "PROJECT DETECTION FAILED") {
		t.Errorf("expected the detection error block:\n%s", errOut)
	}
}
