package templates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// scaffold runs the default template with the given answers and returns
// the output directory.
func scaffold(t *testing.T, vars map[string]interface{}) string {
	t.Helper()

	engine := NewEngine()
	targetDir := filepath.Join(t.TempDir(), "app")

	ctx := &Context{
		ProjectName: vars["projectName"].(string),
		Variables:   vars,
	}
	if err := engine.Execute(NewDefaultTemplate(), ctx, targetDir); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return targetDir
}

func readPackageJSON(t *testing.T, dir string) map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		t.Fatalf("Failed to read package.json: %v", err)
	}

	var pkg map[string]interface{}
	if err := json.Unmarshal(data, &pkg); err != nil {
		t.Fatalf("Generated package.json is not valid JSON: %v\n%s", err, data)
	}
	return pkg
}

func dependencyNames(t *testing.T, pkg map[string]interface{}, block string) map[string]bool {
	t.Helper()

	names := make(map[string]bool)
	deps, ok := pkg[block].(map[string]interface{})
	if !ok {
		t.Fatalf("package.json has no %s object", block)
	}
	for name := range deps {
		names[name] = true
	}
	return names
}

func TestDefaultTemplateFullOptions(t *testing.T) {
	dir := scaffold(t, map[string]interface{}{
		"projectName": "my-app",
		"database":    "supabase",
		"auth":        "clerk",
		"ai":          true,
		"pm":          "pnpm",
	})

	pkg := readPackageJSON(t, dir)
	if pkg["name"] != "my-app" {
		t.Errorf("package name = %v, want my-app", pkg["name"])
	}

	deps := dependencyNames(t, pkg, "dependencies")
	for _, want := range []string{"next", "react", "@clerk/nextjs", "@supabase/supabase-js", "@supabase/ssr", "ai", "@ai-sdk/google"} {
		if !deps[want] {
			t.Errorf("dependencies missing %s", want)
		}
	}

	wantFiles := []string{
		"tsconfig.json",
		"next.config.ts",
		"postcss.config.mjs",
		"biome.json",
		"app/globals.css",
		"app/layout.tsx",
		"app/page.tsx",
		"lib/supabase/client.ts",
		"lib/supabase/server.ts",
		"supabase/migrations/00000000000000_init.sql",
		"middleware.ts",
		"app/api/chat/route.ts",
		".env.example",
		".gitignore",
		"README.md",
	}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	// Clerk won the auth select, so the clerk middleware variant landed.
	middleware, err := os.ReadFile(filepath.Join(dir, "middleware.ts"))
	if err != nil {
		t.Fatalf("Failed to read middleware.ts: %v", err)
	}
	if !strings.Contains(string(middleware), "clerkMiddleware") {
		t.Error("middleware.ts should use clerkMiddleware")
	}

	layout, err := os.ReadFile(filepath.Join(dir, "app/layout.tsx"))
	if err != nil {
		t.Fatalf("Failed to read layout.tsx: %v", err)
	}
	if !strings.Contains(string(layout), "<ClerkProvider>") {
		t.Error("layout.tsx should wrap children in ClerkProvider")
	}
	if !strings.Contains(string(layout), `title: "my-app"`) {
		t.Error("layout.tsx should carry the project name in metadata")
	}

	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatalf("Failed to read .env.example: %v", err)
	}
	for _, want := range []string{"NEXT_PUBLIC_SUPABASE_URL", "DATABASE_URL", "CLERK_SECRET_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"} {
		if !strings.Contains(string(env), want) {
			t.Errorf(".env.example missing %s", want)
		}
	}
}

func TestDefaultTemplateBareOptions(t *testing.T) {
	dir := scaffold(t, map[string]interface{}{
		"projectName": "bare_app",
		"database":    "none",
		"auth":        "none",
		"ai":          false,
		"pm":          "npm",
	})

	pkg := readPackageJSON(t, dir)
	if pkg["name"] != "bare-app" {
		t.Errorf("package name = %v, want bare-app (kebab case)", pkg["name"])
	}

	deps := dependencyNames(t, pkg, "dependencies")
	for _, banned := range []string{"@clerk/nextjs", "@supabase/supabase-js", "@supabase/ssr", "ai", "@ai-sdk/google"} {
		if deps[banned] {
			t.Errorf("dependencies should not include %s", banned)
		}
	}
	for _, want := range []string{"next", "react", "react-dom"} {
		if !deps[want] {
			t.Errorf("dependencies missing %s", want)
		}
	}

	for _, name := range []string{
		"lib/supabase/client.ts",
		"supabase/migrations/00000000000000_init.sql",
		"middleware.ts",
		"app/api/chat/route.ts",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not have been generated", name)
		}
	}

	layout, err := os.ReadFile(filepath.Join(dir, "app/layout.tsx"))
	if err != nil {
		t.Fatalf("Failed to read layout.tsx: %v", err)
	}
	if strings.Contains(string(layout), "ClerkProvider") {
		t.Error("layout.tsx should not mention ClerkProvider")
	}
}

func TestDefaultTemplateSupabaseAuth(t *testing.T) {
	dir := scaffold(t, map[string]interface{}{
		"projectName": "supa-app",
		"database":    "none",
		"auth":        "supabase",
		"ai":          false,
		"pm":          "bun",
	})

	// Auth alone pulls in the Supabase client helpers, but no migrations.
	if _, err := os.Stat(filepath.Join(dir, "lib/supabase/client.ts")); err != nil {
		t.Errorf("expected lib/supabase/client.ts: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "supabase/migrations/00000000000000_init.sql")); !os.IsNotExist(err) {
		t.Error("migrations should only exist when supabase is the database")
	}

	middleware, err := os.ReadFile(filepath.Join(dir, "middleware.ts"))
	if err != nil {
		t.Fatalf("Failed to read middleware.ts: %v", err)
	}
	if !strings.Contains(string(middleware), "createServerClient") {
		t.Error("middleware.ts should refresh the Supabase session")
	}

	deps := dependencyNames(t, readPackageJSON(t, dir), "dependencies")
	if !deps["@supabase/ssr"] {
		t.Error("dependencies missing @supabase/ssr")
	}
}

func TestMinimalTemplateScaffold(t *testing.T) {
	engine := NewEngine()
	targetDir := filepath.Join(t.TempDir(), "app")

	ctx := &Context{
		ProjectName: "tiny",
		Variables: map[string]interface{}{
			"projectName": "tiny",
		},
	}
	if err := engine.Execute(NewMinimalTemplate(), ctx, targetDir); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	pkg := readPackageJSON(t, targetDir)
	if pkg["name"] != "tiny" {
		t.Errorf("package name = %v, want tiny", pkg["name"])
	}

	deps := dependencyNames(t, pkg, "dependencies")
	if len(deps) != 3 {
		t.Errorf("minimal template should have 3 runtime dependencies, got %d", len(deps))
	}

	// The pm variable fell back to its default in the README.
	readme, err := os.ReadFile(filepath.Join(targetDir, "README.md"))
	if err != nil {
		t.Fatalf("Failed to read README.md: %v", err)
	}
	if !strings.Contains(string(readme), "pnpm install") {
		t.Error("README.md should use the default package manager")
	}
}

func TestBuiltinHooksRender(t *testing.T) {
	engine := NewEngine()
	tmpl := NewDefaultTemplate()

	ctx := &Context{
		ProjectName: "my-app",
		Variables: map[string]interface{}{
			"projectName": "my-app",
			"pm":          "yarn",
		},
	}

	rendered, err := engine.RenderHooks(tmpl.Hooks.AfterCreate, ctx)
	if err != nil {
		t.Fatalf("RenderHooks() error = %v", err)
	}

	joined := strings.Join(rendered, "\n")
	if !strings.Contains(joined, "cd my-app") {
		t.Errorf("hooks should mention cd my-app, got %q", joined)
	}
	if !strings.Contains(joined, "yarn run dev") {
		t.Errorf("hooks should use the chosen package manager, got %q", joined)
	}
}
