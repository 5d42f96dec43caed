package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTemplateValidation(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    *Template
		wantErr bool
	}{
		{
			name: "valid template",
			tmpl: &Template{
				ID:      "test",
				Name:    "Test",
				Version: "1.0.0",
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			wantErr: false,
		},
		{
			name: "missing id",
			tmpl: &Template{
				Name:    "Test",
				Version: "1.0.0",
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			wantErr: true,
		},
		{
			name: "missing name",
			tmpl: &Template{
				ID:      "test",
				Version: "1.0.0",
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			wantErr: true,
		},
		{
			name: "missing version",
			tmpl: &Template{
				ID:   "test",
				Name: "Test",
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			wantErr: true,
		},
		{
			name: "no files",
			tmpl: &Template{
				ID:      "test",
				Name:    "Test",
				Version: "1.0.0",
				Files:   []*File{},
			},
			wantErr: true,
		},
		{
			name: "duplicate variable names",
			tmpl: &Template{
				ID:      "test",
				Name:    "Test",
				Version: "1.0.0",
				Variables: []*Variable{
					{Name: "var1", Type: VariableTypeString},
					{Name: "var1", Type: VariableTypeString},
				},
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			wantErr: true,
		},
		{
			name: "select variable without options",
			tmpl: &Template{
				ID:      "test",
				Name:    "Test",
				Version: "1.0.0",
				Variables: []*Variable{
					{Name: "choice", Type: VariableTypeSelect},
				},
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			wantErr: true,
		},
		{
			name: "broken validation pattern",
			tmpl: &Template{
				ID:      "test",
				Name:    "Test",
				Version: "1.0.0",
				Variables: []*Variable{
					{Name: "bad", Type: VariableTypeString, Validation: "["},
				},
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			wantErr: true,
		},
		{
			name: "file without content",
			tmpl: &Template{
				ID:      "test",
				Name:    "Test",
				Version: "1.0.0",
				Files: []*File{
					{Path: "test.txt", Content: ""},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngineRenderString(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name     string
		template string
		context  *Context
		want     string
	}{
		{
			name:     "simple variable substitution",
			template: "Hello {{.ProjectName}}",
			context: &Context{
				ProjectName: "test-project",
				Variables:   make(map[string]interface{}),
			},
			want: "Hello test-project",
		},
		{
			name:     "variable from context",
			template: "PM: {{.Variables.pm}}",
			context: &Context{
				Variables: map[string]interface{}{
					"pm": "pnpm",
				},
			},
			want: "PM: pnpm",
		},
		{
			name:     "upper function",
			template: "{{upper .ProjectName}}",
			context:  &Context{ProjectName: "test"},
			want:     "TEST",
		},
		{
			name:     "lower function",
			template: "{{lower .ProjectName}}",
			context:  &Context{ProjectName: "TEST"},
			want:     "test",
		},
		{
			name:     "kebab function",
			template: "{{kebab .ProjectName}}",
			context:  &Context{ProjectName: "My Cool App"},
			want:     "my-cool-app",
		},
		{
			name:     "pascal function",
			template: "{{pascal .ProjectName}}",
			context:  &Context{ProjectName: "my-cool-app"},
			want:     "MyCoolApp",
		},
		{
			name:     "conditional",
			template: "{{if .Variables.enabled}}yes{{else}}no{{end}}",
			context: &Context{
				Variables: map[string]interface{}{
					"enabled": true,
				},
			},
			want: "yes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.renderString(tt.template, tt.context)
			if err != nil {
				t.Fatalf("renderString() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("renderString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineExecute(t *testing.T) {
	engine := NewEngine()
	tmpDir := t.TempDir()

	tmpl := &Template{
		ID:      "test-template",
		Name:    "Test",
		Version: "1.0.0",
		Variables: []*Variable{
			{Name: "appName", Type: VariableTypeString, Required: true},
		},
		Directories: []string{
			"src",
			"config",
		},
		Files: []*File{
			{
				Path:     "README.md",
				Template: true,
				Content:  "# {{.ProjectName}}\n\nApp: {{.Variables.appName}}",
			},
			{
				Path:    "config/settings.txt",
				Content: "static content with {{literal braces}}",
			},
		},
	}

	ctx := &Context{
		ProjectName: "my-project",
		Variables: map[string]interface{}{
			"appName": "MyApp",
		},
		Timestamp: time.Now(),
	}

	targetDir := filepath.Join(tmpDir, "output")

	if err := engine.Execute(tmpl, ctx, targetDir); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, dir := range []string{"src", "config"} {
		if _, err := os.Stat(filepath.Join(targetDir, dir)); os.IsNotExist(err) {
			t.Errorf("%s directory was not created", dir)
		}
	}

	readme, err := os.ReadFile(filepath.Join(targetDir, "README.md"))
	if err != nil {
		t.Fatalf("Failed to read README.md: %v", err)
	}
	wantReadme := "# my-project\n\nApp: MyApp"
	if string(readme) != wantReadme {
		t.Errorf("README.md content = %q, want %q", string(readme), wantReadme)
	}

	// Non-template files pass through untouched, template syntax included.
	settings, err := os.ReadFile(filepath.Join(targetDir, "config", "settings.txt"))
	if err != nil {
		t.Fatalf("Failed to read settings.txt: %v", err)
	}
	if string(settings) != "static content with {{literal braces}}" {
		t.Errorf("settings.txt content = %q", string(settings))
	}
}

func TestEngineExecuteWithCondition(t *testing.T) {
	engine := NewEngine()
	tmpDir := t.TempDir()

	tmpl := &Template{
		ID:      "conditional-template",
		Name:    "Conditional",
		Version: "1.0.0",
		Files: []*File{
			{
				Path:    "always.txt",
				Content: "always created",
			},
			{
				Path:      "flagged.txt",
				Content:   "flagged content",
				Condition: "{{.Variables.createFile}}",
			},
			{
				Path:      "selected.txt",
				Content:   "selected content",
				Condition: `{{eq .Variables.choice "yes"}}`,
			},
		},
	}

	tests := []struct {
		name        string
		vars        map[string]interface{}
		wantFlagged bool
		wantSelect  bool
	}{
		{
			name:        "bool true and matching select",
			vars:        map[string]interface{}{"createFile": true, "choice": "yes"},
			wantFlagged: true,
			wantSelect:  true,
		},
		{
			name:        "bool false and other select",
			vars:        map[string]interface{}{"createFile": false, "choice": "no"},
			wantFlagged: false,
			wantSelect:  false,
		},
		{
			name:        "string true",
			vars:        map[string]interface{}{"createFile": "true", "choice": "no"},
			wantFlagged: true,
			wantSelect:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targetDir := filepath.Join(tmpDir, strings.ReplaceAll(tt.name, " ", "-"))

			ctx := &Context{Variables: tt.vars}
			if err := engine.Execute(tmpl, ctx, targetDir); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if _, err := os.Stat(filepath.Join(targetDir, "always.txt")); os.IsNotExist(err) {
				t.Error("always.txt was not created")
			}

			_, err := os.Stat(filepath.Join(targetDir, "flagged.txt"))
			if got := !os.IsNotExist(err); got != tt.wantFlagged {
				t.Errorf("flagged.txt exists = %v, want %v", got, tt.wantFlagged)
			}

			_, err = os.Stat(filepath.Join(targetDir, "selected.txt"))
			if got := !os.IsNotExist(err); got != tt.wantSelect {
				t.Errorf("selected.txt exists = %v, want %v", got, tt.wantSelect)
			}
		})
	}
}

func TestEngineAppliesDefaults(t *testing.T) {
	engine := NewEngine()
	tmpDir := t.TempDir()

	tmpl := &Template{
		ID:      "defaults",
		Name:    "Defaults",
		Version: "1.0.0",
		Variables: []*Variable{
			{Name: "pm", Type: VariableTypeSelect, Options: []string{"npm", "pnpm"}, Default: "pnpm"},
			{Name: "ai", Type: VariableTypeConfirm, Default: true},
		},
		Files: []*File{
			{Path: "out.txt", Template: true, Content: "{{.Variables.pm}} {{.Variables.ai}}"},
		},
	}

	ctx := &Context{Variables: map[string]interface{}{}}
	targetDir := filepath.Join(tmpDir, "out")

	if err := engine.Execute(tmpl, ctx, targetDir); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(targetDir, "out.txt"))
	if err != nil {
		t.Fatalf("Failed to read out.txt: %v", err)
	}
	if string(content) != "pnpm true" {
		t.Errorf("content = %q, want %q", string(content), "pnpm true")
	}
}

func TestEngineVariableValidation(t *testing.T) {
	engine := NewEngine()

	tmpl := &Template{
		ID:      "validated",
		Name:    "Validated",
		Version: "1.0.0",
		Variables: []*Variable{
			{Name: "projectName", Type: VariableTypeString, Required: true, Validation: projectNamePattern},
			{Name: "database", Type: VariableTypeSelect, Options: []string{"supabase", "none"}, Default: "none"},
		},
		Files: []*File{
			{Path: "out.txt", Content: "content"},
		},
	}

	tests := []struct {
		name    string
		vars    map[string]interface{}
		wantErr string
	}{
		{
			name: "valid values",
			vars: map[string]interface{}{"projectName": "my-app", "database": "supabase"},
		},
		{
			name:    "name fails pattern",
			vars:    map[string]interface{}{"projectName": "../evil"},
			wantErr: "does not match",
		},
		{
			name:    "missing required",
			vars:    map[string]interface{}{},
			wantErr: "required variable projectName not provided",
		},
		{
			name:    "unknown select option",
			vars:    map[string]interface{}{"projectName": "my-app", "database": "mysql"},
			wantErr: "must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context{Variables: tt.vars}
			err := engine.Execute(tmpl, ctx, filepath.Join(t.TempDir(), "out"))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Execute() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Execute() should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEngineFileMode(t *testing.T) {
	engine := NewEngine()
	tmpDir := t.TempDir()

	tmpl := &Template{
		ID:      "mode-test",
		Name:    "Mode",
		Version: "1.0.0",
		Files: []*File{
			{
				Path:    "script.sh",
				Content: "#!/bin/sh\necho hello",
				Mode:    0755,
			},
			{
				Path:    "readme.md",
				Content: "# README",
			},
		},
	}

	ctx := &Context{Variables: make(map[string]interface{})}
	targetDir := filepath.Join(tmpDir, "mode")

	if err := engine.Execute(tmpl, ctx, targetDir); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	script, err := os.Stat(filepath.Join(targetDir, "script.sh"))
	if err != nil {
		t.Fatalf("Failed to stat script.sh: %v", err)
	}
	if script.Mode().Perm() != 0755 {
		t.Errorf("script.sh permissions = %o, want %o", script.Mode().Perm(), 0755)
	}

	readme, err := os.Stat(filepath.Join(targetDir, "readme.md"))
	if err != nil {
		t.Fatalf("Failed to stat readme.md: %v", err)
	}
	if readme.Mode().Perm() != 0644 {
		t.Errorf("readme.md permissions = %o, want %o", readme.Mode().Perm(), 0644)
	}
}

func TestEngineExecutePathTraversalProtection(t *testing.T) {
	engine := NewEngine()
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		tmpl    *Template
		ctx     *Context
		wantErr bool
	}{
		{
			name: "file path traversal",
			tmpl: &Template{
				ID:      "traversal-file",
				Name:    "t",
				Version: "1.0.0",
				Files: []*File{
					{Path: "../../etc/passwd", Content: "malicious"},
				},
			},
			ctx:     &Context{Variables: make(map[string]interface{})},
			wantErr: true,
		},
		{
			name: "directory path traversal",
			tmpl: &Template{
				ID:          "traversal-dir",
				Name:        "t",
				Version:     "1.0.0",
				Directories: []string{"../../etc"},
				Files: []*File{
					{Path: "safe.txt", Content: "safe"},
				},
			},
			ctx:     &Context{Variables: make(map[string]interface{})},
			wantErr: true,
		},
		{
			name: "absolute file path",
			tmpl: &Template{
				ID:      "absolute-file",
				Name:    "t",
				Version: "1.0.0",
				Files: []*File{
					{Path: "/etc/passwd", Content: "malicious"},
				},
			},
			ctx:     &Context{Variables: make(map[string]interface{})},
			wantErr: true,
		},
		{
			name: "templated path traversal",
			tmpl: &Template{
				ID:      "templated-traversal",
				Name:    "t",
				Version: "1.0.0",
				Files: []*File{
					{Path: "{{.Variables.evil}}", Content: "malicious"},
				},
			},
			ctx: &Context{
				Variables: map[string]interface{}{
					"evil": "../../etc/passwd",
				},
			},
			wantErr: true,
		},
		{
			name: "safe path with dot prefix",
			tmpl: &Template{
				ID:      "safe-dot",
				Name:    "t",
				Version: "1.0.0",
				Files: []*File{
					{Path: "./config/app.txt", Content: "safe"},
				},
			},
			ctx:     &Context{Variables: make(map[string]interface{})},
			wantErr: false,
		},
		{
			name: "backtrack that stays inside",
			tmpl: &Template{
				ID:          "safe-backtrack",
				Name:        "t",
				Version:     "1.0.0",
				Directories: []string{"a/b/../c"},
				Files: []*File{
					{Path: "test.txt", Content: "test"},
				},
			},
			ctx:     &Context{Variables: make(map[string]interface{})},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targetDir := filepath.Join(tmpDir, tt.tmpl.ID)
			err := engine.Execute(tt.tmpl, tt.ctx, targetDir)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Execute() should have failed with a path traversal error")
				}
				if !strings.Contains(err.Error(), "outside the project directory") {
					t.Errorf("Execute() error = %v, should mention the project directory", err)
				}
			} else if err != nil {
				t.Errorf("Execute() should not have failed for a safe path: %v", err)
			}
		})
	}
}

func TestRenderHooks(t *testing.T) {
	engine := NewEngine()

	ctx := &Context{
		ProjectName: "my-app",
		Variables: map[string]interface{}{
			"pm": "pnpm",
		},
	}

	rendered, err := engine.RenderHooks([]string{
		"cd {{.ProjectName}}",
		"{{.Variables.pm}} run dev",
	}, ctx)
	if err != nil {
		t.Fatalf("RenderHooks() error = %v", err)
	}

	want := []string{"cd my-app", "pnpm run dev"}
	if len(rendered) != len(want) {
		t.Fatalf("RenderHooks() returned %d lines, want %d", len(rendered), len(want))
	}
	for i := range want {
		if rendered[i] != want[i] {
			t.Errorf("hook %d = %q, want %q", i, rendered[i], want[i])
		}
	}

	if _, err := engine.RenderHooks([]string{"{{.Broken"}, ctx); err == nil {
		t.Error("RenderHooks() should fail on a broken hook template")
	}
}

func TestEvaluateCondition(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name      string
		condition string
		ctx       *Context
		want      bool
	}{
		{
			name:      "literal true",
			condition: "true",
			ctx:       &Context{Variables: make(map[string]interface{})},
			want:      true,
		},
		{
			name:      "literal false",
			condition: "false",
			ctx:       &Context{Variables: make(map[string]interface{})},
			want:      false,
		},
		{
			name:      "bool variable",
			condition: "{{.Variables.enabled}}",
			ctx: &Context{
				Variables: map[string]interface{}{"enabled": true},
			},
			want: true,
		},
		{
			name:      "eq comparison",
			condition: `{{eq .Variables.auth "clerk"}}`,
			ctx: &Context{
				Variables: map[string]interface{}{"auth": "clerk"},
			},
			want: true,
		},
		{
			name:      "or of comparisons",
			condition: `{{or (eq .Variables.database "supabase") (eq .Variables.auth "supabase")}}`,
			ctx: &Context{
				Variables: map[string]interface{}{"database": "none", "auth": "supabase"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.evaluateCondition(tt.condition, tt.ctx)
			if err != nil {
				t.Fatalf("evaluateCondition() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("evaluateCondition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineRenderErrors(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name     string
		template string
	}{
		{name: "invalid template syntax", template: "{{.Invalid"},
		{name: "missing field", template: "{{.NonExistent}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.renderString(tt.template, &Context{}); err == nil {
				t.Error("renderString() should have failed")
			}
		})
	}
}
