package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"time"
)

// VariableType represents the type of a template variable.
type VariableType string

const (
	VariableTypeString  VariableType = "string"
	VariableTypeBool    VariableType = "bool"
	VariableTypeSelect  VariableType = "select"
	VariableTypeConfirm VariableType = "confirm"
)

// Template describes a scaffoldable project.
type Template struct {
	ID          string
	Name        string
	Description string
	Version     string
	Variables   []*Variable
	Files       []*File
	Directories []string
	Hooks       *Hooks
}

// Variable is a configurable input collected before generation.
type Variable struct {
	Name        string
	Description string
	Type        VariableType
	Default     interface{}
	Required    bool
	Options     []string
	Validation  string // regular expression applied to string values
	Prompt      string
}

// File is a single generated file. Path and Condition may use template
// syntax; Content is rendered only when Template is set, so files with
// literal double braces stay untouched.
type File struct {
	Path      string
	Content   string
	Template  bool
	Mode      os.FileMode // 0 means 0644
	Condition string      // skip the file unless this renders to "true"
}

// Hooks holds guidance lines shown around project generation. Lines are
// rendered with the engine before printing, so they may reference
// variables.
type Hooks struct {
	BeforeCreate []string
	AfterCreate  []string
}

// Context carries the data available to every rendered string.
type Context struct {
	ProjectName string
	Variables   map[string]interface{}
	Timestamp   time.Time
}

// Engine renders templates onto disk.
type Engine struct {
	funcs template.FuncMap
}

// NewEngine creates a template engine with the standard function map.
func NewEngine() *Engine {
	return &Engine{
		funcs: template.FuncMap{
			"upper":  strings.ToUpper,
			"lower":  strings.ToLower,
			"title":  toTitle,
			"camel":  toCamel,
			"pascal": toPascal,
			"snake":  toSnake,
			"kebab":  toKebab,
			"now":    time.Now,
			"year":   func() int { return time.Now().Year() },
			"default": func(def, val interface{}) interface{} {
				if val == nil {
					return def
				}
				return val
			},
		},
	}
}

// Execute renders tmpl into targetDir. Absent variables pick up their
// template defaults first; a required variable with no value and no
// default fails before anything is written. Rendered paths may not
// escape targetDir.
func (e *Engine) Execute(tmpl *Template, ctx *Context, targetDir string) error {
	if err := e.prepareContext(tmpl, ctx); err != nil {
		return fmt.Errorf("invalid template context: %w", err)
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	for _, dir := range tmpl.Directories {
		rendered, err := e.renderString(dir, ctx)
		if err != nil {
			return fmt.Errorf("failed to render directory path %s: %w", dir, err)
		}

		fullPath, err := resolveInside(targetDir, rendered)
		if err != nil {
			return fmt.Errorf("invalid directory path: %w", err)
		}

		if err := os.MkdirAll(fullPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
		}
	}

	for _, file := range tmpl.Files {
		if file.Condition != "" {
			shouldCreate, err := e.evaluateCondition(file.Condition, ctx)
			if err != nil {
				return fmt.Errorf("failed to evaluate condition for %s: %w", file.Path, err)
			}
			if !shouldCreate {
				continue
			}
		}

		rendered, err := e.renderString(file.Path, ctx)
		if err != nil {
			return fmt.Errorf("failed to render target path %s: %w", file.Path, err)
		}

		fullPath, err := resolveInside(targetDir, rendered)
		if err != nil {
			return fmt.Errorf("invalid target path: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("failed to create parent directory for %s: %w", fullPath, err)
		}

		content := file.Content
		if file.Template {
			content, err = e.renderString(file.Content, ctx)
			if err != nil {
				return fmt.Errorf("failed to render template %s: %w", file.Path, err)
			}
		}

		mode := file.Mode
		if mode == 0 {
			mode = 0644
		}
		if err := os.WriteFile(fullPath, []byte(content), mode); err != nil {
			return fmt.Errorf("failed to write file %s: %w", fullPath, err)
		}
	}

	return nil
}

// RenderHooks renders hook lines with the same function map and context
// as template files.
func (e *Engine) RenderHooks(lines []string, ctx *Context) ([]string, error) {
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		out, err := e.renderString(line, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render hook %q: %w", line, err)
		}
		rendered = append(rendered, out)
	}
	return rendered, nil
}

// renderString renders a template string with the given context.
func (e *Engine) renderString(tmplStr string, ctx *Context) (string, error) {
	tmpl, err := template.New("").Funcs(e.funcs).Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// prepareContext fills in defaults and validates the provided variables
// against the template's declarations.
func (e *Engine) prepareContext(tmpl *Template, ctx *Context) error {
	if ctx.Variables == nil {
		ctx.Variables = make(map[string]interface{})
	}

	for _, v := range tmpl.Variables {
		val, ok := ctx.Variables[v.Name]
		if !ok {
			if v.Default != nil {
				ctx.Variables[v.Name] = v.Default
				continue
			}
			if v.Required {
				return fmt.Errorf("required variable %s not provided", v.Name)
			}
			continue
		}

		if s, isString := val.(string); isString {
			if v.Validation != "" {
				re, err := regexp.Compile(v.Validation)
				if err != nil {
					return fmt.Errorf("variable %s has an invalid validation pattern: %w", v.Name, err)
				}
				if !re.MatchString(s) {
					return fmt.Errorf("variable %s value %q does not match %s", v.Name, s, v.Validation)
				}
			}
			if v.Type == VariableTypeSelect && !slices.Contains(v.Options, s) {
				return fmt.Errorf("variable %s must be one of %s, got %q", v.Name, strings.Join(v.Options, ", "), s)
			}
		}
	}

	return nil
}

// evaluateCondition renders a condition and treats the literal string
// "true" as pass. Bool variables render to "true"/"false", so plain
// {{.Variables.name}} works for both bool and string flags.
func (e *Engine) evaluateCondition(condition string, ctx *Context) (bool, error) {
	result, err := e.renderString(condition, ctx)
	if err != nil {
		return false, err
	}
	return result == "true", nil
}

// resolveInside joins rel onto root, rejecting absolute paths and any
// result that escapes root.
func resolveInside(root, rel string) (string, error) {
	rel = filepath.Clean(rel)
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%s attempts to write outside the project directory", rel)
	}

	full := filepath.Clean(filepath.Join(root, rel))
	prefix := filepath.Clean(root) + string(filepath.Separator)
	if !strings.HasPrefix(full+string(filepath.Separator), prefix) {
		return "", fmt.Errorf("%s attempts to write outside the project directory", rel)
	}

	return full, nil
}

// Validate checks a template structure before registration.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if t.Version == "" {
		return fmt.Errorf("template version is required")
	}
	if len(t.Files) == 0 {
		return fmt.Errorf("template must have at least one file")
	}

	varNames := make(map[string]bool)
	for _, v := range t.Variables {
		if v.Name == "" {
			return fmt.Errorf("variable name is required")
		}
		if varNames[v.Name] {
			return fmt.Errorf("duplicate variable name: %s", v.Name)
		}
		varNames[v.Name] = true

		if v.Type == VariableTypeSelect && len(v.Options) == 0 {
			return fmt.Errorf("select variable %s must have options", v.Name)
		}
		if v.Validation != "" {
			if _, err := regexp.Compile(v.Validation); err != nil {
				return fmt.Errorf("variable %s has an invalid validation pattern: %w", v.Name, err)
			}
		}
	}

	for _, f := range t.Files {
		if f.Path == "" {
			return fmt.Errorf("file target path is required")
		}
		if f.Content == "" {
			return fmt.Errorf("file content is required for %s", f.Path)
		}
	}

	return nil
}
