// Package configmerge writes and merges project configuration files: JSON,
// YAML, package.json, and plain text or CSS. Merging is additive and
// idempotent so migration steps can run repeatedly without drift.
package configmerge

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
)

// Strategy says how an existing file is treated.
type Strategy string

const (
	// Merge combines updates with the current contents.
	Merge Strategy = "merge"
	// Overwrite replaces the file.
	Overwrite Strategy = "overwrite"
)

// Warning is a non-fatal condition hit while merging, such as an existing
// file that could not be parsed and was overwritten instead. Callers decide
// how to surface them.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return w.Path + ": " + w.Message
}

// deepMerge merges src into dst and returns a new map; neither input is
// mutated. Nested objects merge recursively, arrays union with duplicates
// removed, and every other combination of kinds takes the source value.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, sv := range src {
		if dv, ok := out[k]; ok {
			if dm, dok := dv.(map[string]any); dok {
				if sm, sok := sv.(map[string]any); sok {
					out[k] = deepMerge(dm, sm)
					continue
				}
			}
			if da, dok := dv.([]any); dok {
				if sa, sok := sv.([]any); sok {
					out[k] = unionArrays(da, sa)
					continue
				}
			}
		}
		out[k] = sv
	}
	return out
}

// unionArrays appends the source elements that are not already present,
// comparing by deep equality so arrays of objects dedupe too.
func unionArrays(dst, src []any) []any {
	out := make([]any, 0, len(dst)+len(src))
	out = append(out, dst...)
	for _, sv := range src {
		if !containsValue(out, sv) {
			out = append(out, sv)
		}
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// writeFile writes content with a guaranteed trailing newline, creating
// parent directories as needed.
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
