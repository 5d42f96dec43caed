package configmerge

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"
)

// MergeYAML merges updates into the YAML document at path with the same
// semantics as MergeJSON: deep merge for mappings, union for sequences,
// source wins elsewhere. Output uses two-space indentation.
func MergeYAML(path string, updates map[string]any, strategy Strategy) ([]Warning, error) {
	merged := updates
	var warnings []Warning
	if strategy == Merge {
		existing, warn := readYAMLMapping(path)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		merged = deepMerge(existing, updates)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(merged); err != nil {
		return warnings, err
	}
	if err := enc.Close(); err != nil {
		return warnings, err
	}
	return warnings, writeFile(path, buf.String())
}

func readYAMLMapping(path string) (map[string]any, *Warning) {
	data, err := os.ReadFile(path)
	if err != nil {
		if notExist(err) {
			return map[string]any{}, nil
		}
		return map[string]any{}, &Warning{Path: path, Message: "could not read existing file, overwriting: " + err.Error()}
	}
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return map[string]any{}, &Warning{Path: path, Message: "existing file is not valid YAML, overwriting"}
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}
