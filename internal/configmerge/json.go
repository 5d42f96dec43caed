package configmerge

import (
	"encoding/json"
	"os"
)

// MergeJSON merges updates into the JSON object at path, or overwrites it,
// and writes the result with two-space indentation. An existing file that
// cannot be read or parsed is reported as a warning and treated as empty so
// a broken config never blocks a migration.
func MergeJSON(path string, updates map[string]any, strategy Strategy) ([]Warning, error) {
	merged := updates
	var warnings []Warning
	if strategy == Merge {
		existing, warn := readJSONObject(path)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		merged = deepMerge(existing, updates)
	}
	return warnings, writeJSON(path, merged)
}

// readJSONObject loads the object at path. Absence is normal and yields an
// empty object; unreadable or malformed content yields an empty object plus
// a warning.
func readJSONObject(path string) (map[string]any, *Warning) {
	data, err := os.ReadFile(path)
	if err != nil {
		if notExist(err) {
			return map[string]any{}, nil
		}
		return map[string]any{}, &Warning{Path: path, Message: "could not read existing file, overwriting: " + err.Error()}
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return map[string]any{}, &Warning{Path: path, Message: "existing file is not valid JSON, overwriting"}
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, string(data))
}
