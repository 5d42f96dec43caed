package configmerge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMergeYAMLIntoExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pnpm-workspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - apps/*\nshamefullyHoist: false\n"), 0o644))

	warnings, err := MergeYAML(path, map[string]any{
		"packages":        []any{"apps/*", "packages/*"},
		"shamefullyHoist": true,
	}, Merge)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))

	assert.ElementsMatch(t, []any{"apps/*", "packages/*"}, got["packages"], "sequence union dedupes")
	assert.Equal(t, true, got["shamefullyHoist"])
}

func TestMergeYAMLCorruptFileWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: [unclosed\n"), 0o644))

	warnings, err := MergeYAML(path, map[string]any{"key": "value"}, Merge)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "not valid YAML")
}

func TestMergeYAMLMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "app.yaml")

	warnings, err := MergeYAML(path, map[string]any{
		"settings": map[string]any{"colorMode": "dark"},
	}, Merge)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	settings := got["settings"].(map[string]any)
	assert.Equal(t, "dark", settings["colorMode"])
}
