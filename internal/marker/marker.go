// Package marker reads and writes .at3-config.json, the advisory file that
// records which AT3 tools touched a project. Nothing may fail because the
// marker is missing or mangled; it exists for the tools and the user, not
// for correctness.
package marker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the marker file at the project root.
const FileName = ".at3-config.json"

// FormatVersion is bumped when the marker schema changes.
const FormatVersion = "1"

// Marker is the recorded state.
type Marker struct {
	Version       string   `json:"version"`
	Created       string   `json:"created"`
	Template      string   `json:"template,omitempty"`
	Features      []string `json:"features"`
	ToolsUsed     []string `json:"toolsUsed"`
	LastMigration string   `json:"lastMigration,omitempty"`
}

// New returns a marker stamped now.
func New() *Marker {
	return &Marker{
		Version:   FormatVersion,
		Created:   time.Now().UTC().Format(time.RFC3339),
		Features:  []string{},
		ToolsUsed: []string{},
	}
}

// Read loads the marker for a project. A missing file returns (nil, nil); a
// corrupt one returns an error the caller should treat as a warning at most.
func Read(projectDir string) (*Marker, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return &m, nil
}

// Write persists the marker atomically.
func (m *Marker) Write(projectDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}
	path := filepath.Join(projectDir, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}

// Record applies update to the project's marker, creating it first when the
// project has none. A corrupt marker is replaced rather than propagated.
func Record(projectDir string, update func(*Marker)) error {
	m, err := Read(projectDir)
	if m == nil || err != nil {
		m = New()
	}
	update(m)
	return m.Write(projectDir)
}

// RecordTool notes that a tool ran against the project.
func RecordTool(projectDir, tool string) error {
	return Record(projectDir, func(m *Marker) {
		m.ToolsUsed = appendUnique(m.ToolsUsed, tool)
	})
}

// RecordMigration notes the most recent migration id.
func RecordMigration(projectDir, tool, migrationID string) error {
	return Record(projectDir, func(m *Marker) {
		m.ToolsUsed = appendUnique(m.ToolsUsed, tool)
		m.LastMigration = migrationID
	})
}

// RecordFeatures notes installed integrations.
func RecordFeatures(projectDir, tool string, features []string) error {
	return Record(projectDir, func(m *Marker) {
		m.ToolsUsed = appendUnique(m.ToolsUsed, tool)
		for _, f := range features {
			m.Features = appendUnique(m.Features, f)
		}
	})
}

// RecordTemplate notes which template scaffolded the project and the
// features it was generated with.
func RecordTemplate(projectDir, tool, template string, features []string) error {
	return Record(projectDir, func(m *Marker) {
		m.ToolsUsed = appendUnique(m.ToolsUsed, tool)
		m.Template = template
		for _, f := range features {
			m.Features = appendUnique(m.Features, f)
		}
	})
}

func appendUnique(list []string, v string) []string {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append(list, v)
}
