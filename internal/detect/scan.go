package detect

import (
	"errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

// edgeRuntimeRe matches the Next.js segment config export, in either quote
// style: export const runtime = 'edge'.
var edgeRuntimeRe = regexp.MustCompile(`runtime\s*=\s*["']edge["']`)

// apiDirs are the route directories scanned for edge runtime declarations.
var apiDirs = []string{
	"app/api",
	"pages/api",
	"src/app/api",
	"src/pages/api",
}

// detectEdgeRuntime reports whether any API route opts into the edge
// runtime. The scan is recursive but bounded to the API directories and
// only reads .ts and .js sources.
func (d *Detector) detectEdgeRuntime(root string) bool {
	for _, dir := range apiDirs {
		if d.scanEdge(filepath.Join(root, filepath.FromSlash(dir))) {
			return true
		}
	}
	return false
}

func (d *Detector) scanEdge(dir string) bool {
	entries, err := d.fs.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if d.scanEdge(path) {
				return true
			}
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".ts" && ext != ".js" {
			continue
		}
		data, err := d.fs.ReadFile(path)
		if err != nil {
			continue
		}
		if edgeRuntimeRe.Match(data) {
			return true
		}
	}
	return false
}

// vectorMarkers are substrings that identify pgvector usage in a migration.
var vectorMarkers = []string{"pgvector", "vector", "embedding"}

// detectVectorStore scans supabase/migrations for pgvector usage. A missing
// migrations directory is a definitive No; an unreadable directory or file
// makes the answer Unknown, since the migrations could not be inspected. A
// positive match in any readable file wins over read failures elsewhere.
func (d *Detector) detectVectorStore(root string) TriState {
	dir := filepath.Join(root, "supabase", "migrations")
	entries, err := d.fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return No
		}
		return Unknown
	}

	sawReadError := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := d.fs.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			sawReadError = true
			continue
		}
		content := strings.ToLower(string(data))
		for _, marker := range vectorMarkers {
			if strings.Contains(content, marker) {
				return Yes
			}
		}
	}
	if sawReadError {
		return Unknown
	}
	return No
}
