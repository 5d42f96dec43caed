// Package feature holds the catalog of integrations at3-kit installs
// into existing Next.js projects, and the installer that applies them.
package feature

import (
	"fmt"

	"github.com/at3-stack/at3/internal/detect"
)

// EnvVar is an environment key an integration reads. Missing keys are
// appended to .env.example with the placeholder value.
type EnvVar struct {
	Key   string
	Value string
}

// File is a boilerplate file written into the project as-is.
type File struct {
	Path    string
	Content string
}

// Feature describes one installable integration.
type Feature struct {
	ID          string
	Name        string
	Description string
	Packages    map[string]string
	DevPackages map[string]string
	Scripts     map[string]string
	Files       []File
	EnvVars     []EnvVar

	// Detected reports whether the project already carries this
	// integration, so the wizard can hide it and the installer can
	// skip it.
	Detected func(info *detect.ProjectInfo) bool
}

// ByID resolves feature ids against the catalog, failing on the first
// unknown one.
func ByID(ids ...string) ([]*Feature, error) {
	catalog := Catalog()
	byID := make(map[string]*Feature, len(catalog))
	for _, f := range catalog {
		byID[f.ID] = f
	}

	feats := make([]*Feature, 0, len(ids))
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown feature %q (run `at3-kit list` to see the catalog)", id)
		}
		feats = append(feats, f)
	}
	return feats, nil
}

// Missing filters the catalog down to features the project does not
// already have.
func Missing(info *detect.ProjectInfo) []*Feature {
	var missing []*Feature
	for _, f := range Catalog() {
		if f.Detected != nil && f.Detected(info) {
			continue
		}
		missing = append(missing, f)
	}
	return missing
}

// IDs lists every catalog feature id in display order.
func IDs() []string {
	catalog := Catalog()
	ids := make([]string, 0, len(catalog))
	for _, f := range catalog {
		ids = append(ids, f.ID)
	}
	return ids
}
