package detect

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
)

// PackageJSON is the subset of package.json fields the tools read.
type PackageJSON struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Private          bool              `json:"private"`
	PackageManager   string            `json:"packageManager"`
	Scripts          map[string]string `json:"scripts"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// ParsePackageJSON decodes a package.json document.
func ParsePackageJSON(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

var dependencyBlocks = map[string]DependencyKind{
	"dependencies":     KindRuntime,
	"devDependencies":  KindDev,
	"peerDependencies": KindPeer,
}

// orderedDependencies extracts the dependency blocks preserving declaration
// order: the dependencies block first, then devDependencies, then
// peerDependencies, each in package.json key order. encoding/json map
// decoding discards that order, so this walks the token stream.
func orderedDependencies(data []byte) ([]Dependency, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top level is not an object")
	}

	blocks := map[DependencyKind][]Dependency{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		kind, isBlock := dependencyBlocks[key]
		if !isBlock {
			continue
		}
		deps, err := decodeOrderedBlock(raw, kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		blocks[kind] = deps
	}

	var out []Dependency
	for _, kind := range []DependencyKind{KindRuntime, KindDev, KindPeer} {
		out = append(out, blocks[kind]...)
	}
	return out, nil
}

// decodeOrderedBlock decodes one dependency object, keeping key order.
// Non-object blocks and non-string versions are tolerated and skipped.
func decodeOrderedBlock(raw json.RawMessage, kind DependencyKind) ([]Dependency, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}

	var deps []Dependency
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)

		var rawVersion json.RawMessage
		if err := dec.Decode(&rawVersion); err != nil {
			return nil, err
		}
		var version string
		if err := json.Unmarshal(rawVersion, &version); err != nil {
			continue
		}
		deps = append(deps, Dependency{Name: name, Version: version, Kind: kind})
	}
	return deps, nil
}

// installedVersion resolves the version actually present under node_modules.
// Missing or unreadable packages are normal (not installed yet) and resolve
// to the empty string; detection never fails on them.
func (d *Detector) installedVersion(root, name string) string {
	path := filepath.Join(root, "node_modules", name, "package.json")
	data, err := d.fs.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger.Debug("installed version unreadable",
				zap.String("package", name), zap.Error(err))
		}
		return ""
	}
	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		d.logger.Debug("installed package.json malformed",
			zap.String("package", name), zap.Error(err))
		return ""
	}
	return pkg.Version
}
