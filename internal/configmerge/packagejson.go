package configmerge

// PackageUpdates describes a change to package.json. Removals run first, so
// a single update can swap one toolchain for another: RemoveDependencies
// drops the old packages from both dependency blocks, then the remaining
// fields deep-merge in.
type PackageUpdates struct {
	Dependencies       map[string]string
	DevDependencies    map[string]string
	Scripts            map[string]string
	RemoveDependencies []string
	RemoveScripts      []string
	Extra              map[string]any
}

// IsZero reports whether the update would change nothing.
func (u PackageUpdates) IsZero() bool {
	return len(u.Dependencies) == 0 && len(u.DevDependencies) == 0 &&
		len(u.Scripts) == 0 && len(u.RemoveDependencies) == 0 &&
		len(u.RemoveScripts) == 0 && len(u.Extra) == 0
}

// MergePackageJSON applies updates to the package.json at path. A missing
// file starts from an empty manifest; a corrupt one is overwritten with a
// warning, matching MergeJSON.
func MergePackageJSON(path string, updates PackageUpdates) ([]Warning, error) {
	existing, warn := readJSONObject(path)
	var warnings []Warning
	if warn != nil {
		warnings = append(warnings, *warn)
	}

	for _, name := range updates.RemoveDependencies {
		for _, block := range []string{"dependencies", "devDependencies"} {
			if deps, ok := existing[block].(map[string]any); ok {
				delete(deps, name)
			}
		}
	}
	for _, name := range updates.RemoveScripts {
		if scripts, ok := existing["scripts"].(map[string]any); ok {
			delete(scripts, name)
		}
	}

	src := map[string]any{}
	if len(updates.Dependencies) > 0 {
		src["dependencies"] = stringMapToAny(updates.Dependencies)
	}
	if len(updates.DevDependencies) > 0 {
		src["devDependencies"] = stringMapToAny(updates.DevDependencies)
	}
	if len(updates.Scripts) > 0 {
		src["scripts"] = stringMapToAny(updates.Scripts)
	}
	for k, v := range updates.Extra {
		src[k] = v
	}

	return warnings, writeJSON(path, deepMerge(existing, src))
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
