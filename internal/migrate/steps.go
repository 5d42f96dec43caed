package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/at3-stack/at3/internal/configmerge"
	"github.com/at3-stack/at3/internal/detect"
)

const (
	tailwindVersion        = "^4.1.0"
	tailwindPostcssVersion = "^4.1.0"
	biomeVersion           = "^1.9.4"
)

const nextConfigTS = `import type { NextConfig } from "next";

const nextConfig: NextConfig = {
  reactStrictMode: true,
};

export default nextConfig;
`

const nextConfigMJS = `/** @type {import('next').NextConfig} */
const nextConfig = {
  reactStrictMode: true,
};

export default nextConfig;
`

const postcssConfigMJS = `const config = {
  plugins: ["@tailwindcss/postcss"],
};

export default config;
`

const tailwindGlobalsCSS = `@import "tailwindcss";

:root {
  --background: #ffffff;
  --foreground: #171717;
}

@theme inline {
  --color-background: var(--background);
  --color-foreground: var(--foreground);
}

@media (prefers-color-scheme: dark) {
  :root {
    --background: #0a0a0a;
    --foreground: #ededed;
  }
}
`

// nextConfigStep makes sure the project has a Next.js config file. An
// existing config is code the user owns, so it is never rewritten.
func nextConfigStep() Step {
	return Step{
		ID:          "next-config",
		Name:        "Next.js configuration",
		Description: "Create a Next.js config file when the project has none",
		Required:    true,
		Run: func(c *Context) error {
			for _, name := range []string{"next.config.ts", "next.config.mjs", "next.config.js"} {
				if c.Info.HasConfigFile(name) {
					c.Notef("%s already present", name)
					return nil
				}
			}
			name, content := "next.config.mjs", nextConfigMJS
			if c.Info.TypeScript {
				name, content = "next.config.ts", nextConfigTS
			}
			if err := configmerge.MergeText(filepath.Join(c.ProjectDir, name), content, configmerge.Overwrite); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			c.Notef("created %s", name)
			return nil
		},
	}
}

// tailwindStep moves a Tailwind project to v4: the PostCSS plugin package,
// an ESM PostCSS config, and CSS-first configuration in globals.css.
func tailwindStep() Step {
	return Step{
		ID:          "tailwind-v4",
		Name:        "Tailwind CSS v4",
		Description: "Switch to @tailwindcss/postcss and CSS-first configuration",
		Run: func(c *Context) error {
			warns, err := configmerge.MergePackageJSON(filepath.Join(c.ProjectDir, "package.json"), configmerge.PackageUpdates{
				DevDependencies: map[string]string{
					"tailwindcss":          tailwindVersion,
					"@tailwindcss/postcss": tailwindPostcssVersion,
				},
				RemoveDependencies: []string{"autoprefixer"},
			})
			c.mergeWarnings(warns)
			if err != nil {
				return fmt.Errorf("updating package.json: %w", err)
			}

			// v3 setups leave CommonJS postcss configs behind; only one
			// config file may remain.
			for _, old := range []string{"postcss.config.js", "postcss.config.cjs"} {
				if err := os.Remove(filepath.Join(c.ProjectDir, old)); err == nil {
					c.Notef("removed %s", old)
				}
			}
			if err := configmerge.MergeText(filepath.Join(c.ProjectDir, "postcss.config.mjs"), postcssConfigMJS, configmerge.Overwrite); err != nil {
				return fmt.Errorf("writing postcss.config.mjs: %w", err)
			}

			cssRel := globalsCSSPath(c.Info)
			if err := configmerge.MergeCSS(filepath.Join(c.ProjectDir, filepath.FromSlash(cssRel)), tailwindGlobalsCSS); err != nil {
				return fmt.Errorf("updating %s: %w", cssRel, err)
			}
			c.Notef("updated %s", cssRel)
			return nil
		},
	}
}

// globalsCSSPath finds the project stylesheet, or picks where it belongs
// based on the router layout when none exists yet.
func globalsCSSPath(info *detect.ProjectInfo) string {
	candidates := []string{"app/globals.css", "src/app/globals.css", "styles/globals.css", "src/styles/globals.css"}
	for _, rel := range candidates {
		if _, err := os.Stat(filepath.Join(info.Path, filepath.FromSlash(rel))); err == nil {
			return rel
		}
	}
	if info.SrcDirectory {
		return "src/app/globals.css"
	}
	return "app/globals.css"
}

var lintConfigFiles = []string{
	".eslintrc",
	".eslintrc.js",
	".eslintrc.cjs",
	".eslintrc.json",
	".eslintrc.yml",
	".eslintrc.yaml",
	"eslint.config.js",
	"eslint.config.mjs",
	".eslintignore",
	".prettierrc",
	".prettierrc.js",
	".prettierrc.cjs",
	".prettierrc.json",
	".prettierrc.yml",
	".prettierrc.yaml",
	"prettier.config.js",
	"prettier.config.cjs",
	".prettierignore",
}

var lintDepPrefixes = []string{"eslint", "prettier", "@typescript-eslint/", "@eslint/"}

var biomeConfig = map[string]any{
	"$schema": "https://biomejs.dev/schemas/1.9.4/schema.json",
	"organizeImports": map[string]any{
		"enabled": true,
	},
	"formatter": map[string]any{
		"enabled":     true,
		"indentStyle": "space",
		"indentWidth": 2,
	},
	"linter": map[string]any{
		"enabled": true,
		"rules": map[string]any{
			"recommended": true,
		},
	},
	"javascript": map[string]any{
		"formatter": map[string]any{
			"quoteStyle": "double",
		},
	},
}

// lintingStep swaps ESLint and Prettier for Biome: config files deleted,
// packages removed, biome.json merged in, scripts rewired.
func lintingStep() Step {
	return Step{
		ID:          "replace-linting",
		Name:        "Linting with Biome",
		Description: "Replace ESLint and Prettier with Biome",
		Run: func(c *Context) error {
			for _, name := range lintConfigFiles {
				if err := os.Remove(filepath.Join(c.ProjectDir, name)); err == nil {
					c.Notef("removed %s", name)
				}
			}

			warns, err := configmerge.MergeJSON(filepath.Join(c.ProjectDir, "biome.json"), biomeConfig, configmerge.Merge)
			c.mergeWarnings(warns)
			if err != nil {
				return fmt.Errorf("writing biome.json: %w", err)
			}

			warns, err = configmerge.MergePackageJSON(filepath.Join(c.ProjectDir, "package.json"), configmerge.PackageUpdates{
				DevDependencies:    map[string]string{"@biomejs/biome": biomeVersion},
				RemoveDependencies: lintPackages(c.Info),
				Scripts: map[string]string{
					"lint":   "biome check .",
					"format": "biome format --write .",
				},
			})
			c.mergeWarnings(warns)
			if err != nil {
				return fmt.Errorf("updating package.json: %w", err)
			}
			return nil
		},
	}
}

// lintPackages lists the ESLint and Prettier packages the project declares,
// so removal only touches what is actually there.
func lintPackages(info *detect.ProjectInfo) []string {
	var names []string
	for _, dep := range info.Dependencies {
		for _, prefix := range lintDepPrefixes {
			if strings.HasPrefix(dep.Name, prefix) {
				names = append(names, dep.Name)
				break
			}
		}
	}
	return names
}

var tsconfigStrict = map[string]any{
	"compilerOptions": map[string]any{
		"strict":                   true,
		"noUncheckedIndexedAccess": true,
		"skipLibCheck":             true,
		"target":                   "ES2022",
	},
}

// tsconfigStep deep-merges the strict compiler settings into tsconfig.json,
// leaving everything the project already configures in place.
func tsconfigStep() Step {
	return Step{
		ID:          "tsconfig-strict",
		Name:        "TypeScript configuration",
		Description: "Merge strict compiler options into tsconfig.json",
		Run: func(c *Context) error {
			warns, err := configmerge.MergeJSON(filepath.Join(c.ProjectDir, "tsconfig.json"), tsconfigStrict, configmerge.Merge)
			c.mergeWarnings(warns)
			if err != nil {
				return fmt.Errorf("updating tsconfig.json: %w", err)
			}
			return nil
		},
	}
}

// targetVersions are the ranges the toolkit converges tracked packages to.
var targetVersions = map[string]string{
	"next":                  "^15.1.0",
	"react":                 "^19.0.0",
	"react-dom":             "^19.0.0",
	"typescript":            "^5.7.2",
	"tailwindcss":           tailwindVersion,
	"@types/react":          "^19.0.0",
	"@types/react-dom":      "^19.0.0",
	"@types/node":           "^22.10.0",
	"ai":                    "^4.0.0",
	"@supabase/supabase-js": "^2.47.0",
	"@supabase/ssr":         "^0.5.2",
}

// versionsStep bumps tracked dependencies the project declares to the
// target ranges, each in the block it was declared in.
func versionsStep() Step {
	return Step{
		ID:          "update-versions",
		Name:        "Dependency versions",
		Description: "Raise tracked dependencies to their target ranges",
		Run: func(c *Context) error {
			updates := configmerge.PackageUpdates{
				Dependencies:    map[string]string{},
				DevDependencies: map[string]string{},
			}
			for _, dep := range c.Info.Dependencies {
				target, tracked := targetVersions[dep.Name]
				if !tracked || dep.Version == target {
					continue
				}
				switch dep.Kind {
				case detect.KindDev:
					updates.DevDependencies[dep.Name] = target
				case detect.KindRuntime:
					updates.Dependencies[dep.Name] = target
				}
			}
			if updates.IsZero() {
				c.Notef("all tracked dependencies are already at their targets")
				return nil
			}
			warns, err := configmerge.MergePackageJSON(filepath.Join(c.ProjectDir, "package.json"), updates)
			c.mergeWarnings(warns)
			if err != nil {
				return fmt.Errorf("updating package.json: %w", err)
			}
			c.Notef("updated %d packages", len(updates.Dependencies)+len(updates.DevDependencies))
			return nil
		},
	}
}
