// Package detect fingerprints JavaScript projects: framework, package
// manager, dependencies, config files, and the feature set relevant to the
// AT3 stack. All other tools start from a ProjectInfo produced here.
package detect

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrPathNotFound means the target directory does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNoPackageJSON means the directory exists but holds no package.json,
	// so it is not a JavaScript project the tools can work on.
	ErrNoPackageJSON = errors.New("no package.json found")
)

// Detector inspects project directories. The zero value is not usable; use
// New.
type Detector struct {
	fs     FileSystem
	logger *zap.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithFileSystem replaces the filesystem the detector reads from.
func WithFileSystem(fs FileSystem) Option {
	return func(d *Detector) { d.fs = fs }
}

// WithLogger sets the debug logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// New returns a Detector reading from the host filesystem unless configured
// otherwise.
func New(opts ...Option) *Detector {
	d := &Detector{fs: OSFileSystem, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect fingerprints the project at path.
//
// The path must exist and contain a package.json; those failures return
// ErrPathNotFound and ErrNoPackageJSON respectively. A package.json that
// cannot be parsed is an error. Everything else is best effort: unreadable
// node_modules entries leave installed versions empty, and an unreadable
// migrations directory reports the vector store as Unknown rather than
// guessing.
func (d *Detector) Detect(path string) (*ProjectInfo, error) {
	if !d.dirExists(path) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	pkgPath := filepath.Join(path, "package.json")
	data, err := d.fs.ReadFile(pkgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPackageJSON, path)
	}
	if _, err := ParsePackageJSON(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pkgPath, err)
	}
	deps, err := orderedDependencies(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pkgPath, err)
	}
	for i := range deps {
		deps[i].InstalledVersion = d.installedVersion(path, deps[i].Name)
	}

	info := &ProjectInfo{
		Path:           path,
		PackageManager: d.packageManager(path),
		Dependencies:   deps,
		ConfigFiles:    d.configFiles(path),
		EnvFiles:       d.envFiles(path),
	}
	d.detectFeatures(info)
	info.EdgeRuntime = d.detectEdgeRuntime(path)
	info.VectorStore = d.detectVectorStore(path)
	info.AuthProvider = detectAuthProvider(info)
	info.Type = classify(info)

	d.logger.Debug("project detected",
		zap.String("path", path),
		zap.String("type", string(info.Type)),
		zap.String("packageManager", string(info.PackageManager)),
		zap.Int("dependencies", len(info.Dependencies)))
	return info, nil
}

func (d *Detector) packageManager(root string) PackageManager {
	for _, lf := range LockfilePrecedence {
		if d.fileExists(filepath.Join(root, lf.File)) {
			return lf.Manager
		}
	}
	return NPM
}

func (d *Detector) configFiles(root string) []string {
	var found []string
	for _, name := range knownConfigFiles {
		if d.fileExists(filepath.Join(root, filepath.FromSlash(name))) {
			found = append(found, name)
		}
	}
	return found
}

func (d *Detector) envFiles(root string) []string {
	var found []string
	for _, name := range knownEnvFiles {
		if d.fileExists(filepath.Join(root, name)) {
			found = append(found, name)
		}
	}
	return found
}

// detectFeatures fills the independent feature flags. Each flag stands on
// its own: dependency markers first, then the config files that imply the
// feature even when the dependency is missing.
func (d *Detector) detectFeatures(info *ProjectInfo) {
	root := info.Path
	hasPrefix := func(prefix string) bool {
		for _, dep := range info.Dependencies {
			if strings.HasPrefix(dep.Name, prefix) {
				return true
			}
		}
		return false
	}

	info.TypeScript = info.HasDependency("typescript") || info.HasConfigFile("tsconfig.json")
	info.Tailwind = info.HasDependency("tailwindcss") ||
		hasConfigPrefix(info, "tailwind.config.")
	info.SrcDirectory = d.dirExists(filepath.Join(root, "src"))
	info.AppRouter = d.hasAppRouter(root)
	info.PagesRouter = d.dirExists(filepath.Join(root, "pages")) ||
		d.dirExists(filepath.Join(root, "src", "pages"))
	info.Supabase = hasPrefix("@supabase/") || d.dirExists(filepath.Join(root, "supabase"))
	info.AI = info.HasDependency("ai") || hasPrefix("@ai-sdk/") ||
		info.HasDependency("openai") || info.HasDependency("@anthropic-ai/sdk") ||
		info.HasDependency("@google/generative-ai") || info.HasDependency("@google/genai") ||
		hasPrefix("langchain")
	info.PWA = info.HasDependency("next-pwa") || info.HasDependency("@ducanh2912/next-pwa") ||
		d.fileExists(filepath.Join(root, "public", "manifest.json"))
	info.I18n = info.HasDependency("next-intl") || info.HasDependency("next-i18next") ||
		info.HasDependency("react-i18next")
	info.Biome = info.HasDependency("@biomejs/biome") ||
		info.HasConfigFile("biome.json") || info.HasConfigFile("biome.jsonc")
	info.ESLint = info.HasDependency("eslint") || hasConfigPrefix(info, ".eslintrc") ||
		hasConfigPrefix(info, "eslint.config.")
	info.Prettier = info.HasDependency("prettier") || hasConfigPrefix(info, ".prettierrc") ||
		hasConfigPrefix(info, "prettier.config.")
	info.Drizzle = info.HasDependency("drizzle-orm") || hasConfigPrefix(info, "drizzle.config.")
}

// hasAppRouter checks for an app router directory carrying a root layout,
// so a stray empty app/ directory does not count.
func (d *Detector) hasAppRouter(root string) bool {
	for _, base := range []string{filepath.Join(root, "app"), filepath.Join(root, "src", "app")} {
		if !d.dirExists(base) {
			continue
		}
		for _, layout := range []string{"layout.tsx", "layout.ts", "layout.jsx", "layout.js"} {
			if d.fileExists(filepath.Join(base, layout)) {
				return true
			}
		}
	}
	return false
}

func hasConfigPrefix(info *ProjectInfo, prefix string) bool {
	for _, f := range info.ConfigFiles {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

func detectAuthProvider(info *ProjectInfo) AuthProvider {
	for _, candidate := range authPriority {
		for _, dep := range candidate.deps {
			if info.HasDependency(dep) {
				return candidate.provider
			}
		}
	}
	return AuthNone
}

// classify picks the project type by precedence. The AT3 composite comes
// first: AI plus Supabase on Next.js with Tailwind or TypeScript.
func classify(info *ProjectInfo) ProjectType {
	hasNext := info.HasDependency("next")
	switch {
	case hasNext && info.AI && info.Supabase && (info.Tailwind || info.TypeScript):
		return TypeAIT3E
	case hasNext || hasConfigPrefix(info, "next.config."):
		return TypeNextJS
	case info.HasDependency("nuxt") || hasConfigPrefix(info, "nuxt.config."):
		return TypeNuxt
	case info.HasDependency("vue") || info.HasConfigFile("vue.config.js"):
		return TypeVue
	case info.HasDependency("react"):
		return TypeReact
	case info.HasDependency("vite") || hasConfigPrefix(info, "vite.config."):
		return TypeVite
	case info.HasDependency("webpack") || info.HasConfigFile("webpack.config.js"):
		return TypeWebpack
	case len(info.Dependencies) > 0:
		return TypeNode
	default:
		return TypeUnknown
	}
}
