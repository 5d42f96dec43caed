package detect

// ProjectType classifies what kind of JavaScript project a directory holds.
// Classification is by precedence: the first matching type wins, so an AT3
// project is never reported as plain Next.js even though it is one.
type ProjectType string

const (
	TypeAIT3E   ProjectType = "ait3e"
	TypeNextJS  ProjectType = "nextjs"
	TypeNuxt    ProjectType = "nuxt"
	TypeVue     ProjectType = "vue"
	TypeReact   ProjectType = "react"
	TypeVite    ProjectType = "vite"
	TypeWebpack ProjectType = "webpack"
	TypeNode    ProjectType = "node"
	TypeUnknown ProjectType = "unknown"
)

// PackageManager is the package manager a project is set up for.
type PackageManager string

const (
	NPM  PackageManager = "npm"
	PNPM PackageManager = "pnpm"
	Yarn PackageManager = "yarn"
	Bun  PackageManager = "bun"
)

// Lockfile maps a lockfile name to the package manager that owns it.
type Lockfile struct {
	File    string
	Manager PackageManager
}

// LockfilePrecedence is checked in order; the first lockfile present decides
// the package manager. Projects with no lockfile default to npm.
var LockfilePrecedence = []Lockfile{
	{"pnpm-lock.yaml", PNPM},
	{"yarn.lock", Yarn},
	{"bun.lockb", Bun},
	{"bun.lock", Bun},
	{"package-lock.json", NPM},
}

// AuthProvider identifies the authentication library a project uses.
type AuthProvider string

const (
	AuthSupabase   AuthProvider = "supabase"
	AuthClerk      AuthProvider = "clerk"
	AuthBetterAuth AuthProvider = "better-auth"
	AuthNextAuth   AuthProvider = "next-auth"
	AuthLucia      AuthProvider = "lucia"
	AuthNone       AuthProvider = "none"
)

// authPriority is the detection order; the first provider whose marker
// dependency is present wins.
var authPriority = []struct {
	provider AuthProvider
	deps     []string
}{
	{AuthSupabase, []string{"@supabase/ssr", "@supabase/auth-helpers-nextjs"}},
	{AuthClerk, []string{"@clerk/nextjs", "@clerk/clerk-react"}},
	{AuthBetterAuth, []string{"better-auth"}},
	{AuthNextAuth, []string{"next-auth", "@auth/core"}},
	{AuthLucia, []string{"lucia"}},
}

// TriState is a yes/no answer that can also be unknown, for checks whose
// inputs may be unreadable. Unknown is reported rather than silently
// collapsed to no.
type TriState int

const (
	No TriState = iota
	Yes
	Unknown
)

func (t TriState) String() string {
	switch t {
	case Yes:
		return "yes"
	case Unknown:
		return "unknown"
	default:
		return "no"
	}
}

// MarshalJSON encodes the state as its lowercase word form.
func (t TriState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// DependencyKind says which package.json block declared a dependency.
type DependencyKind string

const (
	KindRuntime DependencyKind = "dependencies"
	KindDev     DependencyKind = "devDependencies"
	KindPeer    DependencyKind = "peerDependencies"
)

// Dependency is one declared package, with the version actually installed
// under node_modules when that could be resolved.
type Dependency struct {
	Name             string         `json:"name"`
	Version          string         `json:"version"`
	Kind             DependencyKind `json:"kind"`
	InstalledVersion string         `json:"installedVersion,omitempty"`
}

// ProjectInfo is the full fingerprint of a project directory. Dependencies
// keep their package.json declaration order; ConfigFiles keep catalog order.
type ProjectInfo struct {
	Path           string         `json:"path"`
	Type           ProjectType    `json:"type"`
	PackageManager PackageManager `json:"packageManager"`
	Dependencies   []Dependency   `json:"dependencies"`
	ConfigFiles    []string       `json:"configFiles"`

	TypeScript   bool `json:"typescript"`
	Tailwind     bool `json:"tailwind"`
	AppRouter    bool `json:"appRouter"`
	PagesRouter  bool `json:"pagesRouter"`
	SrcDirectory bool `json:"srcDirectory"`
	Supabase     bool `json:"supabase"`
	AI           bool `json:"ai"`
	PWA          bool `json:"pwa"`
	I18n         bool `json:"i18n"`
	Biome        bool `json:"biome"`
	ESLint       bool `json:"eslint"`
	Prettier     bool `json:"prettier"`
	Drizzle      bool `json:"drizzle"`
	EdgeRuntime  bool `json:"edgeRuntime"`

	VectorStore  TriState     `json:"vectorStore"`
	AuthProvider AuthProvider `json:"authProvider"`
	EnvFiles     []string     `json:"envFiles"`
}

// HasDependency reports whether the project declares the named package in
// any dependency block.
func (p *ProjectInfo) HasDependency(name string) bool {
	for _, dep := range p.Dependencies {
		if dep.Name == name {
			return true
		}
	}
	return false
}

// DependencyVersion returns the declared version range for a package, or ""
// when it is not declared.
func (p *ProjectInfo) DependencyVersion(name string) string {
	for _, dep := range p.Dependencies {
		if dep.Name == name {
			return dep.Version
		}
	}
	return ""
}

// HasConfigFile reports whether the named config file was found.
func (p *ProjectInfo) HasConfigFile(name string) bool {
	for _, f := range p.ConfigFiles {
		if f == name {
			return true
		}
	}
	return false
}

// IsNext reports whether the project is Next.js-based, including the AT3
// composite type.
func (p *ProjectInfo) IsNext() bool {
	return p.Type == TypeNextJS || p.Type == TypeAIT3E
}
