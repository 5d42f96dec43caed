package detect

// knownConfigFiles is the catalog of config files the detector looks for.
// Entries are checked as exact paths relative to the project root, never
// recursively, and reported in catalog order.
var knownConfigFiles = []string{
	"next.config.js",
	"next.config.mjs",
	"next.config.ts",
	"tailwind.config.js",
	"tailwind.config.cjs",
	"tailwind.config.mjs",
	"tailwind.config.ts",
	"postcss.config.js",
	"postcss.config.cjs",
	"postcss.config.mjs",
	"tsconfig.json",
	"jsconfig.json",
	"biome.json",
	"biome.jsonc",
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
	"vite.config.js",
	"vite.config.ts",
	"webpack.config.js",
	"nuxt.config.js",
	"nuxt.config.ts",
	"vue.config.js",
	"svelte.config.js",
	"astro.config.mjs",
	"remix.config.js",
	"babel.config.js",
	".babelrc",
	"vitest.config.ts",
	"vitest.config.js",
	"jest.config.js",
	"jest.config.ts",
	"playwright.config.ts",
	"cypress.config.ts",
	"drizzle.config.ts",
	"drizzle.config.js",
	"prisma/schema.prisma",
	"supabase/config.toml",
	"components.json",
	"middleware.ts",
	"middleware.js",
	"src/middleware.ts",
	"turbo.json",
	"vercel.json",
	"netlify.toml",
	"pnpm-workspace.yaml",
	".npmrc",
	".nvmrc",
	"bunfig.toml",
	"Dockerfile",
	"docker-compose.yml",
}

// knownEnvFiles are reported separately from config files since several
// commands (db, ai) read them for credentials.
var knownEnvFiles = []string{
	".env",
	".env.local",
	".env.development",
	".env.development.local",
	".env.production",
	".env.production.local",
	".env.example",
}
