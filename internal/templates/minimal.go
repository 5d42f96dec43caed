package templates

import "github.com/at3-stack/at3/internal/pm"

// NewMinimalTemplate creates the bare template: Next.js App Router with
// TypeScript and Tailwind v4, nothing else.
func NewMinimalTemplate() *Template {
	return &Template{
		ID:          "minimal",
		Name:        "Minimal",
		Description: "Bare Next.js App Router with TypeScript and Tailwind v4",
		Version:     "1.0.0",
		Variables: []*Variable{
			{
				Name:        "projectName",
				Description: "Name of your application",
				Type:        VariableTypeString,
				Required:    true,
				Validation:  projectNamePattern,
				Prompt:      "Project name",
			},
			{
				Name:        "pm",
				Description: "Package manager used for installs and scripts",
				Type:        VariableTypeSelect,
				Default:     "pnpm",
				Options:     pm.Names(),
				Prompt:      "Package manager",
			},
		},
		Directories: []string{
			"app",
			"public",
		},
		Files: []*File{
			{
				Path:     "package.json",
				Template: true,
				Content: `{
  "name": "{{kebab .ProjectName}}",
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "dev": "next dev --turbopack",
    "build": "next build",
    "start": "next start"
  },
  "dependencies": {
    "next": "^15.1.0",
    "react": "^19.0.0",
    "react-dom": "^19.0.0"
  },
  "devDependencies": {
    "@tailwindcss/postcss": "^4.1.0",
    "@types/node": "^22.10.0",
    "@types/react": "^19.0.0",
    "@types/react-dom": "^19.0.0",
    "tailwindcss": "^4.1.0",
    "typescript": "^5.7.2"
  }
}
`,
			},
			{
				Path: "tsconfig.json",
				Content: `{
  "compilerOptions": {
    "target": "ES2022",
    "lib": ["dom", "dom.iterable", "esnext"],
    "allowJs": true,
    "skipLibCheck": true,
    "strict": true,
    "noUncheckedIndexedAccess": true,
    "noEmit": true,
    "esModuleInterop": true,
    "module": "esnext",
    "moduleResolution": "bundler",
    "resolveJsonModule": true,
    "isolatedModules": true,
    "jsx": "preserve",
    "incremental": true,
    "plugins": [{ "name": "next" }],
    "paths": { "@/*": ["./*"] }
  },
  "include": ["next-env.d.ts", "**/*.ts", "**/*.tsx", ".next/types/**/*.ts"],
  "exclude": ["node_modules"]
}
`,
			},
			{
				Path: "next.config.ts",
				Content: `import type { NextConfig } from "next";

const nextConfig: NextConfig = {
  reactStrictMode: true,
};

export default nextConfig;
`,
			},
			{
				Path: "postcss.config.mjs",
				Content: `const config = {
  plugins: ["@tailwindcss/postcss"],
};

export default config;
`,
			},
			{
				Path: "app/globals.css",
				Content: `@import "tailwindcss";
`,
			},
			{
				Path:     "app/layout.tsx",
				Template: true,
				Content: `import type { Metadata } from "next";
import "./globals.css";

export const metadata: Metadata = {
  title: "{{.ProjectName}}",
  description: "Generated by create-at3-app",
};

export default function RootLayout({
  children,
}: Readonly<{ children: React.ReactNode }>) {
  return (
    <html lang="en">
      <body className="antialiased">{children}</body>
    </html>
  );
}
`,
			},
			{
				Path:     "app/page.tsx",
				Template: true,
				Content: `export default function Home() {
  return (
    <main className="flex min-h-screen flex-col items-center justify-center gap-4">
      <h1 className="text-4xl font-bold">{{.ProjectName}}</h1>
      <p className="text-lg opacity-70">Edit app/page.tsx to get started.</p>
    </main>
  );
}
`,
			},
			{
				Path: ".gitignore",
				Content: `# dependencies
/node_modules

# next.js
/.next/
/out/

# env files
.env
.env.local
.env*.local

# misc
.DS_Store
*.tsbuildinfo
next-env.d.ts
`,
			},
			{
				Path:     "README.md",
				Template: true,
				Content: `# {{.ProjectName}}

A minimal Next.js app with TypeScript and Tailwind v4.

## Getting started

    {{.Variables.pm}} install
    {{.Variables.pm}} run dev

Open http://localhost:3000 to see your app.
`,
			},
		},
		Hooks: &Hooks{
			AfterCreate: []string{
				"cd {{.ProjectName}}",
				"{{.Variables.pm}} run dev",
			},
		},
	}
}
