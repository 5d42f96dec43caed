// Package db applies a project's supabase/migrations to Postgres and
// reports which ones have run. Everything that touches SQL takes a
// *sql.DB so tests can run against a mock driver.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/joho/godotenv"
)

// MigrationsDir is where scaffolded projects keep their SQL, relative
// to the project root.
const MigrationsDir = "supabase/migrations"

// maxMigrationSize rejects files that are clearly not migrations.
const maxMigrationSize = 10 * 1024 * 1024

// ResolveURL finds the database URL: process environment first, then
// the project's .env.local and .env. Returns "" when nothing is set.
func ResolveURL(projectDir string) string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	for _, name := range []string{".env.local", ".env"} {
		env, err := godotenv.Read(filepath.Join(projectDir, name))
		if err != nil {
			continue
		}
		if url := env["DATABASE_URL"]; url != "" {
			return url
		}
	}
	return ""
}

// Open connects to Postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migration is one SQL file and whether it has been applied.
type Migration struct {
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

// ListMigrations returns the project's migration file names in apply
// order. Supabase names files with a sortable timestamp prefix.
func ListMigrations(projectDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(projectDir, filepath.FromSlash(MigrationsDir), "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// ensureMigrationsTable creates the bookkeeping table on first use.
func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	query := `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// appliedSet returns the names already recorded in schema_migrations.
func appliedSet(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM schema_migrations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
