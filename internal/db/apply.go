package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Applier runs migrations against one database.
type Applier struct {
	db     *sql.DB
	logger *zap.Logger
	out    io.Writer
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) ApplierOption {
	return func(a *Applier) { a.logger = logger }
}

// WithOutput redirects per-migration status lines.
func WithOutput(w io.Writer) ApplierOption {
	return func(a *Applier) { a.out = w }
}

// NewApplier wraps an open database connection.
func NewApplier(db *sql.DB, opts ...ApplierOption) *Applier {
	a := &Applier{
		db:     db,
		logger: zap.NewNop(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Status lists the project's migrations with their applied state, in
// apply order.
func (a *Applier) Status(ctx context.Context, projectDir string) ([]Migration, error) {
	if err := ensureMigrationsTable(ctx, a.db); err != nil {
		return nil, err
	}
	applied, err := appliedSet(ctx, a.db)
	if err != nil {
		return nil, err
	}
	names, err := ListMigrations(projectDir)
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		migrations = append(migrations, Migration{Name: name, Applied: applied[name]})
	}
	return migrations, nil
}

// Push applies every pending migration, one transaction per file, and
// returns how many ran. A failed migration stops the run; everything
// applied before it stays applied.
func (a *Applier) Push(ctx context.Context, projectDir string) (int, error) {
	if err := ensureMigrationsTable(ctx, a.db); err != nil {
		return 0, err
	}
	applied, err := appliedSet(ctx, a.db)
	if err != nil {
		return 0, err
	}
	names, err := ListMigrations(projectDir)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		fmt.Fprintf(a.out, "No migration files found in %s/\n", MigrationsDir)
		return 0, nil
	}

	count := 0
	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := a.applyOne(ctx, projectDir, name); err != nil {
			return count, err
		}
		count++
		fmt.Fprintf(a.out, "  ✓ Applied %s\n", name)
	}

	if count == 0 {
		fmt.Fprintln(a.out, "No pending migrations.")
	} else {
		fmt.Fprintf(a.out, "✓ Applied %d migration(s)\n", count)
	}
	return count, nil
}

func (a *Applier) applyOne(ctx context.Context, projectDir, name string) error {
	path := filepath.Join(projectDir, filepath.FromSlash(MigrationsDir), name)

	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	if fi.Size() > maxMigrationSize {
		return fmt.Errorf("migration %s exceeds maximum size", name)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", name, err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		tx.Rollback()
		// The database error can quote the offending SQL, so keep it
		// out of the user-facing message.
		a.logger.Debug("migration failed", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("migration %s failed (check database logs for details)", name)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", name, err)
	}
	return nil
}
