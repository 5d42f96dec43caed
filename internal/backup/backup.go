// Package backup snapshots the files a migration may touch into timestamped
// directories under .migration-backup, and restores them on rollback.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DirName is the backup store directory at the project root.
	DirName  = ".migration-backup"
	infoFile = "backup-info.json"
	// timeLayout keeps directory names lexicographically sortable and free
	// of colons, so name order equals chronological order on any filesystem.
	timeLayout = "2006-01-02T15-04-05"
)

// candidateFiles are the paths a migration may modify, checked relative to
// the project root. Only those that exist get copied.
var candidateFiles = []string{
	"package.json",
	"package-lock.json",
	"pnpm-lock.yaml",
	"yarn.lock",
	"bun.lockb",
	"bun.lock",
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
	"biome.json",
	"biome.jsonc",
	".eslintrc",
	".eslintrc.js",
	".eslintrc.cjs",
	".eslintrc.json",
	".prettierrc",
	".prettierrc.json",
	"prettier.config.js",
	"app/globals.css",
	"src/app/globals.css",
	"styles/globals.css",
}

// Info is the manifest written alongside each backup.
type Info struct {
	Timestamp   string   `json:"timestamp"`
	Files       []string `json:"files"`
	MigrationID string   `json:"migrationId"`
	CanRollback bool     `json:"canRollback"`
}

// Store manages the backup directories for a project.
type Store struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock fixes the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the debug logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore returns a Store using the wall clock.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create snapshots every candidate file that exists into a new timestamped
// directory and writes its manifest. An empty migrationID gets a generated
// UUID. A project where nothing needs backing up still records a manifest,
// marked not rollbackable.
func (s *Store) Create(projectDir, migrationID string) (*Info, error) {
	if migrationID == "" {
		migrationID = uuid.NewString()
	}
	stamp := s.now().UTC().Format(timeLayout)
	dir := filepath.Join(projectDir, DirName, stamp)
	// Two runs inside the same second get numbered suffixes.
	for i := 2; ; i++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			break
		}
		dir = filepath.Join(projectDir, DirName, stamp+"-"+strconv.Itoa(i))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	var copied []string
	for _, rel := range candidateFiles {
		src := filepath.Join(projectDir, filepath.FromSlash(rel))
		if fi, err := os.Stat(src); err != nil || fi.IsDir() {
			continue
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("backing up %s: %w", rel, err)
		}
		copied = append(copied, rel)
		s.logger.Debug("backed up file", zap.String("file", rel))
	}

	info := &Info{
		Timestamp:   filepath.Base(dir),
		Files:       copied,
		MigrationID: migrationID,
		CanRollback: len(copied) > 0,
	}
	if err := writeInfo(filepath.Join(dir, infoFile), info); err != nil {
		return nil, err
	}
	s.logger.Debug("backup created",
		zap.String("dir", dir),
		zap.Int("files", len(copied)),
		zap.String("migrationId", migrationID))
	return info, nil
}

// writeInfo writes the manifest atomically: a rename either lands the whole
// file or leaves the old one.
func writeInfo(path string, info *Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding backup manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing backup manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing backup manifest: %w", err)
	}
	return nil
}

func readInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading backup manifest: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing backup manifest %s: %w", path, err)
	}
	return &info, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
