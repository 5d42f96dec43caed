package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// ErrNoBackups means the project has no backup store or it is empty.
var ErrNoBackups = errors.New("no backups found")

// List returns the backup directory names for a project, oldest first.
func (s *Store) List(projectDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(projectDir, DirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackups
		}
		return nil, fmt.Errorf("reading backup store: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, ErrNoBackups
	}
	sort.Strings(names)
	return names, nil
}

// Latest returns the most recent backup and its manifest. Directory names
// sort chronologically, so the lexicographically largest entry is newest.
func (s *Store) Latest(projectDir string) (string, *Info, error) {
	names, err := s.List(projectDir)
	if err != nil {
		return "", nil, err
	}
	name := names[len(names)-1]
	info, err := readInfo(filepath.Join(projectDir, DirName, name, infoFile))
	if err != nil {
		return "", nil, err
	}
	return name, info, nil
}

// Restore copies every file recorded in the most recent backup back to its
// original location. The backup directory is left intact so a restore can
// be repeated.
func (s *Store) Restore(projectDir string) (*Info, error) {
	name, info, err := s.Latest(projectDir)
	if err != nil {
		return nil, err
	}
	if !info.CanRollback {
		return nil, fmt.Errorf("backup %s recorded no files to restore", name)
	}

	dir := filepath.Join(projectDir, DirName, name)
	for _, rel := range info.Files {
		src := filepath.Join(dir, filepath.FromSlash(rel))
		dst := filepath.Join(projectDir, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("restoring %s: %w", rel, err)
		}
		s.logger.Debug("restored file", zap.String("file", rel))
	}
	s.logger.Debug("rollback complete",
		zap.String("backup", name),
		zap.Int("files", len(info.Files)))
	return info, nil
}
