package detect

import (
	"io/fs"
	"os"
)

// FileSystem is the read-only view of the project tree the detector works
// against. Production code uses OSFileSystem; tests inject failures to
// exercise the unknown paths.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ReadDir(path string) ([]fs.DirEntry, error)
}

type osFS struct{}

func (osFS) Stat(path string) (fs.FileInfo, error)    { return os.Stat(path) }
func (osFS) ReadFile(path string) ([]byte, error)     { return os.ReadFile(path) }
func (osFS) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

// OSFileSystem reads straight from the host filesystem.
var OSFileSystem FileSystem = osFS{}

func (d *Detector) fileExists(path string) bool {
	info, err := d.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func (d *Detector) dirExists(path string) bool {
	info, err := d.fs.Stat(path)
	return err == nil && info.IsDir()
}
