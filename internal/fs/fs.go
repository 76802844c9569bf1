// Package fs provides filesystem utilities for bugmine.
// The FS interface exists so stores and services can be tested against
// an in-memory or failure-injecting implementation.
package fs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem interface used throughout bugmine.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Mkdir(path string, perm os.FileMode) error
	Stat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	Rename(oldpath, newpath string) error
	RemoveAll(path string) error
}

// RealFS is the production FS backed by the os package.
type RealFS struct{}

// NewRealFS creates an FS that operates on the real filesystem.
func NewRealFS() *RealFS {
	return &RealFS{}
}

func (*RealFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (*RealFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (*RealFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (*RealFS) Mkdir(path string, perm os.FileMode) error { return os.Mkdir(path, perm) }

func (*RealFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

func (*RealFS) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

func (*RealFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (*RealFS) RemoveAll(path string) error { return os.RemoveAll(path) }

// WriteFileAtomic writes data to path via a temp file in the same directory
// followed by rename, so readers never observe a partial file.
func WriteFileAtomic(fsys FS, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := fsys.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := fsys.Rename(tmp, path); err != nil {
		_ = fsys.RemoveAll(tmp)
		return err
	}
	return nil
}
