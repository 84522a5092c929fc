// Package fsutil provides the filesystem abstractions the engine opens its
// database file through: a narrow [FS]/[File] interface backed by [Real] in
// production, plus a [Locker] implementing the shared/exclusive advisory
// locking the engine's single-writer model requires.
//
// Example usage:
//
//	real := fsutil.NewReal()
//	f, err := real.OpenFile(path, os.O_RDWR, 0o644)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
package fsutil

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// Satisfied by [os.File]; usable with anything accepting [io.Reader],
// [io.Writer], [io.Seeker], or [io.Closer].
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor, used for syscall.Flock and Stat_t access.
	Fd() uintptr

	// Stat returns the os.FileInfo for this file.
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents and metadata to stable storage.
	Sync() error

	// Truncate changes the size of the file.
	Truncate(size int64) error
}

// FS defines the filesystem operations the engine depends on. [Real] is the
// only production implementation; tests may substitute a fake.
type FS interface {
	Open(path string) (File, error)
	Create(path string) (File, error)
	OpenFile(path string, flag int, perm os.FileMode) (File, error)
	Stat(path string) (os.FileInfo, error)
	Remove(path string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
