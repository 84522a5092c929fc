package gdbm

import (
	"fmt"
	"io"

	"github.com/jgarzik/gdbmgo/internal/fsutil"
)

// DB is a handle to an open GDBM-format database file. The zero value is
// not usable; obtain a *DB via Open or Create. A *DB is not safe for
// concurrent use from multiple goroutines (spec: single-threaded
// cooperative model per handle).
type DB struct {
	fs   fsutil.FS
	file fsutil.File
	path string

	header *Header
	dir    *Directory
	cache  *bucketCache

	locker *fsutil.Locker
	lock   *fsutil.Lock

	readOnly   bool
	closed     bool
	syncOnDrop bool

	dirDirty bool // directory moved or its contents changed since last sync
	count    int  // live key count, maintained incrementally

	needsRecovery bool
}

// Magic reports the on-disk magic of this database.
func (db *DB) Magic() Magic { return db.header.Magic }

// Alignment reports the layout alignment this database was opened with.
func (db *DB) Alignment() Alignment { return db.header.Layout.Alignment }

// Len reports the number of distinct keys currently stored.
func (db *DB) Len() int { return db.count }

// Path reports the filesystem path this database was opened or created from.
func (db *DB) Path() string { return db.path }

// NeedsRecovery reports whether next_block < file size was observed at open.
func (db *DB) NeedsRecovery() bool { return db.needsRecovery }

func (db *DB) checkOpen() error {
	if db.closed {
		return ErrClosed
	}
	return nil
}

func (db *DB) checkWritable() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if db.readOnly {
		return ErrNotWritable
	}
	if db.header.Magic.IsLegacy() {
		return ErrReadOnlyMagic
	}
	return nil
}

// --- low-level file I/O helpers, shared by every operation file ---

func (db *DB) readAt(offset uint64, n int) ([]byte, error) {
	if _, err := db.file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek: %w", ErrIo, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(db.file, buf); err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrIo, err)
	}
	return buf, nil
}

func (db *DB) writeAt(offset uint64, buf []byte) error {
	if _, err := db.file.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek: %w", ErrIo, err)
	}
	if _, err := db.file.Write(buf); err != nil {
		return fmt.Errorf("%w: write: %w", ErrIo, err)
	}
	return nil
}

// fileSize returns the current on-disk file size.
func (db *DB) fileSize() (uint64, error) {
	info, err := db.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat: %w", ErrIo, err)
	}
	return uint64(info.Size()), nil
}

// Close releases the bucket cache, optionally syncs (Options.SyncOnDrop, set
// at Open/Create time and remembered on the handle), and releases the
// advisory lock. Close is idempotent.
func (db *DB) Close() error {
	if db.closed {
		return nil
	}

	var syncErr error
	if db.syncOnDrop && !db.readOnly {
		syncErr = db.Sync()
	}

	db.closed = true

	var lockErr error
	if db.lock != nil {
		lockErr = db.lock.Close()
	}
	closeErr := db.file.Close()

	if syncErr != nil {
		return syncErr
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close: %w", ErrIo, closeErr)
	}
	return lockErr
}
