package gdbm

import (
	"bytes"
	"fmt"
)

// Sync flushes every dirty bucket (ascending offset), then the directory if
// it moved or changed, then the header last, fsyncing after each step. This
// ordering means a crash always leaves the file pointing at the previous,
// still-consistent directory/buckets: the header is the last thing to change
// and the first thing a reader consults.
func (db *DB) Sync() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if db.readOnly {
		return nil
	}

	for _, offset := range db.cache.dirtyOffsets() {
		b, _ := db.cache.get(offset)
		var buf bytes.Buffer
		if err := b.encode(db.header.Layout, &buf); err != nil {
			return fmt.Errorf("%w: encoding bucket at %d: %w", ErrIo, offset, err)
		}
		if err := db.writeAt(offset, buf.Bytes()); err != nil {
			return err
		}
		if err := db.file.Sync(); err != nil {
			return fmt.Errorf("%w: fsync bucket: %w", ErrIo, err)
		}
		db.cache.clearDirty(offset)
	}

	if db.dirDirty {
		var buf bytes.Buffer
		if err := db.dir.encode(db.header.Layout, &buf); err != nil {
			return fmt.Errorf("%w: encoding directory: %w", ErrIo, err)
		}
		if err := db.writeAt(db.header.DirOfs, buf.Bytes()); err != nil {
			return err
		}
		if err := db.file.Sync(); err != nil {
			return fmt.Errorf("%w: fsync directory: %w", ErrIo, err)
		}
		db.dirDirty = false
	}

	if db.header.dirty {
		var buf bytes.Buffer
		if err := db.header.encode(&buf); err != nil {
			return fmt.Errorf("%w: encoding header: %w", ErrIo, err)
		}
		if err := db.writeAt(0, buf.Bytes()); err != nil {
			return err
		}
		if err := db.file.Sync(); err != nil {
			return fmt.Errorf("%w: fsync header: %w", ErrIo, err)
		}
		db.header.dirty = false
	}

	return nil
}
