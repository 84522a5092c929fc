package gdbm

import (
	"fmt"

	natomic "github.com/natefinch/atomic"
)

// Compact rewrites the database into a freshly laid out sibling file
// containing only live keys (no avail fragmentation, no stale split
// leftovers) and atomically replaces the original with it. The handle
// remains open and usable afterward, now backed by the compacted file.
func (db *DB) Compact() error {
	if err := db.checkWritable(); err != nil {
		return err
	}

	entries, err := db.Iter()
	if err != nil {
		return err
	}

	tmpPath := db.path + ".compact.tmp"

	opts := Options{
		BlockSize:   db.header.BlockSz,
		Endian:      db.header.Layout.Endian,
		OffsetWidth: db.header.Layout.Offset,
		Numsync:     db.header.Magic.IsNumsync(),
	}.WithAlignment(db.header.Layout.Alignment)

	fresh, err := createWith(db.fs, tmpPath, opts)
	if err != nil {
		return fmt.Errorf("compact: creating replacement file: %w", err)
	}

	for _, e := range entries {
		if err := fresh.Insert(e.Key, e.Value, true); err != nil {
			_ = fresh.Close()
			_ = db.fs.Remove(tmpPath)
			return fmt.Errorf("compact: repopulating: %w", err)
		}
	}
	if err := fresh.Sync(); err != nil {
		_ = fresh.Close()
		_ = db.fs.Remove(tmpPath)
		return fmt.Errorf("compact: syncing replacement file: %w", err)
	}
	if err := fresh.Close(); err != nil {
		_ = db.fs.Remove(tmpPath)
		return fmt.Errorf("compact: closing replacement file: %w", err)
	}

	if err := natomic.ReplaceFile(tmpPath, db.path); err != nil {
		_ = db.fs.Remove(tmpPath)
		return fmt.Errorf("compact: replacing original file: %w", err)
	}

	if err := db.lock.Close(); err != nil {
		return fmt.Errorf("compact: releasing old lock: %w", err)
	}
	if err := db.file.Close(); err != nil {
		return fmt.Errorf("compact: closing old file: %w", err)
	}

	reopened, err := openWith(db.fs, db.path, Options{
		CacheSize:  db.cache.capacity,
		SyncOnDrop: db.syncOnDrop,
	})
	if err != nil {
		return fmt.Errorf("compact: reopening compacted file: %w", err)
	}

	*db = *reopened
	return nil
}
