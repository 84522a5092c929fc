// Package gdbm is a portable, from-scratch reimplementation of the on-disk
// format used by GNU dbm (GDBM): a single-file, extendible-hash key-value
// store. It is bit-exact compatible with GDBM files produced on 32-bit and
// 64-bit, little- and big-endian systems, with or without the "numsync"
// header extension.
//
// # Basic Usage
//
//	db, err := gdbm.Create("data.gdbm", gdbm.Options{})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Insert([]byte("key"), []byte("value"), true); err != nil {
//	    return err
//	}
//
//	val, ok, err := db.Get([]byte("key"))
//
// # Concurrency
//
//   - One process handle at a time owns a given open database file.
//   - Read-only opens take a shared advisory lock (flock); read-write opens
//     take an exclusive advisory lock. The lock is released on Close.
//   - The engine performs no internal synchronization: concurrent use of the
//     same *DB from multiple goroutines requires external mutual exclusion.
//   - There is no background I/O. Every exported method is synchronous and
//     blocking; the only suspension points are the underlying file syscalls.
//
// # Error Handling
//
// Structural validation failures (bad magic, implausible header fields) are
// reported only from Open/Create — after that the handle is either usable or
// the call returned an error and no *DB exists. Runtime errors (I/O
// failures, KeyNotFound, NotWritable) surface unmodified to callers and the
// engine never retries; once a write fails, treat the handle as poisoned and
// close it. All error kinds can be tested with errors.Is against the
// exported Err* sentinels, and several carry structured detail retrievable
// with errors.As.
package gdbm

// Endian selects the byte order used for every multi-byte scalar in the file.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// OffsetWidth selects the width used to encode file offsets (dir_ofs,
// next_block, data_ofs, avail addr).
type OffsetWidth int

const (
	Offset32 OffsetWidth = iota
	Offset64
)

// Alignment governs whether 64-bit offset fields are padded to an 8-byte
// boundary within structures that also contain 32-bit fields. GDBM's C
// struct packing means this is not fully determined by OffsetWidth alone:
// 64-bit-offset files are always Align64, but 32-bit-offset files built on a
// 64-bit host may still pad as if 64-bit ("align64 on a 32-bit file").
type Alignment int

const (
	Align32 Alignment = iota
	Align64
)

// Layout is the immutable triple that fully determines on-disk scalar
// encoding for a given database file. It is threaded explicitly through
// every serialization call; nothing infers layout from ambient state.
type Layout struct {
	Offset    OffsetWidth
	Endian    Endian
	Alignment Alignment
}

// offsetPadded reports whether an offset-width field in this layout carries
// a 4-byte zero pad before it (AvailElem.addr, and Bucket.av_count's
// trailing pad).
func (l Layout) offsetPadded() bool {
	return l.Offset == Offset64 || l.Alignment == Align64
}

// offsetSize is the on-disk width, in bytes, of one offset-typed field.
func (l Layout) offsetSize() int {
	if l.Offset == Offset64 {
		return 8
	}
	return 4
}
