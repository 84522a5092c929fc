package gdbm

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is. Structural validation errors
// (BadHeader*) also carry structured detail in their concrete type below;
// errors.As recovers it.
var (
	// ErrIo wraps an underlying read/write/seek/fsync failure.
	ErrIo = errors.New("gdbm: i/o error")

	// ErrBadMagic means the first 4 bytes of the file are not one of the
	// ten recognised magic numbers.
	ErrBadMagic = errors.New("gdbm: bad magic")

	// ErrBadHeader is the umbrella sentinel for every structural header
	// validation failure; use errors.As for the specific *BadHeaderError.
	ErrBadHeader = errors.New("gdbm: bad header")

	// ErrKeyExists is returned by Insert(replace=false) when the key is
	// already present.
	ErrKeyExists = errors.New("gdbm: key already exists")

	// ErrKeyNotFound is returned by Remove when the key is absent (Get
	// reports absence with ok=false instead).
	ErrKeyNotFound = errors.New("gdbm: key not found")

	// ErrBadData means a value could not be decoded to a requested type
	// (convenience for typed wrappers layered on top of this package).
	ErrBadData = errors.New("gdbm: bad data")

	// ErrNotWritable is returned by any mutating call on a read-only handle.
	ErrNotWritable = errors.New("gdbm: database not writable")

	// ErrNeedsRecovery is reported from Open when next_block < file size.
	// The database is opened successfully but flagged; recovery is not
	// attempted automatically.
	ErrNeedsRecovery = errors.New("gdbm: database needs recovery")

	// ErrReadOnlyMagic is returned by any write attempt against a database
	// opened under the legacy OMAGIC format (spec.md open question iii).
	ErrReadOnlyMagic = errors.New("gdbm: legacy OMAGIC database is read-only")

	// ErrClosed is returned by any operation on an already-closed handle.
	ErrClosed = errors.New("gdbm: database is closed")
)

// BadHeaderField names which structural header field failed validation.
type BadHeaderField int

const (
	BadHeaderBlockSize BadHeaderField = iota
	BadHeaderNextBlock
	BadHeaderDirectory
	BadHeaderDirectoryOffset
	BadHeaderBucketSize
	BadHeaderBucketElems
	BadHeaderAvail
	BadHeaderAvailCount
	BadHeaderAvailElem
	BadHeaderNumsyncVersion
)

func (f BadHeaderField) String() string {
	switch f {
	case BadHeaderBlockSize:
		return "BlockSize"
	case BadHeaderNextBlock:
		return "NextBlock"
	case BadHeaderDirectory:
		return "Directory"
	case BadHeaderDirectoryOffset:
		return "DirectoryOffset"
	case BadHeaderBucketSize:
		return "BucketSize"
	case BadHeaderBucketElems:
		return "BucketElems"
	case BadHeaderAvail:
		return "Avail"
	case BadHeaderAvailCount:
		return "AvailCount"
	case BadHeaderAvailElem:
		return "AvailElem"
	case BadHeaderNumsyncVersion:
		return "NumsyncVersion"
	default:
		return "Unknown"
	}
}

// BadHeaderError reports a specific structural header validation failure,
// with the offending values for diagnostics. It unwraps to [ErrBadHeader].
type BadHeaderError struct {
	Field   BadHeaderField
	Message string
}

func (e *BadHeaderError) Error() string {
	return fmt.Sprintf("gdbm: bad header (%s): %s", e.Field, e.Message)
}

func (e *BadHeaderError) Unwrap() error { return ErrBadHeader }

func badHeaderErr(field BadHeaderField, format string, args ...any) error {
	return &BadHeaderError{Field: field, Message: fmt.Sprintf(format, args...)}
}
