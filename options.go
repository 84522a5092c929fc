package gdbm

// defaultCacheSize is used when Options.CacheSize is zero.
const defaultCacheSize = 1 << 20 // 1 MiB of bucket bytes

// defaultBlockSize is used when Options.BlockSize is zero on Create.
const defaultBlockSize = 4096

// Options configures Open/Create. The zero value is valid and selects a
// little-endian, 32-bit-offset layout with sensible defaults, mirroring the flat,
// validate-on-use Options idiom used throughout this codebase.
type Options struct {
	// ReadOnly opens the database read-only with a shared advisory lock.
	// Ignored by Create, which always opens read-write.
	ReadOnly bool

	// BlockSize is the on-disk block size for a newly created database.
	// Zero selects defaultBlockSize. Ignored by Open (the file's header
	// already fixes it).
	BlockSize uint32

	// Alignment overrides the layout alignment guessed from the magic
	// (see Magic.DefaultAlignment). Zero value (Align32) combined with
	// AlignmentSet=false means "use the magic's default".
	Alignment    Alignment
	AlignmentSet bool

	// CacheSize bounds the bucket cache in bytes. Zero selects
	// defaultCacheSize.
	CacheSize int

	// Endian and OffsetWidth select the on-disk layout for Create. Ignored
	// by Open.
	Endian      Endian
	OffsetWidth OffsetWidth

	// Numsync enables the numsync header extension on Create.
	Numsync bool

	// SyncOnDrop, if true, makes Close call Sync before releasing the
	// handle's resources, so a caller that forgets an explicit Sync still
	// gets a durable database on a clean Close. It does not fire when Close
	// is called on an already-closed handle or on a read-only handle.
	SyncOnDrop bool
}

// WithAlignment is a chainable setter mirroring the original project's
// OpenOptions builder methods.
func (o Options) WithAlignment(a Alignment) Options {
	o.Alignment = a
	o.AlignmentSet = true
	return o
}

// WithCacheSize is a chainable setter mirroring the original project's
// OpenOptions builder methods.
func (o Options) WithCacheSize(n int) Options {
	o.CacheSize = n
	return o
}

func (o Options) cacheSize() int {
	if o.CacheSize <= 0 {
		return defaultCacheSize
	}
	return o.CacheSize
}

func (o Options) blockSize() uint32 {
	if o.BlockSize == 0 {
		return defaultBlockSize
	}
	return o.BlockSize
}

func (o Options) alignmentFor(m Magic) Alignment {
	if o.AlignmentSet {
		return o.Alignment
	}
	return m.DefaultAlignment()
}
