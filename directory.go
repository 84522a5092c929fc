package gdbm

import "io"

// gdbmHashBits is the width of the hash space the directory indexes into
// (spec.md §4.2/§4.3); mirrors GDBM_HASH_BITS in the original implementation.
const gdbmHashBits = 31

// buildDirSize returns (dirSz, dirBits) such that dirSz is the smallest
// power-of-two multiple of one offset-width entry that is >= minSize,
// capped at dirBits <= gdbmHashBits-3.
func buildDirSize(offset OffsetWidth, minSize uint32) (dirSz uint32, dirBits uint32) {
	entrySize := uint32(4)
	if offset == Offset64 {
		entrySize = 8
	}

	dirSz = entrySize * 8
	dirBits = 3

	for dirSz < minSize && dirBits < gdbmHashBits-3 {
		dirSz *= 2
		dirBits++
	}

	return dirSz, dirBits
}

// Directory is the vector of bucket offsets indexed by bucketDir(hash).
type Directory struct {
	Entries []uint64
}

func direntSize(layout Layout) int {
	if layout.Offset == Offset64 {
		return 8
	}
	return 4
}

func newDirectory(dirBits uint32, firstBucketOfs uint64) *Directory {
	entries := make([]uint64, 1<<dirBits)
	for i := range entries {
		entries[i] = firstBucketOfs
	}
	return &Directory{Entries: entries}
}

func decodeDirectory(layout Layout, dirSz uint32, r io.Reader) (*Directory, error) {
	count := int(dirSz) / direntSize(layout)
	entries := make([]uint64, count)
	for i := range entries {
		v, err := readPlainOffset(layout, r)
		if err != nil {
			return nil, err
		}
		entries[i] = v
	}
	return &Directory{Entries: entries}, nil
}

func (d *Directory) encode(layout Layout, w io.Writer) error {
	for _, e := range d.Entries {
		if err := writePlainOffset(layout, w, e); err != nil {
			return err
		}
	}
	return nil
}

func (d *Directory) dirBits() uint32 {
	n := len(d.Entries)
	bits := uint32(0)
	for (1 << bits) < n {
		bits++
	}
	return bits
}
