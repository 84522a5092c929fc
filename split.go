package gdbm

import "fmt"

// doubleDirectory doubles the directory's entry count (and so its bit
// precision), duplicating every existing entry into two adjacent slots. The
// new directory is written to a freshly allocated region; the old region is
// returned to the header's avail list.
func (db *DB) doubleDirectory() error {
	oldEntries := db.dir.Entries
	newEntries := make([]uint64, len(oldEntries)*2)
	for i, e := range oldEntries {
		newEntries[2*i] = e
		newEntries[2*i+1] = e
	}

	newDirSz := uint32(len(newEntries)) * uint32(direntSize(db.header.Layout))
	newOffset := db.header.NextBlock
	db.header.NextBlock += uint64(newDirSz)

	if err := db.free(db.header.DirOfs, db.header.DirSz); err != nil {
		return err
	}

	db.header.DirOfs = newOffset
	db.header.DirSz = newDirSz
	db.header.DirBits++
	db.header.dirty = true

	db.dir = &Directory{Entries: newEntries}
	db.dirDirty = true
	return nil
}

// splitBucket splits the full bucket currently stored at offsetOld into two
// buckets at the next higher bit precision, doubling the directory first if
// it has no spare precision left to represent the split. The directory
// entries that used to point at offsetOld are rewritten to point at the two
// new buckets.
func (db *DB) splitBucket(offsetOld uint64, old *Bucket) error {
	oldBits := old.Bits
	if oldBits >= db.dir.dirBits() {
		if err := db.doubleDirectory(); err != nil {
			return err
		}
	}
	dirBits := db.dir.dirBits()
	newBits := oldBits + 1

	start := -1
	for i, e := range db.dir.Entries {
		if e == offsetOld {
			start = i
			break
		}
	}
	if start < 0 {
		return fmt.Errorf("%w: splitBucket: no directory entry points at offset %d", ErrBadData, offsetOld)
	}
	count := 1 << (dirBits - oldBits)
	mid := start + count/2

	bucketElems := uint32(len(old.Tab))
	bucketA := newBucket(bucketElems, newBits)
	bucketB := newBucket(bucketElems, newBits)

	for _, elem := range old.Tab {
		if elem.Hash == emptyHash {
			continue
		}
		bit := (elem.Hash >> (31 - newBits)) & 1
		if bit == 0 {
			bucketA.insert(elem)
		} else {
			bucketB.insert(elem)
		}
	}

	offsetB := db.header.NextBlock
	db.header.NextBlock += uint64(db.header.BucketSz)
	db.header.dirty = true

	for i := start; i < mid; i++ {
		db.dir.Entries[i] = offsetOld
	}
	for i := mid; i < start+count; i++ {
		db.dir.Entries[i] = offsetB
	}
	db.dirDirty = true

	db.cache.put(offsetOld, bucketA)
	db.cache.put(offsetB, bucketB)

	return nil
}
