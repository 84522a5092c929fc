package gdbm

import (
	"bytes"
	"sort"
)

// allocate returns space of at least size bytes from the header's avail
// system: the primary AvailBlock first, splicing in the overflow block
// chained from it when the primary is empty, per spec.md §4.4. ok is false
// only when neither the primary nor (if present) a spliced-in overflow
// block has anything large enough; callers fall back to extending the file.
func (db *DB) allocate(size uint32) (AvailElem, bool, error) {
	if e, ok := db.header.Avail.remove(size); ok {
		db.header.dirty = true
		return e, true, nil
	}

	if len(db.header.Avail.Elems) == 0 && db.header.Avail.NextBlock != 0 {
		if err := db.spliceAvailBlock(); err != nil {
			return AvailElem{}, false, err
		}
		if e, ok := db.header.Avail.remove(size); ok {
			db.header.dirty = true
			return e, true, nil
		}
	}

	return AvailElem{}, false, nil
}

// free returns (offset, length) to the header's primary avail list, pushing
// the primary to a freshly allocated overflow block when it is already at
// capacity, per spec.md §4.4.
func (db *DB) free(offset uint64, length uint32) error {
	if db.header.Avail.insert(length, offset) {
		db.header.dirty = true
		return nil
	}

	if err := db.pushAvailBlock(); err != nil {
		return err
	}
	db.header.Avail.insert(length, offset)
	db.header.dirty = true
	return nil
}

// pushAvailBlock allocates a fresh block-sized region at NextBlock, writes
// the current (full) primary AvailBlock there, and replaces the header's
// primary with an empty block of the same capacity whose NextBlock points
// at the region just written.
func (db *DB) pushAvailBlock() error {
	blockSz := db.header.BlockSz

	addr := db.header.NextBlock
	db.header.NextBlock += uint64(blockSz)

	buf := make([]byte, blockSz)
	w := bytes.NewBuffer(buf[:0])
	if err := db.header.Avail.encode(db.header.Layout, w); err != nil {
		return err
	}
	if err := db.writeAt(addr, buf); err != nil {
		return err
	}

	next := newAvailBlock(db.header.Avail.Capacity)
	next.NextBlock = addr
	db.header.Avail = next
	db.header.dirty = true
	return nil
}

// spliceAvailBlock reads the overflow block chained from the (empty)
// primary, merges its elements into the primary, adopts its NextBlock, and
// — only if there is still room after the merge — frees the overflow
// block's own block-sized region back into the avail system. When there is
// no room, the overflow region is left dangling as a tombstone rather than
// reinserted, per spec.md §4.4.
func (db *DB) spliceAvailBlock() error {
	addr := db.header.Avail.NextBlock
	if addr == 0 {
		return nil
	}

	blockSz := db.header.BlockSz
	buf, err := db.readAt(addr, int(blockSz))
	if err != nil {
		return err
	}
	overflow, err := decodeAvailBlock(db.header.Layout, bytes.NewReader(buf))
	if err != nil {
		return err
	}

	merged := make([]AvailElem, 0, len(db.header.Avail.Elems)+len(overflow.Elems))
	merged = append(merged, db.header.Avail.Elems...)
	merged = append(merged, overflow.Elems...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Sz < merged[j].Sz })

	capacity := db.header.Avail.Capacity
	if uint32(len(merged)) > capacity {
		merged = merged[uint32(len(merged))-capacity:]
	}

	db.header.Avail.Elems = merged
	db.header.Avail.NextBlock = overflow.NextBlock
	db.header.dirty = true

	if uint32(len(db.header.Avail.Elems)) < capacity {
		db.header.Avail.insert(blockSz, addr)
	}

	return nil
}
