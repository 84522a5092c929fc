package gdbm

import "bytes"

// allocateSpace returns an offset with room for size bytes, preferring the
// bucket's local avail list, then the header's primary avail list (splicing
// in an overflow block if needed), and finally extending the file. Any
// excess in a reused region larger than needed is returned to the avail
// lists; slivers of 4 bytes or less are dropped rather than tracked (mirrors
// the original allocator's behaviour).
func (db *DB) allocateSpace(b *Bucket, size uint32) (uint64, error) {
	e, ok := b.allocateLocal(size)
	if !ok {
		var err error
		e, ok, err = db.allocate(size)
		if err != nil {
			return 0, err
		}
	}
	if !ok {
		addr := db.header.NextBlock
		db.header.NextBlock += uint64(size)
		db.header.dirty = true
		return addr, nil
	}

	if leftover := e.Sz - size; leftover > 4 {
		leftoverAddr := e.Addr + uint64(size)
		if !b.freeLocal(leftover, leftoverAddr) {
			if err := db.free(leftoverAddr, leftover); err != nil {
				return 0, err
			}
		}
	}
	return e.Addr, nil
}

// freeSpace returns a record's storage to the avail lists. Regions of 4
// bytes or less are dropped rather than tracked.
func (db *DB) freeSpace(b *Bucket, offset uint64, size uint32) error {
	if size <= 4 {
		return nil
	}
	if !b.freeLocal(size, offset) {
		return db.free(offset, size)
	}
	return nil
}

// Insert stores value under key. If the key already exists, replace controls
// whether the old value is overwritten (true) or ErrKeyExists is returned
// (false).
func (db *DB) Insert(key, value []byte, replace bool) error {
	if err := db.checkWritable(); err != nil {
		return err
	}

	h := hashKey(key)
	offset, _, b, err := db.bucketFor(h)
	if err != nil {
		return err
	}

	keyStart := partialKeyOf(key)
	isNew := true

	for _, idx := range b.find(h, uint32(len(key)), keyStart) {
		elem := b.Tab[idx]
		k, _, err := db.readRecord(elem)
		if err != nil {
			return err
		}
		if bytes.Equal(k, key) {
			if !replace {
				return ErrKeyExists
			}
			if err := db.freeSpace(b, elem.DataOfs, elem.KeySize+elem.DataSize); err != nil {
				return err
			}
			b.delete(idx)
			isNew = false
			break
		}
	}

	need := uint32(len(key) + len(value))
	dataOfs, err := db.allocateSpace(b, need)
	if err != nil {
		return err
	}

	record := make([]byte, 0, need)
	record = append(record, key...)
	record = append(record, value...)
	if err := db.writeAt(dataOfs, record); err != nil {
		return err
	}

	elem := BucketElement{
		Hash:     h,
		KeyStart: keyStart,
		DataOfs:  dataOfs,
		KeySize:  uint32(len(key)),
		DataSize: uint32(len(value)),
	}

	for {
		if _, ok := b.insert(elem); ok {
			break
		}
		if err := db.splitBucket(offset, b); err != nil {
			return err
		}
		offset, _, b, err = db.bucketFor(h)
		if err != nil {
			return err
		}
	}

	if isNew {
		db.count++
	}
	return nil
}

// CompareAndSwap performs an atomic check-and-set: if the stored value under
// key equals old (or the key is absent and old is nil), it is replaced with
// new (or removed, if new is nil), and swapped reports true. Otherwise the
// database is left unchanged, swapped is false, and actual holds whatever is
// currently stored (nil if the key is absent).
func (db *DB) CompareAndSwap(key, old, new []byte) (actual []byte, swapped bool, err error) {
	if err := db.checkWritable(); err != nil {
		return nil, false, err
	}

	_, _, _, current, found, err := db.findSlot(key)
	if err != nil {
		return nil, false, err
	}

	match := (!found && old == nil) || (found && old != nil && bytes.Equal(current, old))
	if !match {
		return current, false, nil
	}

	switch {
	case new == nil && found:
		if err := db.Remove(key); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	case new == nil && !found:
		return nil, true, nil
	default:
		if err := db.Insert(key, new, true); err != nil {
			return nil, false, err
		}
		return new, true, nil
	}
}
