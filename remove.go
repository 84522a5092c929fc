package gdbm

// Remove deletes key, returning ErrKeyNotFound if it is absent. The freed
// record region is returned to the owning bucket's local avail list, falling
// back to the header's avail list once that fills.
func (db *DB) Remove(key []byte) error {
	if err := db.checkWritable(); err != nil {
		return err
	}

	offset, b, idx, _, found, err := db.findSlot(key)
	if err != nil {
		return err
	}
	if !found {
		return ErrKeyNotFound
	}

	elem := b.Tab[idx]
	if err := db.freeSpace(b, elem.DataOfs, elem.KeySize+elem.DataSize); err != nil {
		return err
	}
	b.delete(idx)
	db.cache.put(offset, b)

	db.count--
	return nil
}
