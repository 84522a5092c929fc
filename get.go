package gdbm

import (
	"bytes"
	"fmt"
)

// loadBucket returns the bucket at offset, consulting the cache first and
// decoding from disk on a miss. Decoded buckets are cached clean.
func (db *DB) loadBucket(offset uint64) (*Bucket, error) {
	if b, ok := db.cache.get(offset); ok {
		return b, nil
	}

	buf, err := db.readAt(offset, int(db.header.BucketSz))
	if err != nil {
		return nil, err
	}

	b, err := decodeBucket(db.header.Layout, db.header.BucketElems, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding bucket at %d: %w", ErrIo, offset, err)
	}

	db.cache.put(offset, b)
	return b, nil
}

// bucketFor returns the bucket and directory index owning key's hash.
func (db *DB) bucketFor(h uint32) (offset uint64, dirIdx uint32, b *Bucket, err error) {
	dirIdx = bucketDir(h, db.dir.dirBits())
	offset = db.dir.Entries[dirIdx]
	b, err = db.loadBucket(offset)
	return offset, dirIdx, b, err
}

// readRecord reads the stored key||value bytes for elem and splits them.
func (db *DB) readRecord(elem BucketElement) (key, value []byte, err error) {
	buf, err := db.readAt(elem.DataOfs, int(elem.KeySize+elem.DataSize))
	if err != nil {
		return nil, nil, err
	}
	return buf[:elem.KeySize], buf[elem.KeySize:], nil
}

// findSlot locates the exact slot storing key, if present, byte-comparing
// every quick-match candidate against the on-disk record.
func (db *DB) findSlot(key []byte) (offset uint64, b *Bucket, slot int, value []byte, found bool, err error) {
	h := hashKey(key)
	offset, _, b, err = db.bucketFor(h)
	if err != nil {
		return 0, nil, 0, nil, false, err
	}

	keyStart := partialKeyOf(key)
	for _, idx := range b.find(h, uint32(len(key)), keyStart) {
		elem := b.Tab[idx]
		k, v, err := db.readRecord(elem)
		if err != nil {
			return 0, nil, 0, nil, false, err
		}
		if bytes.Equal(k, key) {
			return offset, b, idx, v, true, nil
		}
	}
	return offset, b, 0, nil, false, nil
}

// Get returns the value stored under key. The returned slice is a fresh copy
// safe to retain; ok is false if the key is absent.
func (db *DB) Get(key []byte) (value []byte, ok bool, err error) {
	if err := db.checkOpen(); err != nil {
		return nil, false, err
	}
	_, _, _, v, found, err := db.findSlot(key)
	if err != nil {
		return nil, false, err
	}
	return v, found, nil
}

// Contains reports whether key is present. It goes through Get, so the
// stored record is read in full, value included.
func (db *DB) Contains(key []byte) (bool, error) {
	_, found, err := db.Get(key)
	return found, err
}
