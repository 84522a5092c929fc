package gdbm

import "fmt"

// forEachBucket visits every distinct bucket in directory order exactly
// once, skipping the repeated directory entries that a split leaves
// pointing at the same bucket.
func (db *DB) forEachBucket(visit func(offset uint64, b *Bucket) error) error {
	var last uint64
	first := true

	for _, offset := range db.dir.Entries {
		if !first && offset == last {
			continue
		}
		first = false
		last = offset

		b, err := db.loadBucket(offset)
		if err != nil {
			return err
		}
		if err := visit(offset, b); err != nil {
			return err
		}
	}
	return nil
}

// countLiveKeys walks every distinct bucket, summing Count. Used once at
// Open/Create to seed Len() without keeping a persisted counter on disk.
func (db *DB) countLiveKeys() (int, error) {
	total := 0
	err := db.forEachBucket(func(_ uint64, b *Bucket) error {
		total += int(b.Count)
		return nil
	})
	return total, err
}

// Entry is one key/value pair yielded by Iter.
type Entry struct {
	Key   []byte
	Value []byte
}

// Iter returns every stored entry. Order is the on-disk bucket/slot scan
// order (spec: first_key/next_key), not insertion order.
func (db *DB) Iter() ([]Entry, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	var entries []Entry
	err := db.forEachBucket(func(offset uint64, b *Bucket) error {
		for _, elem := range b.Tab {
			if elem.Hash == emptyHash {
				continue
			}
			key, value, err := db.readRecord(elem)
			if err != nil {
				return fmt.Errorf("%w: reading record in bucket at %d: %w", ErrIo, offset, err)
			}
			entries = append(entries, Entry{
				Key:   append([]byte(nil), key...),
				Value: append([]byte(nil), value...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Keys returns every stored key, in the same order as Iter.
func (db *DB) Keys() ([][]byte, error) {
	entries, err := db.Iter()
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}

// Values returns every stored value, in the same order as Iter.
func (db *DB) Values() ([][]byte, error) {
	entries, err := db.Iter()
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	return values, nil
}
