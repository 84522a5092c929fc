package gdbm

import (
	"container/list"
	"sort"
)

// bucketCache maps bucket file-offset to Bucket, bounded in bytes by
// cachesize. Eviction is LRU over clean entries only; dirty entries are
// pinned until flushed by sync. It is the sole source of truth for
// in-flight buckets — callers never read an already-cached offset straight
// from the file.
type bucketCache struct {
	capacity  int
	bucketSz  int
	entries   map[uint64]*list.Element
	lru       *list.List // front = most recently used; only clean entries participate
	byteUsage int
}

type cacheEntry struct {
	offset uint64
	bucket *Bucket
}

func newBucketCache(capacityBytes int, bucketSz int) *bucketCache {
	return &bucketCache{
		capacity: capacityBytes,
		bucketSz: bucketSz,
		entries:  make(map[uint64]*list.Element),
		lru:      list.New(),
	}
}

// get returns the cached bucket at offset, if present.
func (c *bucketCache) get(offset uint64) (*Bucket, bool) {
	el, ok := c.entries[offset]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*cacheEntry)
	if !ent.bucket.dirty {
		c.lru.MoveToFront(el)
	}
	return ent.bucket, true
}

// put installs or replaces the bucket at offset and evicts clean entries
// from the back of the LRU list until byte usage fits the capacity (dirty
// entries are never evicted).
func (c *bucketCache) put(offset uint64, b *Bucket) {
	if el, ok := c.entries[offset]; ok {
		c.lru.Remove(el)
		c.byteUsage -= c.bucketSz
	}

	el := c.lru.PushFront(&cacheEntry{offset: offset, bucket: b})
	c.entries[offset] = el
	c.byteUsage += c.bucketSz

	c.evictIfNeeded()
}

func (c *bucketCache) evictIfNeeded() {
	if c.capacity <= 0 {
		return
	}
	for c.byteUsage > c.capacity {
		el := c.evictionCandidate()
		if el == nil {
			return // nothing clean left to evict
		}
		ent := el.Value.(*cacheEntry)
		c.lru.Remove(el)
		delete(c.entries, ent.offset)
		c.byteUsage -= c.bucketSz
	}
}

// evictionCandidate walks from the back of the LRU list (least recently
// used) to find the first clean (non-dirty) entry.
func (c *bucketCache) evictionCandidate() *list.Element {
	for el := c.lru.Back(); el != nil; el = el.Prev() {
		if !el.Value.(*cacheEntry).bucket.dirty {
			return el
		}
	}
	return nil
}

// dirtyOffsets returns every dirty bucket offset, ascending — the order
// sync() writes them back in (spec.md §4.8: ascending offset, then
// directory, then header last).
func (c *bucketCache) dirtyOffsets() []uint64 {
	var out []uint64
	for off, el := range c.entries {
		if el.Value.(*cacheEntry).bucket.dirty {
			out = append(out, off)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// clearDirty marks the bucket at offset clean, after sync has flushed it,
// and folds that previously-pinned entry back into normal LRU eviction
// eligibility.
func (c *bucketCache) clearDirty(offset uint64) {
	if el, ok := c.entries[offset]; ok {
		el.Value.(*cacheEntry).bucket.dirty = false
		c.lru.MoveToFront(el)
	}
	c.evictIfNeeded()
}

