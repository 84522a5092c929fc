package gdbm

import (
	"io"
	"sort"
)

// emptyHash is the sentinel BucketElement.Hash value marking an empty slot.
const emptyHash uint32 = 0xFFFFFFFF

// bucketAvailCap is the fixed capacity of a Bucket's embedded small-avail
// list; unlike the header's AvailBlock it never overflows to another block.
const bucketAvailCap = 6

// PartialKey holds the zero-padded first 4 bytes of a key, stored alongside
// each BucketElement so most lookups can reject a non-matching slot without
// reading the full key back off disk.
type PartialKey [4]byte

// partialKeyOf returns the PartialKey for key: its first min(4,len(key))
// bytes, zero-padded.
func partialKeyOf(key []byte) PartialKey {
	var pk PartialKey
	n := len(key)
	if n > 4 {
		n = 4
	}
	copy(pk[:n], key[:n])
	return pk
}

func decodePartialKey(r io.Reader) (PartialKey, error) {
	var pk PartialKey
	_, err := io.ReadFull(r, pk[:])
	return pk, err
}

func (pk PartialKey) encode(w io.Writer) error {
	_, err := w.Write(pk[:])
	return err
}

// BucketElement is one slot of a Bucket's open-addressed table.
type BucketElement struct {
	Hash     uint32
	KeyStart PartialKey
	DataOfs  uint64
	KeySize  uint32
	DataSize uint32
}

func emptyBucketElement() BucketElement {
	return BucketElement{Hash: emptyHash}
}

func bucketElementSize(layout Layout) int {
	return 4 + 4 + direntSize(layout) + 4 + 4
}

func decodeBucketElement(layout Layout, r io.Reader) (BucketElement, error) {
	bo := byteOrder(layout.Endian)

	hash, err := read32(bo, r)
	if err != nil {
		return BucketElement{}, err
	}

	keyStart, err := decodePartialKey(r)
	if err != nil {
		return BucketElement{}, err
	}

	dataOfs, err := readPlainOffset(layout, r)
	if err != nil {
		return BucketElement{}, err
	}

	keySize, err := read32(bo, r)
	if err != nil {
		return BucketElement{}, err
	}

	dataSize, err := read32(bo, r)
	if err != nil {
		return BucketElement{}, err
	}

	return BucketElement{
		Hash:     hash,
		KeyStart: keyStart,
		DataOfs:  dataOfs,
		KeySize:  keySize,
		DataSize: dataSize,
	}, nil
}

func (e BucketElement) encode(layout Layout, w io.Writer) error {
	bo := byteOrder(layout.Endian)

	if err := write32(bo, w, e.Hash); err != nil {
		return err
	}
	if err := e.KeyStart.encode(w); err != nil {
		return err
	}
	if err := writePlainOffset(layout, w, e.DataOfs); err != nil {
		return err
	}
	if err := write32(bo, w, e.KeySize); err != nil {
		return err
	}
	return write32(bo, w, e.DataSize)
}

// Bucket is one fixed-size open-addressed hash table fragment, with an
// embedded 6-slot avail list for recycling small deletions local to it.
type Bucket struct {
	Avail []AvailElem // len <= bucketAvailCap, sorted ascending by Sz
	Bits  uint32
	Count uint32
	Tab   []BucketElement

	dirty bool
}

func bucketHeaderSize(layout Layout) int {
	return 4 + boolPad(layout) + bucketAvailCap*availElemSize(layout) + 4 + 4
}

func boolPad(layout Layout) int {
	if layout.offsetPadded() {
		return 4
	}
	return 0
}

func bucketSize(layout Layout, bucketElems uint32) uint32 {
	return uint32(bucketHeaderSize(layout)) + bucketElems*uint32(bucketElementSize(layout))
}

func newBucket(bucketElems uint32, bits uint32) *Bucket {
	tab := make([]BucketElement, bucketElems)
	for i := range tab {
		tab[i] = emptyBucketElement()
	}
	return &Bucket{Bits: bits, Tab: tab, dirty: true}
}

func decodeBucket(layout Layout, bucketElems uint32, r io.Reader) (*Bucket, error) {
	bo := byteOrder(layout.Endian)

	avCount, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	if boolPad(layout) > 0 {
		if _, err := read32(bo, r); err != nil {
			return nil, err
		}
	}

	allAvail := make([]AvailElem, bucketAvailCap)
	for i := range allAvail {
		e, err := decodeAvailElem(layout, r)
		if err != nil {
			return nil, err
		}
		allAvail[i] = e
	}
	avail := append([]AvailElem(nil), allAvail[:avCount]...)

	bits, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	count, err := read32(bo, r)
	if err != nil {
		return nil, err
	}

	tab := make([]BucketElement, bucketElems)
	for i := range tab {
		e, err := decodeBucketElement(layout, r)
		if err != nil {
			return nil, err
		}
		tab[i] = e
	}

	return &Bucket{Avail: avail, Bits: bits, Count: count, Tab: tab}, nil
}

func (b *Bucket) encode(layout Layout, w io.Writer) error {
	bo := byteOrder(layout.Endian)

	if err := write32(bo, w, uint32(len(b.Avail))); err != nil {
		return err
	}
	if boolPad(layout) > 0 {
		if err := write32(bo, w, 0); err != nil {
			return err
		}
	}

	for i := 0; i < bucketAvailCap; i++ {
		var e AvailElem
		if i < len(b.Avail) {
			e = b.Avail[i]
		}
		if err := e.encode(layout, w); err != nil {
			return err
		}
	}

	if err := write32(bo, w, b.Bits); err != nil {
		return err
	}
	if err := write32(bo, w, b.Count); err != nil {
		return err
	}

	for _, e := range b.Tab {
		if err := e.encode(layout, w); err != nil {
			return err
		}
	}
	return nil
}

// freeLocal attempts to record (addr, sz) in the bucket's embedded avail
// list. Returns false if the list is already at its fixed capacity — the
// caller must fall back to the header's AvailBlock.
func (b *Bucket) freeLocal(sz uint32, addr uint64) bool {
	if len(b.Avail) >= bucketAvailCap {
		return false
	}
	idx := sort.Search(len(b.Avail), func(i int) bool { return b.Avail[i].Sz >= sz })
	b.Avail = append(b.Avail, AvailElem{})
	copy(b.Avail[idx+1:], b.Avail[idx:])
	b.Avail[idx] = AvailElem{Sz: sz, Addr: addr}
	b.dirty = true
	return true
}

// allocateLocal returns the smallest local-avail element with Sz >= need.
func (b *Bucket) allocateLocal(need uint32) (AvailElem, bool) {
	idx := sort.Search(len(b.Avail), func(i int) bool { return b.Avail[i].Sz >= need })
	if idx >= len(b.Avail) {
		return AvailElem{}, false
	}
	e := b.Avail[idx]
	b.Avail = append(b.Avail[:idx], b.Avail[idx+1:]...)
	b.dirty = true
	return e, true
}

// insert places elem at the first empty slot starting from its home slot,
// linear-probing forward (mod len(Tab)). Returns false if the bucket is full.
func (b *Bucket) insert(elem BucketElement) (slot int, ok bool) {
	n := len(b.Tab)
	s := int(homeSlot(elem.Hash, uint32(n)))

	for i := 0; i < n; i++ {
		idx := (s + i) % n
		if b.Tab[idx].Hash == emptyHash {
			b.Tab[idx] = elem
			b.Count++
			b.dirty = true
			return idx, true
		}
	}
	return 0, false
}

// find locates the slot matching key via quick match (hash, key size,
// key_start) on the caller-supplied hash; callers must still byte-compare
// the full key against the record before accepting a match.
func (b *Bucket) find(h uint32, keySize uint32, keyStart PartialKey) []int {
	n := len(b.Tab)
	s := int(homeSlot(h, uint32(n)))

	var candidates []int
	for i := 0; i < n; i++ {
		idx := (s + i) % n
		e := b.Tab[idx]
		if e.Hash == emptyHash {
			break
		}
		if e.Hash == h && e.KeySize == keySize && e.KeyStart == keyStart {
			candidates = append(candidates, idx)
		}
	}
	return candidates
}

// delete sentinels the slot at idx and runs Knuth Algorithm R compaction so
// every remaining live element stays reachable by forward probing from its
// home slot.
func (b *Bucket) delete(idx int) {
	n := len(b.Tab)
	b.Tab[idx] = emptyBucketElement()
	b.Count--
	b.dirty = true

	i := idx
	j := i
	for {
		j = (j + 1) % n
		if b.Tab[j].Hash == emptyHash {
			break
		}

		k := int(homeSlot(b.Tab[j].Hash, uint32(n)))

		var canMove bool
		if i <= j {
			canMove = k <= i || k > j
		} else {
			canMove = k <= i && k > j
		}

		if canMove {
			b.Tab[i] = b.Tab[j]
			b.Tab[j] = emptyBucketElement()
			i = j
		}
	}
}
