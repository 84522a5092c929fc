package gdbm

import (
	"io"
	"sort"
)

// AvailElem describes one free region of the file: sz bytes starting at addr.
type AvailElem struct {
	Sz   uint32
	Addr uint64
}

func availElemSize(layout Layout) int {
	return 4 + offsetFieldSize(layout)
}

func decodeAvailElem(layout Layout, r io.Reader) (AvailElem, error) {
	bo := byteOrder(layout.Endian)
	sz, err := read32(bo, r)
	if err != nil {
		return AvailElem{}, err
	}
	addr, err := readOffset(layout, r)
	if err != nil {
		return AvailElem{}, err
	}
	return AvailElem{Sz: sz, Addr: addr}, nil
}

func (e AvailElem) encode(layout Layout, w io.Writer) error {
	bo := byteOrder(layout.Endian)
	if err := write32(bo, w, e.Sz); err != nil {
		return err
	}
	return writeOffset(layout, w, e.Addr)
}

// AvailBlock is a size-sorted free list: the primary block lives inline in
// the header, overflow blocks are chained via NextBlock.
type AvailBlock struct {
	Capacity  uint32 // "sz" in spec.md: max elements this block can hold
	NextBlock uint64
	Elems     []AvailElem // sorted ascending by Sz
}

func availBlockSize(layout Layout, capacity uint32) int {
	return 4 + 4 + direntSize(layout) + int(capacity)*availElemSize(layout)
}

func newAvailBlock(capacity uint32) *AvailBlock {
	return &AvailBlock{Capacity: capacity}
}

func decodeAvailBlock(layout Layout, r io.Reader) (*AvailBlock, error) {
	bo := byteOrder(layout.Endian)

	capacity, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	count, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	next, err := readPlainOffset(layout, r)
	if err != nil {
		return nil, err
	}

	elems := make([]AvailElem, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeAvailElem(layout, r)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}

	return &AvailBlock{Capacity: capacity, NextBlock: next, Elems: elems}, nil
}

func (b *AvailBlock) encode(layout Layout, w io.Writer) error {
	bo := byteOrder(layout.Endian)

	if err := write32(bo, w, b.Capacity); err != nil {
		return err
	}
	if err := write32(bo, w, uint32(len(b.Elems))); err != nil {
		return err
	}
	if err := writePlainOffset(layout, w, b.NextBlock); err != nil {
		return err
	}
	for _, e := range b.Elems {
		if err := e.encode(layout, w); err != nil {
			return err
		}
	}
	return nil
}

// insert inserts (addr, sz) keeping Elems sorted ascending by Sz. Returns
// false, inserting nothing, when the block is already at capacity (the
// caller must push it before inserting in that case — see DB.free in
// avail_chain.go).
func (b *AvailBlock) insert(sz uint32, addr uint64) bool {
	if uint32(len(b.Elems)) >= b.Capacity {
		return false
	}

	idx := sort.Search(len(b.Elems), func(i int) bool { return b.Elems[i].Sz >= sz })
	b.Elems = append(b.Elems, AvailElem{})
	copy(b.Elems[idx+1:], b.Elems[idx:])
	b.Elems[idx] = AvailElem{Sz: sz, Addr: addr}
	return true
}

// remove returns the smallest element with Sz >= need, or ok=false.
func (b *AvailBlock) remove(need uint32) (AvailElem, bool) {
	idx := sort.Search(len(b.Elems), func(i int) bool { return b.Elems[i].Sz >= need })
	if idx >= len(b.Elems) {
		return AvailElem{}, false
	}
	e := b.Elems[idx]
	b.Elems = append(b.Elems[:idx], b.Elems[idx+1:]...)
	return e, true
}

// resize truncates to the largest newCapacity elements (by Sz), returning
// the discarded (smaller) elements as (offset, size) pairs for the caller to
// reinsert or forget. Elements <= 4 bytes may be silently dropped by the
// caller, matching the original allocator's behaviour (spec.md §9 open
// question i).
func (b *AvailBlock) resize(newCapacity uint32) []struct {
	Offset uint64
	Size   uint32
} {
	b.Capacity = newCapacity

	if uint32(len(b.Elems)) <= newCapacity {
		return nil
	}

	// Elems is sorted ascending; the smallest (len-newCapacity) are discarded.
	cut := len(b.Elems) - int(newCapacity)
	discarded := b.Elems[:cut]
	b.Elems = append([]AvailElem(nil), b.Elems[cut:]...)

	out := make([]struct {
		Offset uint64
		Size   uint32
	}, len(discarded))
	for i, e := range discarded {
		out[i].Offset = e.Addr
		out[i].Size = e.Sz
	}
	return out
}
