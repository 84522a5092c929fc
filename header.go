package gdbm

import (
	"encoding/binary"
	"io"
)

const numsyncExtensionSize = 32

// Header is the on-disk file header at offset 0: sizes, offsets, the
// primary AvailBlock, and (optionally) the numsync extension.
type Header struct {
	Magic       Magic
	BlockSz     uint32
	DirOfs      uint64
	DirSz       uint32
	DirBits     uint32
	BucketSz    uint32
	BucketElems uint32
	NextBlock   uint64
	Numsync     *uint32 // non-nil only if Magic.IsNumsync()

	Avail *AvailBlock

	Layout Layout
	dirty  bool
}

// headerFixedSize is the byte length of every Header field up to (not
// including) the primary AvailBlock.
func headerFixedSize(layout Layout, isNumsync bool) int {
	n := 4 /* magic */ + 4 /* block_sz */ + direntSize(layout) /* dir_ofs */ +
		4 + 4 + 4 + 4 /* dir_sz, dir_bits, bucket_sz, bucket_elems */ +
		direntSize(layout) /* next_block */
	if isNumsync {
		n += numsyncExtensionSize
	}
	return n
}

// headerSize is the full on-disk footprint of the header, including a
// primary AvailBlock sized for availElems entries.
func headerSize(layout Layout, isNumsync bool, availElems uint32) int {
	return headerFixedSize(layout, isNumsync) + availBlockSize(layout, availElems)
}

// newHeader builds the header for a freshly created database: one bucket at
// blockSize, directory immediately after it, next_block three blocks in.
func newHeader(blockSize uint32, layout Layout, dirBits uint32, numsync bool) *Header {
	bucketElems := (blockSize - uint32(bucketHeaderSize(layout))) / uint32(bucketElementSize(layout))
	availElems := (blockSize - uint32(headerSize(layout, numsync, 0))) / uint32(availElemSize(layout))

	h := &Header{
		Magic:       NewMagic(layout.Endian, layout.Offset, numsync),
		BlockSz:     blockSize,
		DirOfs:      uint64(blockSize) * 2,
		DirSz:       blockSize,
		DirBits:     dirBits,
		BucketSz:    bucketSize(layout, bucketElems),
		BucketElems: bucketElems,
		NextBlock:   uint64(blockSize) * 3,
		Avail:       newAvailBlock(availElems),
		Layout:      layout,
		dirty:       true,
	}
	if numsync {
		var zero uint32
		h.Numsync = &zero
	}
	return h
}

// decodeHeader reads and validates the header at the start of r. fileSize is
// the current on-disk file size, used for several §3 invariant checks.
func decodeHeader(alignment *Alignment, fileSize uint64, r io.Reader) (*Header, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, err
	}
	magic, err := magicFromBytes(magicBuf)
	if err != nil {
		return nil, err
	}

	bo := byteOrder(magic.Endian())

	blockSz, err := read32(bo, r)
	if err != nil {
		return nil, err
	}

	layout := Layout{
		Offset: magic.Offset(),
		Endian: magic.Endian(),
	}
	if alignment != nil {
		layout.Alignment = *alignment
	} else {
		layout.Alignment = magic.DefaultAlignment()
	}

	dirOfs, err := readPlainOffset(layout, r)
	if err != nil {
		return nil, err
	}
	dirSz, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	dirBits, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	bucketSz, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	bucketElems, err := read32(bo, r)
	if err != nil {
		return nil, err
	}
	nextBlock, err := readPlainOffset(layout, r)
	if err != nil {
		return nil, err
	}

	var numsync *uint32
	if magic.IsNumsync() {
		n, err := readNumsync(bo, r)
		if err != nil {
			return nil, err
		}
		numsync = &n
	}

	avail, err := decodeAvailBlock(layout, r)
	if err != nil {
		return nil, err
	}

	h := &Header{
		Magic:       magic,
		BlockSz:     blockSz,
		DirOfs:      dirOfs,
		DirSz:       dirSz,
		DirBits:     dirBits,
		BucketSz:    bucketSz,
		BucketElems: bucketElems,
		NextBlock:   nextBlock,
		Numsync:     numsync,
		Avail:       avail,
		Layout:      layout,
	}

	if err := h.verify(fileSize); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Header) verify(fileSize uint64) error {
	minBlockSz := uint32(headerSize(h.Layout, h.Magic.IsNumsync(), 2))
	if h.BlockSz < minBlockSz {
		return badHeaderErr(BadHeaderBlockSize, "block_sz=%d below minimum %d", h.BlockSz, minBlockSz)
	}

	if h.NextBlock < fileSize {
		return badHeaderErr(BadHeaderNextBlock, "next_block=%d < file_size=%d", h.NextBlock, fileSize)
	}

	if h.DirOfs+uint64(h.DirSz) > fileSize {
		return badHeaderErr(BadHeaderDirectoryOffset, "dir_ofs=%d dir_sz=%d exceeds file_size=%d", h.DirOfs, h.DirSz, fileSize)
	}

	minDirSz, _ := buildDirSize(h.Layout.Offset, h.BlockSz)
	_, expectedBits := buildDirSize(h.Layout.Offset, h.DirSz)
	if h.DirSz < minDirSz || h.DirBits != expectedBits {
		return badHeaderErr(BadHeaderDirectory, "dir_sz=%d dir_bits=%d (minimum size %d, expected bits %d)", h.DirSz, h.DirBits, minDirSz, expectedBits)
	}

	minBucketSz := uint32(bucketHeaderSize(h.Layout)) + uint32(bucketElementSize(h.Layout))
	if h.BucketSz < minBucketSz {
		return badHeaderErr(BadHeaderBucketSize, "bucket_sz=%d below minimum %d", h.BucketSz, minBucketSz)
	}

	expectedElems := (h.BucketSz - uint32(bucketHeaderSize(h.Layout))) / uint32(bucketElementSize(h.Layout))
	if h.BucketElems != expectedElems {
		return badHeaderErr(BadHeaderBucketElems, "bucket_elems=%d expected %d", h.BucketElems, expectedElems)
	}

	for i, e := range h.Avail.Elems {
		if e.Addr < uint64(h.BlockSz) || e.Addr+uint64(e.Sz) > fileSize {
			return badHeaderErr(BadHeaderAvailElem, "avail elem %d: offset=%d size=%d out of [%d,%d)", i, e.Addr, e.Sz, h.BlockSz, fileSize)
		}
	}

	expectedAvailSize := uint32(headerSize(h.Layout, h.Magic.IsNumsync(), h.Avail.Capacity))
	if h.Avail.Capacity == 0 || h.BlockSz < expectedAvailSize {
		return badHeaderErr(BadHeaderAvail, "avail capacity=%d needs %d bytes, block_sz=%d", h.Avail.Capacity, expectedAvailSize, h.BlockSz)
	}

	if uint32(len(h.Avail.Elems)) > h.Avail.Capacity {
		return badHeaderErr(BadHeaderAvailCount, "avail has %d elems, capacity %d", len(h.Avail.Elems), h.Avail.Capacity)
	}

	return nil
}

// encode writes the header, including its primary AvailBlock, to w.
func (h *Header) encode(w io.Writer) error {
	bo := byteOrder(h.Layout.Endian)
	magicBytes := h.Magic.bytes()

	if _, err := w.Write(magicBytes[:]); err != nil {
		return err
	}
	if err := write32(bo, w, h.BlockSz); err != nil {
		return err
	}
	if err := writePlainOffset(h.Layout, w, h.DirOfs); err != nil {
		return err
	}
	if err := write32(bo, w, h.DirSz); err != nil {
		return err
	}
	if err := write32(bo, w, h.DirBits); err != nil {
		return err
	}
	if err := write32(bo, w, h.BucketSz); err != nil {
		return err
	}
	if err := write32(bo, w, h.BucketElems); err != nil {
		return err
	}
	if err := writePlainOffset(h.Layout, w, h.NextBlock); err != nil {
		return err
	}

	if h.Magic.IsNumsync() {
		n := uint32(0)
		if h.Numsync != nil {
			n = *h.Numsync
		}
		if err := writeNumsync(bo, w, n); err != nil {
			return err
		}
	}

	return h.Avail.encode(h.Layout, w)
}

func readNumsync(bo binary.ByteOrder, r io.Reader) (uint32, error) {
	version, err := read32(bo, r)
	if err != nil {
		return 0, err
	}
	if version != 0 {
		return 0, badHeaderErr(BadHeaderNumsyncVersion, "version=%d", version)
	}

	num, err := read32(bo, r)
	if err != nil {
		return 0, err
	}

	// three reserved 64-bit zero fields
	for i := 0; i < 3; i++ {
		if _, err := read64(bo, r); err != nil {
			return 0, err
		}
	}

	return num, nil
}

func writeNumsync(bo binary.ByteOrder, w io.Writer, numsync uint32) error {
	if err := write32(bo, w, 0); err != nil {
		return err
	}
	if err := write32(bo, w, numsync); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := write64(bo, w, 0); err != nil {
			return err
		}
	}
	return nil
}

// incrementNumsync bumps the numsync counter if this magic carries one.
func (h *Header) incrementNumsync() {
	if !h.Magic.IsNumsync() {
		return
	}
	var next uint32
	if h.Numsync != nil {
		next = *h.Numsync + 1
	}
	h.Numsync = &next
	h.dirty = true
}

// convertNumsync switches the header's magic to use (or stop using) the
// numsync extension, resizes the primary avail capacity to match the new
// fixed-header footprint, and returns any avail elements displaced by the
// resize for the caller to free elsewhere.
func (h *Header) convertNumsync(useNumsync bool) []struct {
	Offset uint64
	Size   uint32
} {
	newAvailSz := (h.BlockSz - uint32(headerSize(h.Layout, useNumsync, 0))) / uint32(availElemSize(h.Layout))

	h.Magic = NewMagic(h.Magic.Endian(), h.Magic.Offset(), useNumsync)
	if useNumsync {
		var zero uint32
		h.Numsync = &zero
	} else {
		h.Numsync = nil
	}
	h.dirty = true

	return h.Avail.resize(newAvailSz)
}

// allocate and free (the overflow-chain-aware versions that push/splice
// AvailBlocks) live on *DB in avail_chain.go — they need file I/O to read
// and write overflow blocks, which Header alone has no access to.
