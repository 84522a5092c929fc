package gdbm

import (
	"encoding/binary"
	"fmt"
	"io"
)

func byteOrder(e Endian) binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// read32 reads one little- or big-endian uint32, per layout.Endian.
func read32(bo binary.ByteOrder, r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read32: %w", err)
	}
	return bo.Uint32(buf[:]), nil
}

// write32 writes one little- or big-endian uint32.
func write32(bo binary.ByteOrder, w io.Writer, v uint32) error {
	var buf [4]byte
	bo.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	if err != nil {
		return fmt.Errorf("write32: %w", err)
	}
	return nil
}

// read64 reads one little- or big-endian uint64.
func read64(bo binary.ByteOrder, r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read64: %w", err)
	}
	return bo.Uint64(buf[:]), nil
}

// write64 writes one little- or big-endian uint64.
func write64(bo binary.ByteOrder, w io.Writer, v uint64) error {
	var buf [8]byte
	bo.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	if err != nil {
		return fmt.Errorf("write64: %w", err)
	}
	return nil
}

// readOffset reads a file offset per layout: 4 or 8 bytes depending on
// layout.Offset, preceded by a 4-byte zero pad when layout.offsetPadded().
func readOffset(layout Layout, r io.Reader) (uint64, error) {
	bo := byteOrder(layout.Endian)

	if layout.offsetPadded() {
		if _, err := read32(bo, r); err != nil {
			return 0, err
		}
	}

	if layout.Offset == Offset64 {
		return read64(bo, r)
	}

	v, err := read32(bo, r)
	return uint64(v), err
}

// writeOffset writes a file offset per layout, mirroring readOffset.
func writeOffset(layout Layout, w io.Writer, v uint64) error {
	bo := byteOrder(layout.Endian)

	if layout.offsetPadded() {
		if err := write32(bo, w, 0); err != nil {
			return err
		}
	}

	if layout.Offset == Offset64 {
		return write64(bo, w, v)
	}

	return write32(bo, w, uint32(v))
}

// readPlainOffset/writePlainOffset handle the offset fields that carry no
// alignment pad regardless of layout.Alignment: the directory's array of
// bucket offsets, Header.DirOfs/NextBlock, AvailBlock.NextBlock and
// BucketElement.DataOfs (unlike AvailElem.Addr).
func readPlainOffset(layout Layout, r io.Reader) (uint64, error) {
	bo := byteOrder(layout.Endian)
	if layout.Offset == Offset64 {
		return read64(bo, r)
	}
	v, err := read32(bo, r)
	return uint64(v), err
}

func writePlainOffset(layout Layout, w io.Writer, v uint64) error {
	bo := byteOrder(layout.Endian)
	if layout.Offset == Offset64 {
		return write64(bo, w, v)
	}
	return write32(bo, w, uint32(v))
}

// offsetFieldSize is the total on-disk footprint of one readOffset/
// writeOffset field, including any alignment pad.
func offsetFieldSize(layout Layout) int {
	n := layout.offsetSize()
	if layout.offsetPadded() {
		n += 4
	}
	return n
}
