package dump

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	gdbmgo "github.com/jgarzik/gdbmgo"
)

// WriteBinary writes every entry from db in the compact binary dump format:
// a short text header followed by length-prefixed key/value pairs, each
// length encoded big-endian at the given alignment's width. End of stream is
// simply end of file; there is no trailing sentinel record.
func WriteBinary(w io.Writer, db *gdbmgo.DB, alignment gdbmgo.Alignment) error {
	entries, err := db.Iter()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# GDBM binary dump file created by gdbmgo")
	fmt.Fprintln(bw, "#:version=1.1")
	fmt.Fprintln(bw, "#:format=binary")
	fmt.Fprintln(bw, "# End of header")

	for _, e := range entries {
		if err := writeLengthPrefixed(bw, alignment, e.Key); err != nil {
			return err
		}
		if err := writeLengthPrefixed(bw, alignment, e.Value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeLengthPrefixed(w io.Writer, alignment gdbmgo.Alignment, data []byte) error {
	if alignment == gdbmgo.Align64 {
		if err := binary.Write(w, binary.BigEndian, uint64(len(data))); err != nil {
			return err
		}
	} else {
		if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
			return err
		}
	}
	_, err := w.Write(data)
	return err
}

// ReadBinary parses a binary dump produced by WriteBinary and inserts every
// key/value pair into db.
func ReadBinary(r io.Reader, db *gdbmgo.DB, alignment gdbmgo.Alignment, replace bool) error {
	br := bufio.NewReader(r)

	for i := 0; i < 4; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return fmt.Errorf("dump: binary: reading header: %w", err)
		}
	}

	for {
		key, eof, err := readLengthPrefixed(br, alignment)
		if err != nil {
			return err
		}
		if eof {
			return nil
		}

		value, eof, err := readLengthPrefixed(br, alignment)
		if err != nil {
			return err
		}
		if eof {
			return fmt.Errorf("dump: binary: key with no matching value")
		}

		if err := db.Insert(key, value, replace); err != nil {
			return err
		}
	}
}

func readLengthPrefixed(r io.Reader, alignment gdbmgo.Alignment) (data []byte, eof bool, err error) {
	width := 4
	if alignment == gdbmgo.Align64 {
		width = 8
	}

	lenBuf := make([]byte, width)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		if err == io.EOF {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("dump: binary: reading length prefix: %w", err)
	}

	var length uint64
	if width == 8 {
		length = binary.BigEndian.Uint64(lenBuf)
	} else {
		length = uint64(binary.BigEndian.Uint32(lenBuf))
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, false, fmt.Errorf("dump: binary: reading %d data bytes: %w", length, err)
	}
	return buf, false, nil
}
