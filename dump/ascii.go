// Package dump implements the ASCII and binary dump/restore formats used to
// move a database's contents in and out of the engine's own on-disk layout,
// e.g. across machines with a different Layout than the original file.
package dump

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	gdbmgo "github.com/jgarzik/gdbmgo"
)

const asciiLineWidth = 60

// WriteASCII writes every entry from db in the portable, human-inspectable
// ASCII dump format: a commented header, then each key and value as a
// line-wrapped base64 block, then a trailing count and footer.
func WriteASCII(w io.Writer, db *gdbmgo.DB) error {
	entries, err := db.Iter()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# GDBM dump file created by gdbmgo")
	fmt.Fprintln(bw, "#:version=1.1")
	fmt.Fprintf(bw, "#:file=%s\n", db.Path())
	fmt.Fprintln(bw, "#:format=standard")
	fmt.Fprintln(bw, "# End of header")

	for _, e := range entries {
		if err := writeDatum(bw, e.Key); err != nil {
			return err
		}
		if err := writeDatum(bw, e.Value); err != nil {
			return err
		}
	}

	fmt.Fprintf(bw, "#:count=%d\n", len(entries))
	fmt.Fprintln(bw, "# End of data")

	return bw.Flush()
}

func writeDatum(bw *bufio.Writer, data []byte) error {
	fmt.Fprintf(bw, "#:len=%d\n", len(data))

	encoded := base64.StdEncoding.EncodeToString(data)
	for i := 0; i < len(encoded); i += asciiLineWidth {
		end := i + asciiLineWidth
		if end > len(encoded) {
			end = len(encoded)
		}
		if _, err := bw.WriteString(encoded[i:end]); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// ReadASCII parses an ASCII dump produced by WriteASCII (or real GDBM's own
// ASCII export) and inserts every key/value pair into db.
func ReadASCII(r io.Reader, db *gdbmgo.DB, replace bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if err := skipHeader(scanner); err != nil {
		return err
	}

	for {
		key, done, err := readDatum(scanner)
		if err != nil {
			return err
		}
		if done {
			break
		}

		value, done, err := readDatum(scanner)
		if err != nil {
			return err
		}
		if done {
			return fmt.Errorf("dump: ascii: key with no matching value")
		}

		if err := db.Insert(key, value, replace); err != nil {
			return err
		}
	}

	return nil
}

func skipHeader(scanner *bufio.Scanner) error {
	for scanner.Scan() {
		line := scanner.Text()
		if line == "# End of header" {
			return nil
		}
		if !strings.HasPrefix(line, "#") {
			return fmt.Errorf("dump: ascii: bad header line: %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("dump: ascii: missing end of header")
}

// readDatum reads one "#:len=N" block, or reports done=true on "#:count=N".
func readDatum(scanner *bufio.Scanner) (data []byte, done bool, err error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("dump: ascii: unexpected end of input")
	}

	line := scanner.Text()
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return nil, false, fmt.Errorf("dump: ascii: bad data line: %q", line)
	}

	switch key {
	case "#:count":
		return nil, true, nil
	case "#:len":
		length, err := strconv.Atoi(value)
		if err != nil {
			return nil, false, fmt.Errorf("dump: ascii: bad length %q: %w", value, err)
		}
		data, err := readBase64(scanner, length)
		if err != nil {
			return nil, false, err
		}
		return data, false, nil
	default:
		return nil, false, fmt.Errorf("dump: ascii: bad data line: %q", line)
	}
}

func readBase64(scanner *bufio.Scanner, length int) ([]byte, error) {
	encodedLen := base64.StdEncoding.EncodedLen(length)

	var sb strings.Builder
	for sb.Len() < encodedLen {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("dump: ascii: unexpected end of input reading base64 data")
		}
		sb.WriteString(scanner.Text())
	}

	decoded, err := base64.StdEncoding.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("dump: ascii: bad base64: %w", err)
	}
	if len(decoded) != length {
		return nil, fmt.Errorf("dump: ascii: length mismatch: header said %d, decoded %d", length, len(decoded))
	}
	return decoded, nil
}
