package gdbm

import "fmt"

// Magic identifies one of the ten recognised on-disk magic numbers: eight
// current variants plus the legacy pre-1.x OMAGIC pair (kept for read
// compatibility only). It is a
// closed, tagged enumeration — never represent it as a bare integer at call
// sites.
type Magic int

const (
	MagicOMAGIC_LE Magic = iota
	MagicOMAGIC_BE
	MagicLE32
	MagicBE32
	MagicLE64
	MagicBE64
	MagicLE32NS
	MagicBE32NS
	MagicLE64NS
	MagicBE64NS
)

var magicBytes = map[Magic][4]byte{
	MagicOMAGIC_LE: {0xce, 0x9a, 0x57, 0x13},
	MagicOMAGIC_BE: {0x13, 0x57, 0x9a, 0xce},
	MagicLE32:      {0xcd, 0x9a, 0x57, 0x13},
	MagicLE64:      {0xcf, 0x9a, 0x57, 0x13},
	MagicLE32NS:    {0xd0, 0x9a, 0x57, 0x13},
	MagicLE64NS:    {0xd1, 0x9a, 0x57, 0x13},
	MagicBE32:      {0x13, 0x57, 0x9a, 0xcd},
	MagicBE64:      {0x13, 0x57, 0x9a, 0xcf},
	MagicBE32NS:    {0x13, 0x57, 0x9a, 0xd0},
	MagicBE64NS:    {0x13, 0x57, 0x9a, 0xd1},
}

var magicNames = map[Magic]string{
	MagicOMAGIC_LE: "GDBM_OMAGIC",
	MagicOMAGIC_BE: "GDBM_OMAGIC_SWAP",
	MagicLE32:      "GDBM_MAGIC32",
	MagicLE64:      "GDBM_MAGIC64",
	MagicLE32NS:    "GDBM_NUMSYNC_MAGIC32",
	MagicLE64NS:    "GDBM_NUMSYNC_MAGIC64",
	MagicBE32:      "GDBM_MAGIC32_SWAP",
	MagicBE64:      "GDBM_MAGIC64_SWAP",
	MagicBE32NS:    "GDBM_NUMSYNC_MAGIC32_SWAP",
	MagicBE64NS:    "GDBM_NUMSYNC_MAGIC64_SWAP",
}

// NewMagic builds the Magic variant matching the given endian/offset/numsync
// combination.
func NewMagic(endian Endian, offset OffsetWidth, numsync bool) Magic {
	switch {
	case endian == LittleEndian && offset == Offset32 && !numsync:
		return MagicLE32
	case endian == LittleEndian && offset == Offset32 && numsync:
		return MagicLE32NS
	case endian == LittleEndian && offset == Offset64 && !numsync:
		return MagicLE64
	case endian == LittleEndian && offset == Offset64 && numsync:
		return MagicLE64NS
	case endian == BigEndian && offset == Offset32 && !numsync:
		return MagicBE32
	case endian == BigEndian && offset == Offset32 && numsync:
		return MagicBE32NS
	case endian == BigEndian && offset == Offset64 && !numsync:
		return MagicBE64
	default:
		return MagicBE64NS
	}
}

// magicFromBytes identifies the Magic matching the first 4 bytes of a
// database file, or ErrBadMagic if none match.
func magicFromBytes(buf [4]byte) (Magic, error) {
	for m, b := range magicBytes {
		if b == buf {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %x", ErrBadMagic, buf)
}

// Endian reports the byte order this magic encodes.
func (m Magic) Endian() Endian {
	switch m {
	case MagicOMAGIC_LE, MagicLE32, MagicLE64, MagicLE32NS, MagicLE64NS:
		return LittleEndian
	default:
		return BigEndian
	}
}

// Offset reports the offset width this magic encodes.
func (m Magic) Offset() OffsetWidth {
	switch m {
	case MagicLE64, MagicBE64, MagicLE64NS, MagicBE64NS:
		return Offset64
	default:
		return Offset32
	}
}

// IsNumsync reports whether this magic carries the numsync header extension.
func (m Magic) IsNumsync() bool {
	switch m {
	case MagicLE32NS, MagicBE32NS, MagicLE64NS, MagicBE64NS:
		return true
	default:
		return false
	}
}

// IsLegacy reports whether this magic is the pre-1.x OMAGIC format, which is
// read-only by convention (spec.md open question iii).
func (m Magic) IsLegacy() bool {
	return m == MagicOMAGIC_LE || m == MagicOMAGIC_BE
}

// DefaultAlignment returns the alignment GDBM conventionally uses for this
// magic. Since alignment is not actually recoverable from the magic alone,
// callers that know better can override it via Options.Alignment.
func (m Magic) DefaultAlignment() Alignment {
	switch m {
	case MagicLE64, MagicBE64, MagicLE64NS, MagicBE64NS:
		return Align64
	default:
		return Align32
	}
}

func (m Magic) bytes() [4]byte { return magicBytes[m] }

// String returns the conventional GDBM name for this magic, e.g. "GDBM_MAGIC32".
func (m Magic) String() string {
	if name, ok := magicNames[m]; ok {
		return name
	}
	return "GDBM_UNKNOWN_MAGIC"
}
