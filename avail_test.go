package gdbm

import (
	"bytes"
	"testing"
)

func layout32() Layout { return Layout{Offset: Offset32, Endian: LittleEndian, Alignment: Align32} }
func layout64() Layout { return Layout{Offset: Offset64, Endian: LittleEndian, Alignment: Align64} }

func Test_AvailElem_RoundTrips_Padded_At_64Bit(t *testing.T) {
	t.Parallel()

	layout := layout64()
	e := AvailElem{Sz: 128, Addr: 0xdeadbeef}

	var buf bytes.Buffer
	if err := e.encode(layout, &buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got, want := buf.Len(), availElemSize(layout); got != want {
		t.Fatalf("encoded length=%d, want %d", got, want)
	}

	got, err := decodeAvailElem(layout, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != e {
		t.Fatalf("got %+v, want %+v", got, e)
	}
}

func Test_AvailElem_RoundTrips_Unpadded_At_32Bit(t *testing.T) {
	t.Parallel()

	layout := layout32()
	e := AvailElem{Sz: 64, Addr: 4096}

	var buf bytes.Buffer
	if err := e.encode(layout, &buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got, want := buf.Len(), 8; got != want {
		t.Fatalf("encoded length=%d, want %d (no padding at 32-bit)", got, want)
	}

	got, err := decodeAvailElem(layout, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != e {
		t.Fatalf("got %+v, want %+v", got, e)
	}
}

func Test_AvailBlock_Insert_Keeps_Ascending_Order(t *testing.T) {
	t.Parallel()

	b := newAvailBlock(4)
	if !b.insert(100, 1000) {
		t.Fatal("insert should succeed under capacity")
	}
	if !b.insert(10, 2000) {
		t.Fatal("insert should succeed under capacity")
	}
	if !b.insert(50, 3000) {
		t.Fatal("insert should succeed under capacity")
	}

	sizes := make([]uint32, len(b.Elems))
	for i, e := range b.Elems {
		sizes[i] = e.Sz
	}
	want := []uint32{10, 50, 100}
	if len(sizes) != len(want) {
		t.Fatalf("sizes=%v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("sizes=%v, want %v", sizes, want)
		}
	}
}

func Test_AvailBlock_Insert_Reports_Full(t *testing.T) {
	t.Parallel()

	b := newAvailBlock(1)
	if !b.insert(10, 100) {
		t.Fatal("first insert should succeed")
	}
	if b.insert(20, 200) {
		t.Fatal("insert should fail once capacity is reached")
	}
}

func Test_AvailBlock_Remove_Returns_Smallest_Fit(t *testing.T) {
	t.Parallel()

	b := newAvailBlock(4)
	b.insert(10, 100)
	b.insert(50, 200)
	b.insert(100, 300)

	e, ok := b.remove(40)
	if !ok {
		t.Fatal("remove(40) should find a fit")
	}
	if e.Sz != 50 || e.Addr != 200 {
		t.Fatalf("remove(40)=%+v, want Sz=50 Addr=200", e)
	}
	if len(b.Elems) != 2 {
		t.Fatalf("remaining elems=%d, want 2", len(b.Elems))
	}
}

func Test_AvailBlock_Remove_Fails_When_Nothing_Large_Enough(t *testing.T) {
	t.Parallel()

	b := newAvailBlock(4)
	b.insert(10, 100)

	_, ok := b.remove(100)
	if ok {
		t.Fatal("remove(100) should fail, nothing that large")
	}
}

func Test_AvailBlock_Resize_Discards_Smallest(t *testing.T) {
	t.Parallel()

	b := newAvailBlock(4)
	b.insert(10, 100)
	b.insert(20, 200)
	b.insert(30, 300)
	b.insert(40, 400)

	discarded := b.resize(2)
	if len(discarded) != 2 {
		t.Fatalf("discarded=%d entries, want 2", len(discarded))
	}
	if discarded[0].Size != 10 || discarded[1].Size != 20 {
		t.Fatalf("discarded=%+v, want sizes [10 20]", discarded)
	}
	if len(b.Elems) != 2 || b.Elems[0].Sz != 30 || b.Elems[1].Sz != 40 {
		t.Fatalf("remaining=%+v, want sizes [30 40]", b.Elems)
	}
}

func Test_AvailBlock_RoundTrips_Through_Encode_Decode(t *testing.T) {
	t.Parallel()

	layout := layout64()
	b := newAvailBlock(4)
	b.insert(10, 100)
	b.insert(20, 200)
	b.NextBlock = 99999

	var buf bytes.Buffer
	if err := b.encode(layout, &buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := decodeAvailBlock(layout, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Capacity != b.Capacity || got.NextBlock != b.NextBlock || len(got.Elems) != len(b.Elems) {
		t.Fatalf("got %+v, want %+v", got, b)
	}
}
