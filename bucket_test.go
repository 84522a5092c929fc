package gdbm

import (
	"bytes"
	"testing"
)

func Test_Bucket_Insert_Find_Delete_Roundtrip(t *testing.T) {
	t.Parallel()

	b := newBucket(8, 0)

	key := []byte("hello")
	h := hashKey(key)
	elem := BucketElement{Hash: h, KeyStart: partialKeyOf(key), DataOfs: 4096, KeySize: 5, DataSize: 3}

	slot, ok := b.insert(elem)
	if !ok {
		t.Fatal("insert should succeed into an empty bucket")
	}
	if b.Count != 1 {
		t.Fatalf("Count=%d, want 1", b.Count)
	}

	candidates := b.find(h, 5, partialKeyOf(key))
	if len(candidates) != 1 || candidates[0] != slot {
		t.Fatalf("find=%v, want [%d]", candidates, slot)
	}

	b.delete(slot)
	if b.Count != 0 {
		t.Fatalf("Count=%d after delete, want 0", b.Count)
	}
	if b.Tab[slot].Hash != emptyHash {
		t.Fatalf("slot %d not sentinel after delete", slot)
	}
}

func Test_Bucket_Insert_Reports_Full(t *testing.T) {
	t.Parallel()

	b := newBucket(2, 0)
	e1 := BucketElement{Hash: 1, KeyStart: [4]byte{1}, DataOfs: 10, KeySize: 1, DataSize: 1}
	e2 := BucketElement{Hash: 2, KeyStart: [4]byte{2}, DataOfs: 20, KeySize: 1, DataSize: 1}
	e3 := BucketElement{Hash: 3, KeyStart: [4]byte{3}, DataOfs: 30, KeySize: 1, DataSize: 1}

	if _, ok := b.insert(e1); !ok {
		t.Fatal("insert 1 should succeed")
	}
	if _, ok := b.insert(e2); !ok {
		t.Fatal("insert 2 should succeed")
	}
	if _, ok := b.insert(e3); ok {
		t.Fatal("insert 3 should fail, bucket full")
	}
}

func Test_Bucket_Delete_Compacts_Probe_Chain(t *testing.T) {
	t.Parallel()

	// Force a collision: two elements whose home slot is the same, the
	// second having probed forward one slot, so deleting the first must
	// shift the second backward to keep it reachable.
	n := uint32(4)
	b := newBucket(n, 0)

	homeHash := uint32(0)
	for homeSlot(homeHash, n) != 0 {
		homeHash++
	}
	collidingHash := homeHash + 1
	for homeSlot(collidingHash, n) != 0 {
		collidingHash++
	}

	e1 := BucketElement{Hash: homeHash, KeyStart: [4]byte{1}, DataOfs: 10, KeySize: 1, DataSize: 1}
	e2 := BucketElement{Hash: collidingHash, KeyStart: [4]byte{2}, DataOfs: 20, KeySize: 1, DataSize: 1}

	slot1, ok := b.insert(e1)
	if !ok || slot1 != 0 {
		t.Fatalf("insert e1: slot=%d ok=%v, want 0 true", slot1, ok)
	}
	slot2, ok := b.insert(e2)
	if !ok || slot2 != 1 {
		t.Fatalf("insert e2: slot=%d ok=%v, want 1 true (forced to probe forward)", slot2, ok)
	}

	b.delete(slot1)

	if b.Tab[0].Hash != collidingHash {
		t.Fatalf("after deleting slot 0, slot 0 should hold the shifted element, got hash=%d", b.Tab[0].Hash)
	}
	if b.Tab[1].Hash != emptyHash {
		t.Fatalf("after compaction slot 1 should be empty, got hash=%d", b.Tab[1].Hash)
	}
}

func Test_Bucket_Local_Avail_Allocate_And_Free(t *testing.T) {
	t.Parallel()

	b := newBucket(8, 0)

	if !b.freeLocal(100, 4096) {
		t.Fatal("freeLocal should succeed under capacity")
	}
	if !b.freeLocal(50, 8192) {
		t.Fatal("freeLocal should succeed under capacity")
	}

	e, ok := b.allocateLocal(60)
	if !ok {
		t.Fatal("allocateLocal(60) should find the 100-byte region")
	}
	if e.Sz != 100 || e.Addr != 4096 {
		t.Fatalf("allocateLocal(60)=%+v, want Sz=100 Addr=4096", e)
	}
	if len(b.Avail) != 1 {
		t.Fatalf("Avail has %d entries after allocate, want 1", len(b.Avail))
	}
}

func Test_Bucket_Local_Avail_Reports_Full(t *testing.T) {
	t.Parallel()

	b := newBucket(8, 0)
	for i := 0; i < bucketAvailCap; i++ {
		if !b.freeLocal(uint32(i+1), uint64(i*100)) {
			t.Fatalf("freeLocal #%d should succeed under capacity", i)
		}
	}
	if b.freeLocal(999, 9999) {
		t.Fatal("freeLocal should fail once bucketAvailCap is reached")
	}
}

func Test_Bucket_RoundTrips_Through_Encode_Decode(t *testing.T) {
	t.Parallel()

	layout := layout64()
	b := newBucket(4, 2)
	b.freeLocal(10, 100)
	elem := BucketElement{Hash: 5, KeyStart: [4]byte{'a', 'b', 'c', 'd'}, DataOfs: 8192, KeySize: 4, DataSize: 10}
	b.insert(elem)

	var buf bytes.Buffer
	if err := b.encode(layout, &buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got, want := buf.Len(), int(bucketSize(layout, 4)); got != want {
		t.Fatalf("encoded length=%d, want %d", got, want)
	}

	got, err := decodeBucket(layout, 4, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bits != b.Bits || got.Count != b.Count || len(got.Avail) != len(b.Avail) {
		t.Fatalf("got %+v, want %+v", got, b)
	}
	// Hash 5 homes to slot 5 % 4 = 1.
	if got.Tab[1] != elem {
		t.Fatalf("decoded Tab[1]=%+v, want %+v", got.Tab[1], elem)
	}
}
