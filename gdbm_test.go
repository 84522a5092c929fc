package gdbm

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gdbm")
	db, err := Create(path, Options{BlockSize: 512})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Create_Then_Open_Preserves_Contents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.gdbm")

	db, err := Create(path, Options{BlockSize: 512, SyncOnDrop: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Insert([]byte("k1"), []byte("v1"), false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get([]byte("k1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(value) != "v1" {
		t.Fatalf("Get=%q ok=%v, want v1 true", value, ok)
	}
}

func Test_Insert_Get_Remove_Roundtrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	if err := db.Insert([]byte("alpha"), []byte("1"), false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Insert([]byte("beta"), []byte("2"), false); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	v, ok, err := db.Get([]byte("alpha"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("Get(alpha)=%q ok=%v err=%v, want 1 true nil", v, ok, err)
	}

	if db.Len() != 2 {
		t.Fatalf("Len()=%d, want 2", db.Len())
	}

	if err := db.Remove([]byte("alpha")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if db.Len() != 1 {
		t.Fatalf("Len()=%d after remove, want 1", db.Len())
	}

	_, ok, err = db.Get([]byte("alpha"))
	if err != nil {
		t.Fatalf("Get after remove: %v", err)
	}
	if ok {
		t.Fatal("Get(alpha) should report absent after Remove")
	}

	if err := db.Remove([]byte("alpha")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Remove(alpha) again: err=%v, want ErrKeyNotFound", err)
	}
}

func Test_Insert_Without_Replace_Rejects_Duplicate_Key(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	if err := db.Insert([]byte("k"), []byte("v1"), false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err := db.Insert([]byte("k"), []byte("v2"), false)
	if !errors.Is(err, ErrKeyExists) {
		t.Fatalf("err=%v, want ErrKeyExists", err)
	}

	v, _, _ := db.Get([]byte("k"))
	if string(v) != "v1" {
		t.Fatalf("value=%q, want v1 (unchanged)", v)
	}
}

func Test_Insert_With_Replace_Overwrites_Existing_Value(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	if err := db.Insert([]byte("k"), []byte("v1"), false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Insert([]byte("k"), []byte("a much longer replacement value"), true); err != nil {
		t.Fatalf("Insert replace: %v", err)
	}

	v, ok, err := db.Get([]byte("k"))
	if err != nil || !ok || string(v) != "a much longer replacement value" {
		t.Fatalf("Get=%q ok=%v err=%v", v, ok, err)
	}
	if db.Len() != 1 {
		t.Fatalf("Len()=%d, want 1 (replace must not grow the count)", db.Len())
	}
}

func Test_Insert_Triggers_Bucket_Split_Under_Load(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	initialEntries := len(db.dir.Entries)

	const n = 2000
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%05d", i))
		value := []byte(fmt.Sprintf("value-%05d", i))
		if err := db.Insert(key, value, false); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	if db.Len() != n {
		t.Fatalf("Len()=%d, want %d", db.Len(), n)
	}

	// The directory must have doubled beyond its initial size (a 512-byte
	// directory of 4-byte offsets: 128 entries) to hold this many keys in
	// 512-byte buckets.
	if len(db.dir.Entries) <= initialEntries {
		t.Fatalf("directory has %d entries, expected growth past the initial %d", len(db.dir.Entries), initialEntries)
	}

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%05d", i))
		want := fmt.Sprintf("value-%05d", i)
		v, ok, err := db.Get(key)
		if err != nil || !ok || string(v) != want {
			t.Fatalf("Get(%s)=%q ok=%v err=%v, want %q true nil", key, v, ok, err, want)
		}
	}
}

func Test_Iter_Visits_Every_Entry_Exactly_Once(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	const n = 500
	want := make(map[string]string, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%d", i)
		value := fmt.Sprintf("v%d", i)
		want[key] = value
		if err := db.Insert([]byte(key), []byte(value), false); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	entries, err := db.Iter()
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("Iter returned %d entries, want %d", len(entries), n)
	}

	got := make(map[string]string, n)
	for _, e := range entries {
		got[string(e.Key)] = string(e.Value)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("entry %q=%q, want %q", k, got[k], v)
		}
	}
}

func Test_CompareAndSwap_Insert_When_Absent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	actual, swapped, err := db.CompareAndSwap([]byte("k"), nil, []byte("v1"))
	if err != nil || !swapped || string(actual) != "v1" {
		t.Fatalf("CompareAndSwap=%q swapped=%v err=%v, want v1 true nil", actual, swapped, err)
	}

	v, ok, _ := db.Get([]byte("k"))
	if !ok || string(v) != "v1" {
		t.Fatalf("Get=%q ok=%v, want v1 true", v, ok)
	}
}

func Test_CompareAndSwap_Fails_On_Mismatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Insert([]byte("k"), []byte("v1"), false); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	actual, swapped, err := db.CompareAndSwap([]byte("k"), []byte("wrong"), []byte("v2"))
	if err != nil || swapped || string(actual) != "v1" {
		t.Fatalf("CompareAndSwap=%q swapped=%v err=%v, want v1 false nil", actual, swapped, err)
	}

	v, _, _ := db.Get([]byte("k"))
	if string(v) != "v1" {
		t.Fatalf("value changed to %q after a failed swap", v)
	}
}

func Test_CompareAndSwap_Deletes_On_Match_With_Nil_New(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Insert([]byte("k"), []byte("v1"), false); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	actual, swapped, err := db.CompareAndSwap([]byte("k"), []byte("v1"), nil)
	if err != nil || !swapped || actual != nil {
		t.Fatalf("CompareAndSwap=%q swapped=%v err=%v, want nil true nil", actual, swapped, err)
	}

	_, ok, _ := db.Get([]byte("k"))
	if ok {
		t.Fatal("key should be gone after CompareAndSwap delete")
	}
}

func Test_Writes_Rejected_On_ReadOnly_Handle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.gdbm")
	db, err := Create(path, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ro, err := Open(path, Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("Open read-only: %v", err)
	}
	defer ro.Close()

	err = ro.Insert([]byte("k"), []byte("v"), true)
	if !errors.Is(err, ErrNotWritable) {
		t.Fatalf("err=%v, want ErrNotWritable", err)
	}
}

func Test_Operations_Rejected_After_Close(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, _, err := db.Get([]byte("k"))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err=%v, want ErrClosed", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}
