package gdbm

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func Test_Iter_Returns_Every_Inserted_Entry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.gdbm")
	db, err := Create(path, Options{BlockSize: 512})
	require.NoError(t, err, "Create should succeed")
	t.Cleanup(func() { _ = db.Close() })

	const n = 64
	want := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%03d", i))
		value := []byte(fmt.Sprintf("value-%03d", i))
		require.NoError(t, db.Insert(key, value, false), "Insert should succeed for %s", key)
		want = append(want, Entry{Key: key, Value: value})
	}

	got, err := db.Iter()
	require.NoError(t, err, "Iter should succeed")

	sortEntries := func(entries []Entry) {
		sort.Slice(entries, func(i, j int) bool {
			return string(entries[i].Key) < string(entries[j].Key)
		})
	}
	sortEntries(got)
	sortEntries(want)

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("Iter() mismatch (-want +got):\n%s", diff)
	}
}

func Test_Keys_And_Values_Match_Iter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.gdbm")
	db, err := Create(path, Options{BlockSize: 512})
	require.NoError(t, err, "Create should succeed")
	t.Cleanup(func() { _ = db.Close() })

	entries := map[string]string{
		"a": "1",
		"b": "2",
		"c": "3",
	}
	for k, v := range entries {
		require.NoError(t, db.Insert([]byte(k), []byte(v), false))
	}

	keys, err := db.Keys()
	require.NoError(t, err, "Keys should succeed")
	require.Len(t, keys, len(entries), "Keys should return one entry per key")

	values, err := db.Values()
	require.NoError(t, err, "Values should succeed")
	require.Len(t, values, len(entries), "Values should return one entry per key")

	iterated, err := db.Iter()
	require.NoError(t, err, "Iter should succeed")
	require.Len(t, iterated, len(entries), "Iter should return one entry per key")
	for i, e := range iterated {
		require.Equal(t, e.Key, keys[i], "Keys()[%d] should match Iter's key", i)
		require.Equal(t, e.Value, values[i], "Values()[%d] should match Iter's value", i)
	}

	for k, v := range entries {
		got, ok, err := db.Get([]byte(k))
		require.NoError(t, err)
		require.True(t, ok, "Get(%s) should find the key", k)
		require.Equal(t, v, string(got))
	}
}

func Test_Iter_Returns_Empty_For_New_Database(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.gdbm")
	db, err := Create(path, Options{BlockSize: 512})
	require.NoError(t, err, "Create should succeed")
	t.Cleanup(func() { _ = db.Close() })

	got, err := db.Iter()
	require.NoError(t, err, "Iter should succeed on an empty database")
	require.Empty(t, got, "a freshly created database should iterate to no entries")
}
