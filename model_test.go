package gdbm

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// This file checks the engine against a deliberately simple in-memory
// model: a plain map tracking every key currently present. It exercises the
// same property spec.md's length invariant describes (Len() equals the
// number of distinct keys ever inserted and not removed) by applying
// identical operation sequences to both and asserting they never diverge.

func Test_Engine_Matches_Model_Property(t *testing.T) {
	const seedCount = 20
	const opsPerSeed = 300

	for i := 0; i < seedCount; i++ {
		seed := int64(i + 1)

		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "test.gdbm")
			db, err := Create(path, Options{BlockSize: 512})
			require.NoError(t, err, "Create should succeed")
			t.Cleanup(func() { _ = db.Close() })

			model := make(map[string]string)
			rng := rand.New(rand.NewSource(seed))

			for op := 0; op < opsPerSeed; op++ {
				switch rng.Intn(3) {
				case 0: // insert or replace
					key := fmt.Sprintf("k%d", rng.Intn(40))
					value := fmt.Sprintf("v%d-%d", op, rng.Int63())

					err := db.Insert([]byte(key), []byte(value), true)
					require.NoError(t, err, "Insert(%s) should succeed", key)
					model[key] = value

				case 1: // remove
					key := fmt.Sprintf("k%d", rng.Intn(40))
					_, wasPresent := model[key]

					err := db.Remove([]byte(key))
					if wasPresent {
						require.NoError(t, err, "Remove(%s) should succeed for a present key", key)
						delete(model, key)
					} else {
						require.ErrorIs(t, err, ErrKeyNotFound, "Remove(%s) on an absent key", key)
					}

				case 2: // get
					key := fmt.Sprintf("k%d", rng.Intn(40))
					want, wasPresent := model[key]

					got, ok, err := db.Get([]byte(key))
					require.NoError(t, err, "Get(%s) should not error", key)
					require.Equal(t, wasPresent, ok, "Get(%s) presence mismatch", key)
					if wasPresent {
						require.Equal(t, want, string(got), "Get(%s) value mismatch", key)
					}
				}

				require.Equal(t, len(model), db.Len(), "Len() should equal the number of live keys after op %d", op)
			}

			for key, want := range model {
				got, ok, err := db.Get([]byte(key))
				require.NoError(t, err)
				require.True(t, ok, "final check: %s should be present", key)
				require.Equal(t, want, string(got), "final check: %s value mismatch", key)
			}
		})
	}
}
