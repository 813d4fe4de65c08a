package compliance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suanview/orchard/internal/storage"
)

// RunStorageComplianceTest runs a standard set of tests against a storage.Store implementation.
// setup is a function that returns a fresh (clean) Store instance for the test.
// cleanup is called after the test to clean up resources (if any).
func RunStorageComplianceTest(t *testing.T, setup func() (storage.Store, func())) {
	t.Run("PutAndGet", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := "compliance/" + uuid.NewString() + ".csv"
		data := []byte("code,status\nA-001,สมบูรณ์\n")

		require.NoError(t, store.Put(ctx, key, data, "text/csv"))

		fetched, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, data, fetched)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := "compliance/" + uuid.NewString() + ".csv"
		require.NoError(t, store.Put(ctx, key, []byte("first"), "text/plain"))
		require.NoError(t, store.Put(ctx, key, []byte("second"), "text/plain"))

		fetched, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(fetched))
	})

	t.Run("ListByPrefix", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		prefix := "compliance/" + uuid.NewString() + "/"
		require.NoError(t, store.Put(ctx, prefix+"a.csv", []byte("a"), "text/csv"))
		require.NoError(t, store.Put(ctx, prefix+"b.csv", []byte("bb"), "text/csv"))
		require.NoError(t, store.Put(ctx, "compliance/other-"+uuid.NewString()+".csv", []byte("x"), "text/csv"))

		objects, err := store.List(ctx, prefix)
		require.NoError(t, err)

		// Map keys for easy lookup
		sizes := make(map[string]int64)
		for _, o := range objects {
			sizes[o.Key] = o.Size
		}

		assert.Len(t, sizes, 2)
		assert.Equal(t, int64(1), sizes[prefix+"a.csv"])
		assert.Equal(t, int64(2), sizes[prefix+"b.csv"])
	})

	t.Run("Delete", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := "compliance/" + uuid.NewString() + ".csv"
		require.NoError(t, store.Put(ctx, key, []byte("a"), "text/csv"))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)

		err = store.Delete(ctx, key)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("GetNonExistentObject", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		_, err := store.Get(ctx, "compliance/non-existent-"+uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("RejectsInvalidKeys", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		err := store.Put(ctx, "../escape.csv", []byte("x"), "text/csv")
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
	})
}
