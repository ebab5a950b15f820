package blob

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/storage/storetest"
)

func TestBoltRepositories(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Repos {
		bucket, err := OpenBolt(filepath.Join(t.TempDir(), "loo7.bolt"))
		require.NoError(t, err)
		store := NewStore(bucket)
		t.Cleanup(func() { _ = store.Close() })
		return storetest.Repos{
			Sheikhs:  NewSheikhRepository(store),
			Students: NewStudentRepository(store),
			Loo7s:    NewLoo7Repository(store),
		}
	})
}

func TestBoltBucket(t *testing.T) {
	ctx := context.Background()
	bucket, err := OpenBolt(filepath.Join(t.TempDir(), "loo7.bolt"))
	require.NoError(t, err)
	defer bucket.Close()

	_, err = bucket.Get(ctx, "a:1")
	assert.Equal(t, ErrNotExist, err)

	require.NoError(t, bucket.Put(ctx, "a:2", []byte("two")))
	require.NoError(t, bucket.Put(ctx, "a:1", []byte("one")))
	require.NoError(t, bucket.Put(ctx, "b:1", []byte("other")))

	v, err := bucket.Get(ctx, "a:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	var keys []string
	require.NoError(t, bucket.Scan(ctx, "a:", func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"a:1", "a:2"}, keys)

	require.NoError(t, bucket.Delete(ctx, "a:1"))
	_, err = bucket.Get(ctx, "a:1")
	assert.Equal(t, ErrNotExist, err)
	// deleting a missing key is not an error
	assert.NoError(t, bucket.Delete(ctx, "a:1"))

	assert.NoError(t, NewStore(bucket).Ping(ctx))
}
