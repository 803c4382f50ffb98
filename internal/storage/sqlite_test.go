package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCache_PutGet(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "cache.db")
	cache, err := NewSQLiteCache(dbPath)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	key := PageKey([]byte("page-1-bytes"))

	_, err = cache.Get(ctx, key, "model-a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Put(ctx, key, "model-a", "# Page one"))
	require.NoError(t, cache.Put(ctx, key, "model-b", "other model"))

	text, err := cache.Get(ctx, key, "model-a")
	require.NoError(t, err)
	assert.Equal(t, "# Page one", text)

	// Upsert replaces the text for the same key and model.
	require.NoError(t, cache.Put(ctx, key, "model-a", "# Page one v2"))
	text, err = cache.Get(ctx, key, "model-a")
	require.NoError(t, err)
	assert.Equal(t, "# Page one v2", text)

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, cache.Delete(ctx, key, "model-b"))
	_, err = cache.Get(ctx, key, "model-b")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSQLiteCache_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	cache, err := NewSQLiteCache(dbPath)
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, "k", "m", "text"))
	require.NoError(t, cache.Close())

	reopened, err := NewSQLiteCache(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	text, err := reopened.Get(ctx, "k", "m")
	require.NoError(t, err)
	assert.Equal(t, "text", text)
}

func TestPageKey_Stable(t *testing.T) {
	assert.Equal(t, PageKey([]byte("abc")), PageKey([]byte("abc")))
	assert.NotEqual(t, PageKey([]byte("abc")), PageKey([]byte("abd")))
	assert.Len(t, PageKey(nil), 64)
}
