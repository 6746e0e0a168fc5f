// file: internal/database/pebble_store_test.go
// version: 2.0.0
// guid: 4080baf3-ba42-4fb7-a9d7-a9832ca60caf

package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPebbleTestDB creates a PebbleDB store in a temp directory that is
// closed when the test ends.
func setupPebbleTestDB(t *testing.T) (*PebbleStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "test.pebble")
	store, err := NewPebbleStore(dir)
	require.NoError(t, err, "Failed to create test Pebble database")
	return store, dir
}

func TestPebbleStore_Contract(t *testing.T) {
	store, _ := setupPebbleTestDB(t)
	defer store.Close()
	exerciseKVStore(t, store)
}

func TestPebbleStore_PersistsAcrossReopen(t *testing.T) {
	// Arrange
	store, dir := setupPebbleTestDB(t)
	require.NoError(t, store.Put(context.Background(), CurrentBookKey, `{"title":"Beloved"}`))
	require.NoError(t, store.Close())

	// Act
	reopened, err := NewPebbleStore(dir)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get(context.Background(), CurrentBookKey)

	// Assert
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"title":"Beloved"}`, v)
}

func TestPebbleStore_CanceledContext(t *testing.T) {
	store, _ := setupPebbleTestDB(t)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Put(ctx, "k", "v"), context.Canceled)
}

func TestNewPebbleStore_EmptyPath(t *testing.T) {
	_, err := NewPebbleStore("")
	assert.Error(t, err)
}
