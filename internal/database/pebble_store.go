// file: internal/database/pebble_store.go
// version: 2.0.0
// guid: 9bf1e240-ed61-4231-93df-0b658d2852d4

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble/v2"
)

// PebbleStore implements KVStore using PebbleDB (LSM key-value store)
//
// Key Schema:
// - kv:<key> -> raw value bytes
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore creates a new PebbleDB store
func NewPebbleStore(path string) (*PebbleStore, error) {
	if path == "" {
		return nil, fmt.Errorf("pebble store requires a database path")
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func pebbleKey(key string) []byte {
	return []byte("kv:" + key)
}

// Get reads a value. The returned string is a copy; pebble's buffer is
// released before returning.
func (p *PebbleStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, closer, err := p.db.Get(pebbleKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pebble get %q: %w", key, err)
	}
	defer closer.Close()
	return string(value), true, nil
}

// Put writes a value with a synced commit.
func (p *PebbleStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.db.Set(pebbleKey(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %q: %w", key, err)
	}
	return nil
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

func (p *PebbleStore) Kind() string { return "pebble" }
