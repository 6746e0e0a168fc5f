// file: internal/database/store.go
// version: 3.0.0
// guid: 63c45094-817e-48cf-83f5-c200c99b303a

package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrStorageUnavailable is returned when no store has been configured.
var ErrStorageUnavailable = errors.New("storage unavailable")

// KVStore is the persistence boundary of the application: a flat string
// key-value store. PebbleDB is the default backend; SQLite3 (opt-in),
// PostgreSQL and an in-memory map are also available.
//
// Writes are plain overwrites. There is no compare-and-swap, so two
// concurrent writers to the same key resolve as last-writer-wins.
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put overwrites the value stored under key.
	Put(ctx context.Context, key, value string) error
	Close() error
	// Kind names the backend ("pebble", "sqlite", "postgres", "memory").
	Kind() string
}

// StoreOptions selects and configures a backend.
type StoreOptions struct {
	Type         string // "pebble" (default), "sqlite", "postgres" or "memory"
	Path         string // pebble directory or sqlite file
	EnableSQLite bool   // must be true to use SQLite (safety flag)
	PostgresDSN  string
}

// GlobalStore is the process-wide store used by the server and CLI.
var GlobalStore KVStore

// OpenStore opens the backend described by opts.
func OpenStore(ctx context.Context, opts StoreOptions) (KVStore, error) {
	switch opts.Type {
	case "pebble", "":
		store, err := NewPebbleStore(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
		return store, nil
	case "sqlite", "sqlite3":
		if !opts.EnableSQLite {
			return nil, fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended database")
		}
		store, err := NewSQLiteStore(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return store, nil
	case "postgres", "postgresql":
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres store requires postgres_dsn")
		}
		store, err := NewPostgresStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s (supported: pebble, sqlite, postgres, memory)", opts.Type)
	}
}

// InitializeStore opens the configured backend into GlobalStore.
func InitializeStore(ctx context.Context, opts StoreOptions) error {
	store, err := OpenStore(ctx, opts)
	if err != nil {
		return err
	}
	GlobalStore = store
	return nil
}

// CloseStore closes the global store
func CloseStore() error {
	if GlobalStore == nil {
		return nil
	}
	err := GlobalStore.Close()
	GlobalStore = nil
	return err
}
