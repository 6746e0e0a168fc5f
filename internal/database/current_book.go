// file: internal/database/current_book.go
// version: 1.0.0
// guid: 427012cd-0d38-4f36-9022-4dac5a342e91

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CurrentBookKey is the single key holding the club's current selection.
const CurrentBookKey = "current_book"

// BookRecord is the persisted "currently reading" selection.
type BookRecord struct {
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetCurrentBook loads the current selection. It returns (nil, nil) when
// nothing has been stored yet.
func GetCurrentBook(ctx context.Context, store KVStore) (*BookRecord, error) {
	if store == nil {
		return nil, ErrStorageUnavailable
	}
	raw, ok, err := store.Get(ctx, CurrentBookKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read current book: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var rec BookRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode current book: %w", err)
	}
	return &rec, nil
}

// PutCurrentBook overwrites the current selection.
func PutCurrentBook(ctx context.Context, store KVStore, rec BookRecord) error {
	if store == nil {
		return ErrStorageUnavailable
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode current book: %w", err)
	}
	if err := store.Put(ctx, CurrentBookKey, string(data)); err != nil {
		return fmt.Errorf("failed to write current book: %w", err)
	}
	return nil
}
