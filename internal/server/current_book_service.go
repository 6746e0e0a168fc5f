// file: internal/server/current_book_service.go
// version: 1.1.0
// guid: 6f0b5f0e-8f4d-4d27-9c3c-2a4c0f7e91b4

package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jdfalk/bookclub/internal/config"
	"github.com/jdfalk/bookclub/internal/database"
)

// CurrentBookService owns the single "currently reading" record. Updates
// overwrite without any version check; the last writer wins.
type CurrentBookService struct {
	store database.KVStore
	now   func() time.Time
}

func NewCurrentBookService(store database.KVStore) *CurrentBookService {
	return &CurrentBookService{store: store, now: time.Now}
}

// PrepareUpdate validates and trims a request without touching storage.
func (s *CurrentBookService) PrepareUpdate(req UpdateBookRequest) (UpdateBookRequest, error) {
	if err := ValidateTitle(req.Title); err != nil {
		return UpdateBookRequest{}, err
	}
	if err := ValidateAuthor(req.Author); err != nil {
		return UpdateBookRequest{}, err
	}
	return UpdateBookRequest{
		Title:  strings.TrimSpace(req.Title),
		Author: strings.TrimSpace(req.Author),
	}, nil
}

// Update validates req and replaces the stored record. Validation runs
// first, so a bad request is reported as such even when storage is down.
func (s *CurrentBookService) Update(ctx context.Context, req UpdateBookRequest) (*database.BookRecord, error) {
	clean, err := s.PrepareUpdate(req)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, database.ErrStorageUnavailable
	}

	rec := database.BookRecord{
		Title:     clean.Title,
		Author:    clean.Author,
		UpdatedAt: s.now().UTC(),
	}
	if err := database.PutCurrentBook(ctx, s.store, rec); err != nil {
		return nil, fmt.Errorf("failed to save current book: %w", err)
	}
	log.Printf("[INFO] Current book set to %q by %q", rec.Title, rec.Author)
	return &rec, nil
}

// Current returns the stored record, or nil when none has been saved.
func (s *CurrentBookService) Current(ctx context.Context) (*database.BookRecord, error) {
	return database.GetCurrentBook(ctx, s.store)
}

// Selection returns the stored record, or def when nothing is stored or the
// store cannot be read. A read error is returned alongside the default so
// callers can log it; the selection is always usable.
func (s *CurrentBookService) Selection(ctx context.Context, def config.BookConfig) (Selection, error) {
	rec, err := s.Current(ctx)
	if err == nil && rec != nil {
		updatedAt := rec.UpdatedAt
		return Selection{Title: rec.Title, Author: rec.Author, UpdatedAt: &updatedAt, Origin: OriginStored}, nil
	}
	return Selection{Title: def.Title, Author: def.Author, Origin: OriginDefault}, err
}
