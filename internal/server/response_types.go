// file: internal/server/response_types.go
// version: 2.0.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package server

import (
	"time"

	"github.com/jdfalk/bookclub/internal/database"
	"github.com/jdfalk/bookclub/internal/metadata"
)

// Where the rendered selection came from.
const (
	OriginStored   = "stored"
	OriginDefault  = "default"
	OriginOverride = "override"
)

// UpdateBookRequest is the POST /book payload.
type UpdateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// UpdateBookResponse is the POST /book success body.
type UpdateBookResponse struct {
	Success bool                 `json:"success"`
	Book    *database.BookRecord `json:"book"`
}

// Selection is the title/author pair a render works from.
type Selection struct {
	Title     string     `json:"title" yaml:"title"`
	Author    string     `json:"author" yaml:"author"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Origin    string     `json:"origin" yaml:"origin"`
}

// BookDetailResponse is the GET /api/book body.
type BookDetailResponse struct {
	Book       Selection           `json:"book"`
	Detail     metadata.BookDetail `json:"detail"`
	Candidates []string            `json:"candidates"`
}

// HealthResponse is the GET /api/health body.
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    int64  `json:"timestamp"`
	DatabaseType string `json:"database_type"`
	Clients      int    `json:"clients"`
	Error        string `json:"error,omitempty"`
}
