// file: internal/metadata/googlebooks.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-f2a3b4c5d6e7

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GoogleBooksClient fetches candidates from the Google Books Volume API.
// No API key is required for basic searches (free tier, ~1000 req/day).
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGoogleBooksClient creates a Google Books client. An empty baseURL
// selects the public endpoint. The HTTP client timeout is a backstop; each
// lookup is additionally bounded by the caller's context.
func NewGoogleBooksClient(baseURL, apiKey string) *GoogleBooksClient {
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/books/v1"
	}
	return &GoogleBooksClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Name returns the display name for this metadata source.
func (c *GoogleBooksClient) Name() string {
	return "Google Books"
}

type googleBooksResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is one search candidate. Only the fields the resolver reads are
// decoded; anything else in the payload is ignored.
type Volume struct {
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo mirrors the volumeInfo object. Absent fields decode to their
// zero value (or nil for pointers) instead of failing the whole response.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	PageCount           *int                 `json:"pageCount"`
	Categories          []string             `json:"categories"`
	ImageLinks          *ImageLinks          `json:"imageLinks"`
}

// IndustryIdentifier is a typed identifier such as ISBN_13 or ISBN_10.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type ImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// phrase makes s safe to embed inside a quoted search filter. Google Books
// has no escape for a double quote inside a phrase, so quotes are dropped.
func phrase(s string) string {
	s = strings.ReplaceAll(s, `"`, " ")
	return strings.Join(strings.Fields(s), " ")
}

// BuildQuery combines exact-phrase title and author filters.
func BuildQuery(title, author string) string {
	var parts []string
	if t := phrase(title); t != "" {
		parts = append(parts, fmt.Sprintf(`intitle:"%s"`, t))
	}
	if a := phrase(author); a != "" {
		parts = append(parts, fmt.Sprintf(`inauthor:"%s"`, a))
	}
	return strings.Join(parts, " ")
}

// SearchURL returns the volumes request URL for a title/author lookup.
func (c *GoogleBooksClient) SearchURL(title, author string, maxResults int) string {
	params := url.Values{}
	params.Set("q", BuildQuery(title, author))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())
}

// SearchVolumes returns candidates in the order the API ranked them.
func (c *GoogleBooksClient) SearchVolumes(ctx context.Context, title, author string, maxResults int) ([]Volume, error) {
	if BuildQuery(title, author) == "" {
		return nil, fmt.Errorf("empty title and author")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(title, author, maxResults), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search Google Books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Google Books API returned status %d", resp.StatusCode)
	}

	var gbResp googleBooksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&gbResp); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}
	return gbResp.Items, nil
}
