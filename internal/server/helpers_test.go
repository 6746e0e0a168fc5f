// file: internal/server/helpers_test.go
// version: 1.0.0
// guid: 2f7c51a4-93de-4b8a-8d15-0c6e2a9b7f31

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/bookclub/internal/config"
	"github.com/jdfalk/bookclub/internal/database"
	"github.com/jdfalk/bookclub/internal/metadata"
	"github.com/jdfalk/bookclub/internal/realtime"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// fakeSearcher returns canned volumes and records the queries it saw.
type fakeSearcher struct {
	mu      sync.Mutex
	volumes []metadata.Volume
	err     error
	calls   atomic.Int32
	queries []string
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) SearchVolumes(_ context.Context, title, author string, _ int) ([]metadata.Volume, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, title+"|"+author)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.volumes, nil
}

// brokenStore wraps a MemoryStore and fails on demand.
type brokenStore struct {
	*database.MemoryStore
	getErr error
	putErr error
}

func (b *brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	if b.getErr != nil {
		return "", false, b.getErr
	}
	return b.MemoryStore.Get(ctx, key)
}

func (b *brokenStore) Put(ctx context.Context, key, value string) error {
	if b.putErr != nil {
		return b.putErr
	}
	return b.MemoryStore.Put(ctx, key, value)
}

var errDiskFull = errors.New("disk full")

func testConfig() config.Config {
	return config.Config{
		DatabaseType: "memory",
		Host:         "127.0.0.1",
		Port:         "0",
		SiteName:     "Test Society",
		DefaultBook:  config.BookConfig{Title: "Default Title", Author: "Default Author"},
		Metadata: config.MetadataConfig{
			MaxResults:    10,
			LookupTimeout: time.Second,
		},
		Covers: config.CoversConfig{
			ServiceURL:   "https://covers.example.org/b",
			ProbeTimeout: 500 * time.Millisecond,
			MinPixels:    10,
		},
	}
}

func intRef(n int) *int { return &n }

// dickensVolume is a preferred candidate with both ISBNs and a thumbnail.
func dickensVolume() metadata.Volume {
	return metadata.Volume{VolumeInfo: metadata.VolumeInfo{
		Title:         "Bleak House",
		Authors:       []string{"Charles Dickens"},
		Description:   "<p>A <b>sprawling</b> tale of the Court of Chancery.</p>",
		PublishedDate: "1853",
		PageCount:     intRef(1036),
		Categories:    []string{"Fiction", "Classics"},
		IndustryIdentifiers: []metadata.IndustryIdentifier{
			{Type: "ISBN_10", Identifier: "0141439726"},
			{Type: "ISBN_13", Identifier: "9780141439723"},
		},
		ImageLinks: &metadata.ImageLinks{Thumbnail: "http://books.example.com/c?id=1&zoom=1"},
	}}
}

type testEnv struct {
	server   *Server
	store    database.KVStore
	searcher *fakeSearcher
	hub      *realtime.EventHub
}

func newTestEnv(t *testing.T, cfg config.Config, store database.KVStore, volumes ...metadata.Volume) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	searcher := &fakeSearcher{volumes: volumes}
	hub := realtime.NewEventHub()
	srv := New(Options{
		Config: cfg,
		Store:  store,
		Hub:    hub,
		Source: searcher,
	})
	return &testEnv{server: srv, store: store, searcher: searcher, hub: hub}
}

func (e *testEnv) do(method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	resp := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(resp, req)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func parseHTML(t *testing.T, body []byte) *html.Node {
	t.Helper()
	doc, err := html.Parse(bytes.NewReader(body))
	require.NoError(t, err)
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}
