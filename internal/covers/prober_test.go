// file: internal/covers/prober_test.go
// version: 1.0.0
// guid: 4924b8a6-1188-49d4-a24e-d7defbc11abe

package covers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// coverServer serves /slow (never answers before the client gives up),
// /pixel (1x1), /cover (200x300), /ten (10x10), /missing (404) and
// /html (not an image).
func coverServer(t *testing.T) *httptest.Server {
	t.Helper()
	pixel := pngBytes(t, 1, 1)
	cover := pngBytes(t, 200, 300)
	ten := pngBytes(t, 10, 10)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-release:
			}
		case "/pixel":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pixel)
		case "/cover":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(cover)
		case "/ten":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(ten)
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

func TestFirstWorking_SkipsTimeoutAndTrackingPixel(t *testing.T) {
	srv := coverServer(t)
	p := NewProber(srv.Client(), 100*time.Millisecond, 10)

	got, ok := p.FirstWorking(context.Background(), []string{
		srv.URL + "/slow",
		srv.URL + "/pixel",
		srv.URL + "/cover",
	})
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/cover", got)
}

func TestFirstWorking_StopsAtFirstSuccess(t *testing.T) {
	srv := coverServer(t)
	var hits []string
	client := srv.Client()
	base := client.Transport
	client.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		hits = append(hits, r.URL.Path)
		return base.RoundTrip(r)
	})
	p := NewProber(client, time.Second, 10)

	got, ok := p.FirstWorking(context.Background(), []string{
		srv.URL + "/missing",
		srv.URL + "/cover",
		srv.URL + "/slow",
	})
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/cover", got)
	assert.Equal(t, []string{"/missing", "/cover"}, hits, "candidates after the winner must not be requested")
}

func TestFirstWorking_AllFail(t *testing.T) {
	srv := coverServer(t)
	p := NewProber(srv.Client(), 100*time.Millisecond, 10)

	got, ok := p.FirstWorking(context.Background(), []string{
		srv.URL + "/missing",
		srv.URL + "/html",
		srv.URL + "/ten",
		"://not a url",
	})
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestFirstWorking_EmptyList(t *testing.T) {
	_, ok := NewProber(nil, 0, 0).FirstWorking(context.Background(), nil)
	assert.False(t, ok)
}

func TestFirstWorking_CanceledContext(t *testing.T) {
	srv := coverServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := NewProber(srv.Client(), time.Second, 10).FirstWorking(ctx, []string{srv.URL + "/cover"})
	assert.False(t, ok)
}

func TestProbe_Errors(t *testing.T) {
	srv := coverServer(t)
	p := NewProber(srv.Client(), 100*time.Millisecond, 10)

	assert.ErrorIs(t, p.Probe(context.Background(), srv.URL+"/pixel"), ErrTooSmall)
	assert.ErrorIs(t, p.Probe(context.Background(), srv.URL+"/ten"), ErrTooSmall, "the threshold is exclusive")
	assert.ErrorIs(t, p.Probe(context.Background(), srv.URL+"/slow"), context.DeadlineExceeded)
	assert.Error(t, p.Probe(context.Background(), srv.URL+"/missing"))
	assert.NoError(t, p.Probe(context.Background(), srv.URL+"/cover"))
}

func TestNewProber_Defaults(t *testing.T) {
	p := NewProber(nil, 0, 0)
	assert.Equal(t, DefaultProbeTimeout, p.Timeout())
	assert.Equal(t, DefaultMinPixels, p.MinPixels())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
