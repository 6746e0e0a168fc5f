// file: internal/covers/prober.go
// version: 1.0.0
// guid: be8aecab-b29f-4e70-8430-93889767fffa

package covers

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jdfalk/bookclub/internal/metrics"
)

const (
	DefaultProbeTimeout = 3 * time.Second
	DefaultMinPixels    = 10
	maxProbeBytes       = 10 * 1024 * 1024
)

// ErrTooSmall marks an image at or below the minimum dimensions, which is
// how cover services answer a miss (a 1x1 tracking pixel).
var ErrTooSmall = errors.New("image too small")

// Prober loads candidates one at a time.
type Prober struct {
	client    *http.Client
	timeout   time.Duration
	minPixels int
}

// NewProber creates a prober. Zero values select a 3s per-candidate timeout
// and a 10px minimum.
func NewProber(client *http.Client, timeout time.Duration, minPixels int) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if minPixels <= 0 {
		minPixels = DefaultMinPixels
	}
	return &Prober{client: client, timeout: timeout, minPixels: minPixels}
}

// Timeout is the per-candidate limit.
func (p *Prober) Timeout() time.Duration { return p.timeout }

// MinPixels is the exclusive lower bound on width and height.
func (p *Prober) MinPixels() int { return p.minPixels }

// FirstWorking probes candidates sequentially and returns the first one that
// loads as an image larger than the minimum in both dimensions. It returns
// false when the list is empty or every candidate fails.
func (p *Prober) FirstWorking(ctx context.Context, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return "", false
		}
		err := p.Probe(ctx, candidate)
		if err == nil {
			metrics.IncCoverProbe(metrics.ProbeSuccess)
			return candidate, true
		}
		switch {
		case errors.Is(err, ErrTooSmall):
			metrics.IncCoverProbe(metrics.ProbeTooSmall)
		case errors.Is(err, context.DeadlineExceeded):
			metrics.IncCoverProbe(metrics.ProbeTimeout)
		default:
			metrics.IncCoverProbe(metrics.ProbeError)
		}
		log.Printf("[DEBUG] cover candidate %s rejected: %v", candidate, err)
	}
	return "", false
}

// Probe fetches one candidate under its own timeout and checks its
// dimensions. Only the image header is decoded.
func (p *Prober) Probe(ctx context.Context, candidate string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return fmt.Errorf("invalid cover URL: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cover source returned status %d", resp.StatusCode)
	}

	cfg, _, err := image.DecodeConfig(io.LimitReader(resp.Body, maxProbeBytes))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("not a decodable image: %w", err)
	}
	if cfg.Width <= p.minPixels || cfg.Height <= p.minPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooSmall, cfg.Width, cfg.Height)
	}
	return nil
}
