// Package origin talks to artifact origins over HTTP: metadata-only change
// probes and full downloads into the cache.
package origin

import (
	"context"
	"net/http"
	"time"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Prober implements ports.Prober with an HTTP HEAD request. The origin
// validator is the ETag when present, otherwise Last-Modified; the size is
// the advertised Content-Length. No payload bytes are transferred.
type Prober struct {
	client *http.Client
}

var _ ports.Prober = (*Prober)(nil)

// NewProber creates a Prober with a bounded request timeout.
func NewProber() *Prober {
	return &Prober{client: &http.Client{Timeout: 30 * time.Second}}
}

// Probe returns the origin's current fingerprint for url.
func (p *Prober) Probe(ctx context.Context, url string) (domain.Fingerprint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "invalid origin URL")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, "origin probe failed"), "url", url)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := zerr.With(zerr.New("origin probe returned non-success status"), "url", url)
		return domain.Fingerprint{}, zerr.With(err, "status", resp.StatusCode)
	}

	return fingerprintFromHeaders(resp), nil
}

func fingerprintFromHeaders(resp *http.Response) domain.Fingerprint {
	validator := resp.Header.Get("ETag")
	if validator == "" {
		validator = resp.Header.Get("Last-Modified")
	}
	return domain.Fingerprint{
		Size:   resp.ContentLength,
		Origin: validator,
	}
}
