package origin

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/adapters/fsattr"
	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Fetcher implements ports.Fetcher with an HTTP GET streamed to disk. The
// observed fingerprint (bytes written + origin validator) is recorded on the
// file through the same attribute path the reconstructor uses.
type Fetcher struct {
	client *http.Client
	logger ports.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher. Downloads have no overall timeout; they are
// bounded by the caller's context.
func NewFetcher(logger ports.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 0},
		logger: logger,
	}
}

// Fetch downloads url to dest, replacing any placeholder there, and returns
// the fingerprint observed during the transfer.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (domain.Fingerprint, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "invalid origin URL")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, "download failed"), "url", url)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := zerr.With(zerr.New("download returned non-success status"), "url", url)
		return domain.Fingerprint{}, zerr.With(err, "status", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "failed to create download directory")
	}

	// Stream into a temp file in the same directory, then rename over the
	// placeholder so a torn download never poses as a cache entry.
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-")
	if err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "failed to create download temp file")
	}
	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr == nil {
			copyErr = closeErr
		}
		return domain.Fingerprint{}, zerr.With(zerr.Wrap(copyErr, "download interrupted"), "url", url)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return domain.Fingerprint{}, zerr.Wrap(err, "failed to move download into cache")
	}

	fp := domain.Fingerprint{
		Size:   written,
		Origin: fingerprintFromHeaders(resp).Origin,
	}
	if err := fsattr.Write(dest, fp.Origin); err != nil {
		return domain.Fingerprint{}, err
	}

	f.logger.Info("downloaded artifact",
		"url", url, "bytes", written, "elapsed", time.Since(start).Round(time.Millisecond))
	return fp, nil
}
