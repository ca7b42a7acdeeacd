package ports

import (
	"context"

	"go.pkgforge.dev/rebake/internal/core/domain"
)

// Prober queries an origin for the current artifact fingerprint without
// transferring the payload.
//
//go:generate mockgen -source=origin.go -destination=mocks/mock_origin.go -package=mocks
type Prober interface {
	// Probe performs a metadata-only request against url and returns the
	// origin's current (size, validator) fingerprint.
	Probe(ctx context.Context, url string) (domain.Fingerprint, error)
}

// Fetcher transfers the real artifact bytes into the cache.
type Fetcher interface {
	// Fetch downloads url to dest, records the origin fingerprint on the
	// written file, and returns the fingerprint as observed during the
	// transfer.
	Fetch(ctx context.Context, url, dest string) (domain.Fingerprint, error)
}
