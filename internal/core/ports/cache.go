package ports

import (
	"context"

	"go.pkgforge.dev/rebake/internal/core/domain"
)

// RebuildStats summarizes one cache reconstruction pass.
type RebuildStats struct {
	// Created counts entries written or rewritten on this pass.
	Created int
	// Skipped counts entries already matching their record.
	Skipped int
	// Warnings counts entries that could not be reconstructed. Warnings
	// never abort a pass.
	Warnings int
}

// Mutations reports how many filesystem writes the pass performed.
func (s RebuildStats) Mutations() int { return s.Created }

// CacheRebuilder materializes and inspects placeholder cache entries.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type CacheRebuilder interface {
	// Rebuild ensures a placeholder exists for every record whose recipe
	// ID is in the active set.
	Rebuild(ctx context.Context, records []domain.ArtifactRecord, activeRecipes []string) (RebuildStats, error)

	// EntryPath resolves a record's location under the cache root.
	EntryPath(record domain.ArtifactRecord) (string, error)

	// ReadFingerprint returns the (size, origin) fingerprint recorded on
	// the cache entry at path without reading content bytes.
	ReadFingerprint(path string) (domain.Fingerprint, error)
}
