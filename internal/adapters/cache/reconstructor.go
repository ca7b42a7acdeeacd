// Package cache rebuilds the on-disk download cache from ledger metadata.
package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/adapters/fsattr"
	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Reconstructor materializes placeholder cache entries from ledger records.
// Each entry reports the recorded logical size and origin fingerprint while
// consuming near-zero physical storage, which is all a metadata-only change
// probe ever inspects.
type Reconstructor struct {
	root   string
	logger ports.Logger
}

var _ ports.CacheRebuilder = (*Reconstructor)(nil)

// NewReconstructor creates a Reconstructor rooted at the cache directory.
func NewReconstructor(root string, logger ports.Logger) *Reconstructor {
	return &Reconstructor{root: filepath.Clean(root), logger: logger}
}

// ReadFingerprint returns the fingerprint recorded on the cache entry at
// path. It inspects size and attribute metadata only, never content bytes.
func (r *Reconstructor) ReadFingerprint(path string) (domain.Fingerprint, error) {
	return fsattr.Read(path)
}

// EntryPath resolves a record's location under the cache root. Records whose
// relative path would escape the root are rejected.
func (r *Reconstructor) EntryPath(record domain.ArtifactRecord) (string, error) {
	rel := filepath.Clean(record.LocalRelativePath)
	if rel == "" || !filepath.IsLocal(rel) {
		return "", zerr.With(zerr.New("cache path escapes cache root"), "path", record.LocalRelativePath)
	}
	return filepath.Join(r.root, rel), nil
}

// Rebuild ensures a placeholder exists for every record whose recipe ID is
// in the active set. Entries already matching their record are left
// untouched. Per-entry failures are logged and counted, never fatal.
func (r *Reconstructor) Rebuild(ctx context.Context, records []domain.ArtifactRecord, activeRecipes []string) (ports.RebuildStats, error) {
	active := make(map[string]bool, len(activeRecipes))
	for _, id := range activeRecipes {
		active[id] = true
	}

	var stats ports.RebuildStats
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !active[record.RecipeID] {
			continue
		}

		switch err := r.rebuildEntry(record); {
		case err == nil:
			stats.Created++
		case errors.Is(err, errEntryCurrent):
			stats.Skipped++
		default:
			stats.Warnings++
			r.logger.Warn("cache entry reconstruction failed",
				"recipe", record.RecipeID, "error", err)
		}
	}

	if stats.Warnings > 0 {
		r.logger.Warn("cache reconstruction finished with warnings",
			"warnings", stats.Warnings, "created", stats.Created, "skipped", stats.Skipped)
	}
	return stats, nil
}

var errEntryCurrent = zerr.New("entry already current")

func (r *Reconstructor) rebuildEntry(record domain.ArtifactRecord) error {
	path, err := r.EntryPath(record)
	if err != nil {
		return err
	}

	want := record.Fingerprint()
	if got, err := fsattr.Read(path); err == nil && got.Matches(want) {
		return errEntryCurrent
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create cache directory")
	}

	//nolint:gosec // Path is confined to the cache root by EntryPath
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return zerr.Wrap(err, "failed to create cache entry")
	}
	// Truncate to the declared size without writing payload bytes; the
	// resulting hole costs no blocks on any mainstream filesystem.
	if err := f.Truncate(record.DeclaredSizeBytes); err != nil {
		_ = f.Close()
		return zerr.Wrap(err, "failed to size cache entry")
	}
	if err := f.Close(); err != nil {
		return zerr.Wrap(err, "failed to close cache entry")
	}

	if err := fsattr.Write(path, record.OriginFingerprint); err != nil {
		return err
	}
	return nil
}
