package driver

import (
	"context"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Detector decides whether a recipe's origin artifact differs from the
// cached copy. The comparison is fingerprint-only: it reads the entry's
// recorded (size, origin) metadata and never its bytes, so a reconstructed
// placeholder and a real download are judged identically.
type Detector struct {
	prober ports.Prober
	cache  ports.CacheRebuilder
	logger ports.Logger
}

// NewDetector creates a Detector.
func NewDetector(prober ports.Prober, cache ports.CacheRebuilder, logger ports.Logger) *Detector {
	return &Detector{prober: prober, cache: cache, logger: logger}
}

// Check probes the origin and compares against the cache entry at
// entryPath. It returns the origin's current fingerprint along with the
// verdict. A missing entry or an unreadable fingerprint means changed.
func (d *Detector) Check(ctx context.Context, recipe domain.Recipe, entryPath string) (changed bool, current domain.Fingerprint, err error) {
	current, err = d.prober.Probe(ctx, recipe.SourceURL)
	if err != nil {
		return false, domain.Fingerprint{}, err
	}

	cached, err := d.cache.ReadFingerprint(entryPath)
	if err != nil {
		d.logger.Debug("no usable cache entry, treating as changed",
			"recipe", recipe.ID, "path", entryPath)
		return true, current, nil
	}

	if cached.Matches(current) {
		d.logger.Info("origin unchanged", "recipe", recipe.ID, "fingerprint", current.Origin)
		return false, current, nil
	}

	d.logger.Info("origin changed",
		"recipe", recipe.ID, "cached", cached.Origin, "current", current.Origin,
		"cached_size", cached.Size, "current_size", current.Size)
	return true, current, nil
}
