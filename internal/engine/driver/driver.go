// Package driver runs the per-recipe build pipeline: cache check, download
// if stale, verify, package.
package driver

import (
	"context"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// RecipeState is the state of one recipe in the driver's state machine.
type RecipeState string

const (
	StatePending      RecipeState = "pending"
	StateCacheChecked RecipeState = "cache-checked"
	StateSkipped      RecipeState = "skipped"
	StateDownloading  RecipeState = "downloading"
	StateVerifying    RecipeState = "verifying"
	StateBuilding     RecipeState = "building"
	StateDone         RecipeState = "done"
	StateFailed       RecipeState = "failed"
)

// Driver executes each recipe's pipeline sequentially and maintains the
// ledger. One driver instance is the ledger's single writer for a session.
type Driver struct {
	ledger   ports.LedgerStore
	detector *Detector
	fetcher  ports.Fetcher
	pipeline ports.Pipeline
	cache    ports.CacheRebuilder
	logger   ports.Logger
}

// New creates a Driver.
func New(
	ledger ports.LedgerStore,
	detector *Detector,
	fetcher ports.Fetcher,
	pipeline ports.Pipeline,
	cache ports.CacheRebuilder,
	logger ports.Logger,
) *Driver {
	return &Driver{
		ledger:   ledger,
		detector: detector,
		fetcher:  fetcher,
		pipeline: pipeline,
		cache:    cache,
		logger:   logger,
	}
}

// Run processes every recipe and returns one receipt per recipe, in input
// order. When reconstruct is set, the placeholder cache is rebuilt from the
// ledger before the first recipe runs. A recipe failure is recorded in its
// receipt and the run continues; the error return is reserved for
// driver-level fatals.
func (d *Driver) Run(ctx context.Context, recipes []domain.Recipe, reconstruct bool) ([]domain.RecipeReceipt, error) {
	if reconstruct {
		active := make([]string, len(recipes))
		for i, r := range recipes {
			active[i] = r.ID
		}
		stats, err := d.cache.Rebuild(ctx, d.ledger.Records(), active)
		if err != nil {
			return nil, zerr.Wrap(err, "cache reconstruction aborted")
		}
		d.logger.Info("cache reconstructed",
			"created", stats.Created, "skipped", stats.Skipped, "warnings", stats.Warnings)
	}

	receipts := make([]domain.RecipeReceipt, 0, len(recipes))
	for i, recipe := range recipes {
		if ctx.Err() != nil {
			// Completed recipes keep their ledger progress; the rest of
			// the set is marked halted rather than failed.
			for _, rest := range recipes[i:] {
				receipts = append(receipts, domain.RecipeReceipt{
					RecipeID: rest.ID,
					Status:   domain.StatusHalted,
				})
			}
			break
		}

		d.logger.Info("running recipe", "recipe", recipe.ID)
		receipts = append(receipts, d.processRecipe(ctx, recipe))
	}
	return receipts, nil
}

func (d *Driver) processRecipe(ctx context.Context, recipe domain.Recipe) domain.RecipeReceipt {
	receipt := domain.RecipeReceipt{RecipeID: recipe.ID, Status: domain.StatusOK}
	state := StatePending

	fail := func(err error) domain.RecipeReceipt {
		if ctx.Err() != nil {
			receipt.Status = domain.StatusHalted
			return receipt
		}
		receipt.Status = domain.StatusFailed
		receipt.Error = err.Error()
		d.logger.Error(err, "recipe", recipe.ID, "state", string(state))
		return receipt
	}

	record, hasRecord := d.ledger.Get(recipe.ID)
	if !hasRecord {
		record = domain.ArtifactRecord{
			RecipeID:          recipe.ID,
			SourceURL:         recipe.SourceURL,
			LocalRelativePath: recipe.ArtifactName,
		}
	}

	entryPath, err := d.cache.EntryPath(record)
	if err != nil {
		return fail(err)
	}

	changed, current, err := d.detector.Check(ctx, recipe, entryPath)
	state = StateCacheChecked
	if err != nil {
		return fail(err)
	}

	if !changed {
		state = StateSkipped
		receipt.Skipped = true
		d.logger.Info("recipe skipped, artifact unchanged", "recipe", recipe.ID)
		return receipt
	}

	state = StateDownloading
	observed, err := d.fetcher.Fetch(ctx, recipe.SourceURL, entryPath)
	if err != nil {
		return fail(err)
	}
	receipt.Downloaded = true

	state = StateVerifying
	if current.Size > 0 && observed.Size != current.Size {
		err := zerr.Wrap(domain.ErrRecipeBuild, "download size mismatch")
		err = zerr.With(err, "declared", current.Size)
		return fail(zerr.With(err, "observed", observed.Size))
	}

	state = StateBuilding
	outcome, err := d.pipeline.Build(ctx, recipe, entryPath)
	if err != nil {
		return fail(err)
	}
	receipt.Built = outcome.Built
	receipt.ArtifactOutputPath = outcome.ArtifactPath

	state = StateDone
	d.ledger.Put(domain.ArtifactRecord{
		RecipeID:          recipe.ID,
		SourceURL:         recipe.SourceURL,
		DeclaredSizeBytes: observed.Size,
		OriginFingerprint: observed.Origin,
		LocalRelativePath: record.LocalRelativePath,
	})
	// Save after every success so an aborted session keeps the progress of
	// recipes that already completed.
	if err := d.ledger.Save(); err != nil {
		d.logger.Warn("ledger save failed, progress kept in memory only", "error", err)
	}

	if outcome.Built {
		d.logger.Info("recipe built",
			"recipe", recipe.ID, "artifact", outcome.ArtifactPath, "version", outcome.Version)
	}
	return receipt
}
