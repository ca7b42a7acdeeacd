package ports

import "go.pkgforge.dev/rebake/internal/core/domain"

// LedgerStore defines the interface for the durable recipe->artifact
// fingerprint mapping. Exactly one build driver instance mutates a ledger
// per session; implementations do not need to support concurrent writers.
//
//go:generate mockgen -source=ledger.go -destination=mocks/mock_ledger.go -package=mocks
type LedgerStore interface {
	// Get retrieves the record for a recipe. The second return is false
	// when no record exists.
	Get(recipeID string) (domain.ArtifactRecord, bool)

	// Put replaces the record for a recipe wholesale.
	Put(record domain.ArtifactRecord)

	// Records returns all records sorted by recipe ID.
	Records() []domain.ArtifactRecord

	// Save persists the ledger to its backing file.
	Save() error
}
