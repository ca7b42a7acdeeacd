// Package ledger implements the durable artifact-fingerprint ledger as a
// flat JSON file.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Store implements ports.LedgerStore using a flat JSON file keyed by
// recipe ID. The ledger is the sole durable state between runs.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.ArtifactRecord
}

var _ ports.LedgerStore = (*Store)(nil)

// Open loads the ledger at path. A missing or unparsable file is never
// fatal: the store starts empty and the condition is logged as a warning,
// so a half-written ledger from a crashed run cannot brick later sessions.
func Open(path string, logger ports.Logger) *Store {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.ArtifactRecord),
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no ledger file, starting empty", "path", s.path)
		} else {
			logger.Warn("ledger unreadable, starting empty", "path", s.path, "error", err)
		}
		return s
	}
	if len(data) == 0 {
		return s
	}
	if err := json.Unmarshal(data, &s.cache); err != nil {
		logger.Warn("ledger corrupt, starting empty", "path", s.path, "error", err)
		s.cache = make(map[string]domain.ArtifactRecord)
		return s
	}

	// The map key is authoritative for lookup; keep the embedded ID in sync
	// for documents written by older drivers that omitted it.
	for id, rec := range s.cache {
		if rec.RecipeID == "" {
			rec.RecipeID = id
			s.cache[id] = rec
		}
	}
	return s
}

// Get retrieves the record for a recipe.
func (s *Store) Get(recipeID string) (domain.ArtifactRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cache[recipeID]
	return rec, ok
}

// Put replaces the record for a recipe wholesale.
func (s *Store) Put(record domain.ArtifactRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[record.RecipeID] = record
}

// Records returns all records sorted by recipe ID.
func (s *Store) Records() []domain.ArtifactRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]domain.ArtifactRecord, 0, len(s.cache))
	for _, rec := range s.cache {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b domain.ArtifactRecord) int {
		return strings.Compare(a.RecipeID, b.RecipeID)
	})
	return recs
}

// Save persists the ledger to its backing file.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.cache, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(err, "failed to marshal ledger")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create ledger directory")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write ledger")
	}
	return nil
}

// ContentFingerprint returns the whole-document hash that implicitly
// versions the ledger. Records are hashed in sorted order so the value is
// independent of map iteration.
func (s *Store) ContentFingerprint() string {
	h := xxhash.New()
	for _, rec := range s.Records() {
		_, _ = fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s\x00%s\x00",
			rec.RecipeID, rec.SourceURL, rec.DeclaredSizeBytes,
			rec.OriginFingerprint, rec.LocalRelativePath)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Diff returns the sorted recipe IDs whose record is new in curr or differs
// from prev. Records removed from curr do not count as changed.
func Diff(prev, curr []domain.ArtifactRecord) []string {
	old := make(map[string]domain.ArtifactRecord, len(prev))
	for _, rec := range prev {
		old[rec.RecipeID] = rec
	}

	var changed []string
	for _, rec := range curr {
		if prevRec, ok := old[rec.RecipeID]; !ok || prevRec != rec {
			changed = append(changed, rec.RecipeID)
		}
	}
	slices.Sort(changed)
	return changed
}
