package cache_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pkgforge.dev/rebake/internal/adapters/cache"
	"go.pkgforge.dev/rebake/internal/adapters/fsattr"
	"go.pkgforge.dev/rebake/internal/adapters/logger"
	"go.pkgforge.dev/rebake/internal/core/domain"
)

func record(id string, size int64, origin string) domain.ArtifactRecord {
	return domain.ArtifactRecord{
		RecipeID:          id,
		SourceURL:         "https://x/" + id + ".dmg",
		DeclaredSizeBytes: size,
		OriginFingerprint: origin,
		LocalRelativePath: id + ".dmg",
	}
}

func TestRebuild_RoundTrip(t *testing.T) {
	root := t.TempDir()
	r := cache.NewReconstructor(root, logger.New())

	records := []domain.ArtifactRecord{
		record("VLC", 123456789, "Tue,01Jan2023"),
		record("Firefox", 98765, `"etag-abc"`),
	}

	stats, err := r.Rebuild(context.Background(), records, []string{"VLC", "Firefox"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)
	assert.Zero(t, stats.Warnings)

	// Reading (size, fingerprint) back off disk reproduces the ledger's
	// declared values exactly.
	for _, rec := range records {
		fp, err := fsattr.Read(filepath.Join(root, rec.LocalRelativePath))
		require.NoError(t, err)
		assert.Equal(t, rec.Fingerprint(), fp, "recipe %s", rec.RecipeID)
	}
}

func TestRebuild_Idempotent(t *testing.T) {
	root := t.TempDir()
	r := cache.NewReconstructor(root, logger.New())
	records := []domain.ArtifactRecord{record("VLC", 4096, "Tue,01Jan2023")}
	active := []string{"VLC"}

	first, err := r.Rebuild(context.Background(), records, active)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := r.Rebuild(context.Background(), records, active)
	require.NoError(t, err)
	assert.Zero(t, second.Mutations())
	assert.Equal(t, 1, second.Skipped)
}

func TestRebuild_RewritesStaleEntry(t *testing.T) {
	root := t.TempDir()
	r := cache.NewReconstructor(root, logger.New())
	active := []string{"VLC"}

	_, err := r.Rebuild(context.Background(), []domain.ArtifactRecord{record("VLC", 100, "F1")}, active)
	require.NoError(t, err)

	stats, err := r.Rebuild(context.Background(), []domain.ArtifactRecord{record("VLC", 100, "F2")}, active)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	fp, err := fsattr.Read(filepath.Join(root, "VLC.dmg"))
	require.NoError(t, err)
	assert.Equal(t, "F2", fp.Origin)
}

func TestRebuild_ScopedToActiveSet(t *testing.T) {
	root := t.TempDir()
	r := cache.NewReconstructor(root, logger.New())

	records := []domain.ArtifactRecord{
		record("VLC", 100, "F1"),
		record("Zoom", 200, "F2"),
	}

	stats, err := r.Rebuild(context.Background(), records, []string{"VLC"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	_, err = fsattr.Read(filepath.Join(root, "Zoom.dmg"))
	assert.Error(t, err)
}

func TestRebuild_EscapingPathIsWarningNotFatal(t *testing.T) {
	root := t.TempDir()
	r := cache.NewReconstructor(root, logger.New())

	bad := record("Evil", 100, "F1")
	bad.LocalRelativePath = "../outside.dmg"
	records := []domain.ArtifactRecord{bad, record("VLC", 100, "F1")}

	stats, err := r.Rebuild(context.Background(), records, []string{"Evil", "VLC"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Warnings)
	assert.Equal(t, 1, stats.Created)

	fp, err := fsattr.Read(filepath.Join(root, "VLC.dmg"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), fp.Size)
}

func TestRebuild_NestedRelativePath(t *testing.T) {
	root := t.TempDir()
	r := cache.NewReconstructor(root, logger.New())

	rec := record("VLC", 50, "F1")
	rec.LocalRelativePath = filepath.Join("downloads", "VLC.dmg")

	stats, err := r.Rebuild(context.Background(), []domain.ArtifactRecord{rec}, []string{"VLC"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	fp, err := fsattr.Read(filepath.Join(root, "downloads", "VLC.dmg"))
	require.NoError(t, err)
	assert.Equal(t, rec.Fingerprint(), fp)
}
