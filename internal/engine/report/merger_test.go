package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/engine/report"
)

func TestMerge_CountsAndExcludesHalted(t *testing.T) {
	receipts := []domain.RecipeReceipt{
		{RecipeID: "VLC", Downloaded: true, Built: true, Status: domain.StatusOK},
		{RecipeID: "Firefox", Skipped: true, Status: domain.StatusOK},
		{RecipeID: "Chrome", Status: domain.StatusFailed, Error: "origin unreachable"},
		{RecipeID: "Slack", Status: domain.StatusHalted},
	}

	merged := report.Merge(receipts, nil, nil)
	require.Len(t, merged.Receipts, 3)
	for _, r := range merged.Receipts {
		assert.NotEqual(t, domain.StatusHalted, r.Status)
	}
	assert.Equal(t, 1, merged.Built)
	assert.Equal(t, 1, merged.Skipped)
	assert.Equal(t, 1, merged.Failed)
}

func TestMerge_ChangedRecipesFromLedgerDelta(t *testing.T) {
	prev := []domain.ArtifactRecord{
		{RecipeID: "VLC", DeclaredSizeBytes: 100, OriginFingerprint: "A"},
		{RecipeID: "Firefox", DeclaredSizeBytes: 200, OriginFingerprint: "B"},
	}
	curr := []domain.ArtifactRecord{
		{RecipeID: "VLC", DeclaredSizeBytes: 101, OriginFingerprint: "A2"},
		{RecipeID: "Firefox", DeclaredSizeBytes: 200, OriginFingerprint: "B"},
		{RecipeID: "Zoom", DeclaredSizeBytes: 300, OriginFingerprint: "C"},
	}

	merged := report.Merge(nil, prev, curr)
	assert.Equal(t, []string{"VLC", "Zoom"}, merged.ChangedRecipes)
	assert.Empty(t, merged.Receipts)
}

func TestWriteJSON(t *testing.T) {
	merged := report.Merge([]domain.RecipeReceipt{
		{RecipeID: "VLC", Built: true, Status: domain.StatusOK},
	}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, merged))
	assert.Contains(t, buf.String(), `"recipe_id": "VLC"`)
}

func TestWritePlist(t *testing.T) {
	merged := report.Merge([]domain.RecipeReceipt{
		{RecipeID: "VLC", Built: true, Status: domain.StatusOK},
	}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, report.WritePlist(&buf, merged))
	out := buf.String()
	assert.True(t, strings.Contains(out, "<plist"))
	assert.Contains(t, out, "VLC")
}
