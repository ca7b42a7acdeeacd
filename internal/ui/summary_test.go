package ui_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/ui"
)

func TestRenderSummary_Receipts(t *testing.T) {
	rep := domain.CombinedReport{
		Receipts: []domain.RecipeReceipt{
			{RecipeID: "VLC", Built: true, Status: domain.StatusOK, ArtifactOutputPath: "/out/VLC.pkg"},
			{RecipeID: "Firefox", Skipped: true, Status: domain.StatusOK},
			{RecipeID: "Chrome", Status: domain.StatusFailed, Error: "origin unreachable"},
		},
		ChangedRecipes: []string{"VLC"},
		Built:          1,
		Skipped:        1,
		Failed:         1,
	}

	out := ui.RenderSummary(rep, nil)
	assert.Contains(t, out, "VLC")
	assert.Contains(t, out, "Firefox")
	assert.Contains(t, out, "origin unreachable")
	assert.Contains(t, out, "1 built")
	assert.Contains(t, out, "changed: VLC")
}

func TestRenderSummary_SessionPhases(t *testing.T) {
	s := &domain.BuildSession{
		Host:  domain.HostDescriptor{Name: "builder-01"},
		Phase: domain.PhaseCleaned,
		PhaseResults: []domain.PhaseResult{
			{Phase: domain.PhaseKeyProvisioned, Duration: 120 * time.Millisecond},
			{Phase: domain.PhaseStaged, Duration: 2 * time.Second},
		},
	}

	out := ui.RenderSummary(domain.CombinedReport{}, s)
	assert.Contains(t, out, "builder-01")
	assert.Contains(t, out, string(domain.PhaseStaged))
}
