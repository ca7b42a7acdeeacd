package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pkgforge.dev/rebake/internal/core/domain"
)

func TestRootCmd_RequiresList(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestRootCmd_UnresolvedRecipesExitZero(t *testing.T) {
	for _, name := range []string{"REBAKE_RECIPES_DIR", "REBAKE_LEDGER_PATH", "REBAKE_CACHE_ROOT", "REBAKE_RECIPE", "REBAKE_WEBHOOK_URL"} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	setPath := filepath.Join(dir, "set.json")
	require.NoError(t, os.WriteFile(setPath, []byte(`["NoSuchRecipe"]`), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--list", setPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	// Receipts land next to the (defaulted) ledger path.
	data, err := os.ReadFile(filepath.Join(dir, "receipts.json"))
	require.NoError(t, err)
	var receipts []domain.RecipeReceipt
	require.NoError(t, json.Unmarshal(data, &receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, "NoSuchRecipe", receipts[0].RecipeID)
	assert.Equal(t, domain.StatusFailed, receipts[0].Status)
}

func TestRootCmd_UnreadableSetIsFatal(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--list", filepath.Join(t.TempDir(), "absent.json")})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestResolveSettings_Defaults(t *testing.T) {
	for _, name := range []string{"REBAKE_RECIPES_DIR", "REBAKE_LEDGER_PATH", "REBAKE_CACHE_ROOT", "REBAKE_RECIPE"} {
		t.Setenv(name, "")
	}
	s := resolveSettings("/srv/rebake/set.json")
	assert.Equal(t, "/srv/rebake", s.recipesDir)
	assert.Equal(t, "/srv/rebake/ledger.json", s.ledgerPath)
	assert.NotEmpty(t, s.cacheRoot)
}

func TestResolveSettings_EnvOverrides(t *testing.T) {
	t.Setenv("REBAKE_RECIPES_DIR", "/opt/recipes")
	t.Setenv("REBAKE_LEDGER_PATH", "/var/lib/rebake/ledger.json")
	t.Setenv("REBAKE_CACHE_ROOT", "/var/cache/rebake")
	t.Setenv("REBAKE_RECIPE", "VLC")

	s := resolveSettings("/srv/rebake/set.json")
	assert.Equal(t, "/opt/recipes", s.recipesDir)
	assert.Equal(t, "/var/lib/rebake/ledger.json", s.ledgerPath)
	assert.Equal(t, "/var/cache/rebake", s.cacheRoot)
	assert.Equal(t, "VLC", s.recipe)
}
