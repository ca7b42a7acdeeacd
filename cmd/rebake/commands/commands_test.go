package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pkgforge.dev/rebake/cmd/rebake/commands"
)

func TestRoot_Help(t *testing.T) {
	cli := commands.New()
	cli.SetArgs([]string{"--help"})
	assert.NoError(t, cli.Execute(context.Background()))
}

func TestVersion(t *testing.T) {
	cli := commands.New()
	cli.SetArgs([]string{"version"})
	assert.NoError(t, cli.Execute(context.Background()))
}

func TestRun_NoRecipesAndNoSet(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rebake.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("target: local\n"), 0o600))

	cli := commands.New()
	cli.SetArgs([]string{"run", "--config", cfgPath})
	err := cli.Execute(context.Background())
	assert.Error(t, err)
}

func TestRun_BadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rebake.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("target: cloud\n"), 0o600))

	cli := commands.New()
	cli.SetArgs([]string{"run", "--config", cfgPath})
	assert.Error(t, cli.Execute(context.Background()))
}

func TestRun_FailsRecipesAreReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "recipes"), 0o750))
	cfg := "target: local\n" +
		"recipes_dir: " + filepath.Join(dir, "recipes") + "\n" +
		"cache_root: " + filepath.Join(dir, "cache") + "\n" +
		"ledger_path: " + filepath.Join(dir, "ledger.json") + "\n" +
		"receipts_dir: " + dir + "\n" +
		"pipeline_cmd: [\"autopkg\", \"run\"]\n"
	cfgPath := filepath.Join(dir, "rebake.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	cli := commands.New()
	cli.SetArgs([]string{"run", "--config", cfgPath, "NoSuchRecipe"})
	err := cli.Execute(context.Background())
	require.Error(t, err)

	// The unresolved recipe still lands in the receipts file.
	data, readErr := os.ReadFile(filepath.Join(dir, "receipts.json"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "NoSuchRecipe")
}
