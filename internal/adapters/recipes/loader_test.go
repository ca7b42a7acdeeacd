package recipes_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pkgforge.dev/rebake/internal/adapters/logger"
	"go.pkgforge.dev/rebake/internal/adapters/recipes"
)

const vlcRecipe = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Identifier</key>
	<string>dev.pkgforge.recipes.VLC</string>
	<key>Input</key>
	<dict>
		<key>NAME</key>
		<string>VLC</string>
		<key>DOWNLOAD_URL</key>
		<string>https://get.videolan.org/vlc/VLC.dmg</string>
	</dict>
</dict>
</plist>
`

func writeRecipe(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestWithExt(t *testing.T) {
	assert.Equal(t, "VLC.recipe", recipes.WithExt("VLC"))
	assert.Equal(t, "VLC.recipe", recipes.WithExt("VLC.recipe"))
}

func TestLoadSet_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, []byte(`["VLC", "Firefox.recipe"]`), 0o600))

	names, err := recipes.LoadSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"VLC.recipe", "Firefox.recipe"}, names)
}

func TestLoadSet_Plist(t *testing.T) {
	content := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<array>
	<string>VLC</string>
	<string>Zoom.recipe</string>
</array>
</plist>
`
	path := filepath.Join(t.TempDir(), "recipes.plist")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	names, err := recipes.LoadSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"VLC.recipe", "Zoom.recipe"}, names)
}

func TestLoadSet_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.txt")
	require.NoError(t, os.WriteFile(path, []byte("VLC"), 0o600))

	_, err := recipes.LoadSet(path)
	assert.Error(t, err)
}

func TestLoader_LocateAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, filepath.Join("apps", "media", "VLC.recipe"), vlcRecipe)

	l := recipes.NewLoader(dir, logger.New())
	path, err := l.Locate("VLC.recipe")
	require.NoError(t, err)

	rec, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "VLC", rec.ID)
	assert.Equal(t, "VLC", rec.Name)
	assert.Equal(t, "https://get.videolan.org/vlc/VLC.dmg", rec.SourceURL)
	assert.Equal(t, "VLC.dmg", rec.ArtifactName)
}

func TestLoader_ResolveAll_MissingRecipeBecomesFailedReceipt(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, "VLC.recipe", vlcRecipe)

	l := recipes.NewLoader(dir, logger.New())
	resolved, failed := l.ResolveAll([]string{"VLC.recipe", "Ghost.recipe"})

	require.Len(t, resolved, 1)
	assert.Equal(t, "VLC", resolved[0].ID)

	require.Len(t, failed, 1)
	assert.Equal(t, "Ghost", failed[0].RecipeID)
	assert.Equal(t, "failed", string(failed[0].Status))
}

func TestLoader_Load_RequiresDownloadURL(t *testing.T) {
	dir := t.TempDir()
	content := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Identifier</key>
	<string>dev.pkgforge.recipes.Broken</string>
</dict>
</plist>
`
	path := writeRecipe(t, dir, "Broken.recipe", content)

	_, err := recipes.NewLoader(dir, logger.New()).Load(path)
	assert.Error(t, err)
}
