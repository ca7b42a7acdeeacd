// Package recipes loads recipe sets and recipe definitions from disk.
// Recipe definitions are plist documents; recipe sets are JSON or plist
// arrays of recipe file names.
package recipes

import (
	"encoding/json"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
	"howett.net/plist"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Ext is the recipe file extension.
const Ext = ".recipe"

// WithExt returns name with the recipe extension appended when missing, so
// recipes can be named bare ("VLC") or fully ("VLC.recipe") anywhere a name
// is accepted.
func WithExt(name string) string {
	if filepath.Ext(name) != Ext {
		return name + Ext
	}
	return name
}

// LoadSet reads a recipe set document: a JSON or plist array of recipe
// names. Names without the recipe extension get it appended.
func LoadSet(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read recipe set")
	}

	var names []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, zerr.Wrap(err, "failed to parse recipe set")
		}
	case ".plist":
		if _, err := plist.Unmarshal(data, &names); err != nil {
			return nil, zerr.Wrap(err, "failed to parse recipe set")
		}
	default:
		return nil, zerr.With(zerr.New("unsupported recipe set extension, expected .json or .plist"),
			"path", path)
	}

	for i, name := range names {
		names[i] = WithExt(name)
	}
	return names, nil
}

// recipeFile is the on-disk plist shape of a recipe definition.
type recipeFile struct {
	Identifier string `plist:"Identifier"`
	Input      struct {
		Name        string `plist:"NAME"`
		DownloadURL string `plist:"DOWNLOAD_URL"`
	} `plist:"Input"`
}

// Loader locates and parses recipe definitions under a recipes directory.
type Loader struct {
	dir    string
	logger ports.Logger
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string, logger ports.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Locate finds the recipe file with the given name anywhere under the
// recipes directory.
func (l *Loader) Locate(name string) (string, error) {
	var found string
	err := filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to scan recipes directory"), "dir", l.dir)
	}
	if found == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrRecipeNotFound, name), "dir", l.dir)
	}
	return found, nil
}

// Load parses the recipe definition at path.
func (l *Loader) Load(path string) (domain.Recipe, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path resolved under the recipes dir
	if err != nil {
		return domain.Recipe{}, zerr.Wrap(err, "failed to read recipe")
	}

	var rf recipeFile
	if _, err := plist.Unmarshal(data, &rf); err != nil {
		return domain.Recipe{}, zerr.With(zerr.Wrap(err, "failed to parse recipe"), "path", path)
	}
	if rf.Input.DownloadURL == "" {
		return domain.Recipe{}, zerr.With(zerr.New("recipe has no download URL"), "path", path)
	}

	rec := domain.Recipe{
		ID:           strings.TrimSuffix(filepath.Base(path), Ext),
		Name:         rf.Input.Name,
		SourceURL:    rf.Input.DownloadURL,
		ArtifactName: artifactName(rf.Input.DownloadURL, rf.Input.Name),
		Path:         path,
	}
	if rec.Name == "" {
		rec.Name = rec.ID
	}
	return rec, nil
}

// ResolveAll locates and parses every named recipe. Recipes that cannot be
// resolved become failed receipts; resolution problems never abort the set.
func (l *Loader) ResolveAll(names []string) ([]domain.Recipe, []domain.RecipeReceipt) {
	var (
		resolved []domain.Recipe
		failed   []domain.RecipeReceipt
	)
	for _, name := range names {
		id := strings.TrimSuffix(name, Ext)

		path, err := l.Locate(name)
		if err == nil {
			var rec domain.Recipe
			if rec, err = l.Load(path); err == nil {
				resolved = append(resolved, rec)
				continue
			}
		}

		l.logger.Error(err, "recipe", name)
		failed = append(failed, domain.RecipeReceipt{
			RecipeID: id,
			Status:   domain.StatusFailed,
			Error:    err.Error(),
		})
	}
	return resolved, failed
}

// artifactName derives the cache file name from the download URL, falling
// back to the recipe's product name.
func artifactName(rawURL, name string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return name + ".dmg"
}
