package domain

// Recipe is a named, independently executable packaging pipeline definition.
// Recipes are parsed from .recipe plist files under the recipes directory.
type Recipe struct {
	// ID is the recipe's stable identifier, used as the ledger key.
	ID string
	// Name is the human-facing product name from the recipe's input block.
	Name string
	// SourceURL is the origin download location for the recipe's artifact.
	SourceURL string
	// ArtifactName is the file name the download is cached under, relative
	// to the cache root.
	ArtifactName string
	// Path is the location of the recipe file on disk.
	Path string
}
