package domain

// Fingerprint identifies an origin artifact by its declared size and the
// origin's own validator string (ETag or Last-Modified). It is never derived
// from content bytes, so a placeholder cache entry carries the same
// fingerprint as the real download it stands in for.
type Fingerprint struct {
	Size   int64  `json:"size"`
	Origin string `json:"origin"`
}

// Matches reports whether two fingerprints describe the same origin artifact.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.Size == other.Size && f.Origin == other.Origin
}

// Zero reports whether the fingerprint carries no information.
func (f Fingerprint) Zero() bool {
	return f.Size == 0 && f.Origin == ""
}

// ArtifactRecord is one ledger entry: the last-known download metadata for a
// recipe's origin artifact. Records are replaced wholesale after a successful
// fetch, never mutated field by field.
type ArtifactRecord struct {
	RecipeID          string `json:"recipe_id"`
	SourceURL         string `json:"source_url"`
	DeclaredSizeBytes int64  `json:"declared_size_bytes"`
	OriginFingerprint string `json:"origin_fingerprint"`
	LocalRelativePath string `json:"local_relative_path"`
}

// Fingerprint returns the record's (size, origin validator) pair.
func (r ArtifactRecord) Fingerprint() Fingerprint {
	return Fingerprint{Size: r.DeclaredSizeBytes, Origin: r.OriginFingerprint}
}
