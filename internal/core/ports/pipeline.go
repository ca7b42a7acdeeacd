package ports

import (
	"context"

	"go.pkgforge.dev/rebake/internal/core/domain"
)

// BuildOutcome is what the packaging pipeline reports for one recipe.
type BuildOutcome struct {
	Built        bool
	ArtifactPath string
	Version      string
}

// Pipeline runs the opaque packaging step for one recipe. The artifact has
// already been downloaded (or reconstructed) at artifactPath when Build is
// called.
//
//go:generate mockgen -source=pipeline.go -destination=mocks/mock_pipeline.go -package=mocks
type Pipeline interface {
	Build(ctx context.Context, recipe domain.Recipe, artifactPath string) (BuildOutcome, error)
}
