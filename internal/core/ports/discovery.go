package ports

import (
	"context"

	"go.pkgforge.dev/rebake/internal/core/domain"
)

// HostLister discovers reachable build hosts. It may return zero, one, or
// many descriptors; resolving them to exactly one target is the session
// manager's job.
//
//go:generate mockgen -source=discovery.go -destination=mocks/mock_discovery.go -package=mocks
type HostLister interface {
	ListHosts(ctx context.Context) ([]domain.HostDescriptor, error)
}
