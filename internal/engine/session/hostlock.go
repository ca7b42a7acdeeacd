package session

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// HostLocks serializes sessions per build host. Two concurrent invocations
// targeting the same host would race on the remote staging directory and the
// installed credential, so each host admits one session at a time.
type HostLocks struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewHostLocks creates an empty lock table.
func NewHostLocks() *HostLocks {
	return &HostLocks{locks: map[string]*semaphore.Weighted{}}
}

// Acquire blocks until the named host is free or ctx is done. The returned
// release function must be called exactly once.
func (h *HostLocks) Acquire(ctx context.Context, host string) (func(), error) {
	h.mu.Lock()
	sem, ok := h.locks[host]
	if !ok {
		sem = semaphore.NewWeighted(1)
		h.locks[host] = sem
	}
	h.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
