// Package umslock serializes every call that mutates UMS state (reload and
// validation) across the four watchers and the foreground thread. A single
// coarse mutex around the shared service is sufficient here; the watchers
// hold it only for the duration of one UMS call.
package umslock

import (
	"context"
	"sync"

	"github.com/re-cinq/ums-hooks/internal/ums"
)

// Guard wraps a ums.Service so Reload and Validate never interleave with
// each other or with a concurrent caller.
type Guard struct {
	mu  sync.Mutex
	svc ums.Service
}

// NewGuard wraps svc behind a coarse mutex.
func NewGuard(svc ums.Service) *Guard {
	return &Guard{svc: svc}
}

// Reload acquires the lock and calls through to the underlying service.
func (g *Guard) Reload(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.svc.Reload(ctx)
}

// Validate acquires the lock and calls through to the underlying service.
func (g *Guard) Validate(ctx context.Context) (ums.ValidationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.svc.Validate(ctx)
}

// Dispose releases the underlying service. Not lock-ordered against
// in-flight Reload/Validate calls beyond the mutex itself; callers must
// stop all watchers before disposing.
func (g *Guard) Dispose() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.svc.Dispose()
}

// View returns a view handle without acquiring the lock. Only the calls
// that mutate UMS state need serializing; reads do not.
func (g *Guard) View() ums.View {
	return g.svc.View()
}
