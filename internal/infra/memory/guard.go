package memory

import (
	"context"
	"sync"
)

// OperationGuard is an in-process app.OperationGuard.
type OperationGuard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewOperationGuard() *OperationGuard {
	return &OperationGuard{pending: make(map[string]struct{})}
}

func (g *OperationGuard) TryAcquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return false, nil
	}
	g.pending[key] = struct{}{}
	return true, nil
}

func (g *OperationGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, key)
	return nil
}
