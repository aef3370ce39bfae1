package cache

import (
	"context"
	"sync"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
)

// InMemoryAdjustmentGuard implements AdjustmentGuard using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryAdjustmentGuard struct {
	mu      sync.RWMutex
	applied map[string]struct{}
	byOrder map[string]map[string]struct{}
}

// NewInMemoryAdjustmentGuard creates a new in-memory adjustment guard
func NewInMemoryAdjustmentGuard() *InMemoryAdjustmentGuard {
	return &InMemoryAdjustmentGuard{
		applied: make(map[string]struct{}),
		byOrder: make(map[string]map[string]struct{}),
	}
}

// ShouldApply reports whether the key has not been applied yet
func (g *InMemoryAdjustmentGuard) ShouldApply(ctx context.Context, key inventory.AdjustmentKey) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, done := g.applied[key.String()]
	return !done, nil
}

// MarkApplied records the keys as applied. Entries never expire.
func (g *InMemoryAdjustmentGuard) MarkApplied(ctx context.Context, keys ...inventory.AdjustmentKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, key := range keys {
		k := key.String()
		g.applied[k] = struct{}{}

		idx, ok := g.byOrder[key.OrderID]
		if !ok {
			idx = make(map[string]struct{})
			g.byOrder[key.OrderID] = idx
		}
		idx[k] = struct{}{}
	}
	return nil
}

// ClearOrder forgets every key recorded for the order
func (g *InMemoryAdjustmentGuard) ClearOrder(ctx context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for k := range g.byOrder[orderID] {
		delete(g.applied, k)
	}
	delete(g.byOrder, orderID)
	return nil
}

// Clear forgets every key
func (g *InMemoryAdjustmentGuard) Clear(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.applied = make(map[string]struct{})
	g.byOrder = make(map[string]map[string]struct{})
	return nil
}

// Close releases resources. Safe to call multiple times.
func (g *InMemoryAdjustmentGuard) Close() error {
	return nil
}

// Size returns the number of applied keys (for testing/monitoring)
func (g *InMemoryAdjustmentGuard) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.applied)
}

// Ensure InMemoryAdjustmentGuard implements AdjustmentGuard
var _ inventory.AdjustmentGuard = (*InMemoryAdjustmentGuard)(nil)
