package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
)

type fakeFeed struct {
	mu     sync.Mutex
	orders []order.Order
	err    error
}

func (f *fakeFeed) set(orders ...order.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
}

func (f *fakeFeed) ListStockAffectingOrders(ctx context.Context) (*inventory.FeedSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]order.Order, len(f.orders))
	copy(out, f.orders)
	return &inventory.FeedSnapshot{Orders: out}, nil
}

// fakeApplier applies adjustments to an in-memory stock table
type fakeApplier struct {
	mu      sync.Mutex
	stock   map[string]int
	reorder map[string]int
	reject  map[string]string
	err     error
	short   bool
	calls   [][]inventory.StockAdjustment
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{
		stock:   make(map[string]int),
		reorder: make(map[string]int),
		reject:  make(map[string]string),
	}
}

func (a *fakeApplier) Apply(ctx context.Context, adjustments []inventory.StockAdjustment) ([]inventory.ApplyResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, adjustments)
	if a.err != nil {
		return nil, a.err
	}

	results := make([]inventory.ApplyResult, 0, len(adjustments))
	for _, adj := range adjustments {
		if msg, ok := a.reject[adj.ProductID]; ok {
			results = append(results, inventory.ApplyResult{
				ProductID:    adj.ProductID,
				SKU:          adj.SKU,
				ErrorMessage: msg,
			})
			continue
		}
		old := a.stock[adj.ProductID]
		a.stock[adj.ProductID] = old + adj.Adjustment
		results = append(results, inventory.ApplyResult{
			Success:      true,
			ProductID:    adj.ProductID,
			SKU:          adj.SKU,
			ProductName:  adj.ProductName,
			OldQuantity:  old,
			NewQuantity:  old + adj.Adjustment,
			ReorderLevel: a.reorderLevel(adj.ProductID),
		})
	}
	if a.short && len(results) > 0 {
		results = results[:len(results)-1]
	}
	return results, nil
}

func (a *fakeApplier) reorderLevel(productID string) *int {
	level, ok := a.reorder[productID]
	if !ok {
		return nil
	}
	return &level
}

func (a *fakeApplier) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func (a *fakeApplier) lastCall() []inventory.StockAdjustment {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.calls) == 0 {
		return nil
	}
	return a.calls[len(a.calls)-1]
}

type fakeGuard struct {
	mu        sync.Mutex
	applied   map[string]struct{}
	lookupErr error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{applied: make(map[string]struct{})}
}

func (g *fakeGuard) ShouldApply(ctx context.Context, key inventory.AdjustmentKey) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lookupErr != nil {
		return false, g.lookupErr
	}
	_, ok := g.applied[key.String()]
	return !ok, nil
}

func (g *fakeGuard) MarkApplied(ctx context.Context, keys ...inventory.AdjustmentKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		g.applied[k.String()] = struct{}{}
	}
	return nil
}

func (g *fakeGuard) ClearOrder(ctx context.Context, orderID string) error { return nil }

func (g *fakeGuard) Clear(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.applied = make(map[string]struct{})
	return nil
}

func (g *fakeGuard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.applied)
}

type published struct {
	Type     notification.Type
	Title    string
	Message  string
	Duration time.Duration
}

type recordingPublisher struct {
	mu    sync.Mutex
	items []published
}

func (p *recordingPublisher) Publish(t notification.Type, title, message string, d time.Duration) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, published{Type: t, Title: title, Message: message, Duration: d})
	return "id"
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.items))
	copy(out, p.items)
	return out
}

func (p *recordingPublisher) titles() []string {
	var titles []string
	for _, n := range p.all() {
		titles = append(titles, n.Title)
	}
	return titles
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) RefreshStats(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) RecordPass(ctx context.Context, outcome string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) RecordAdjustments(ctx context.Context, succeeded, failed, suppressed int) {
}
