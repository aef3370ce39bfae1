package inventory

import (
	"context"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
)

// FeedSnapshot is the set of stock-affecting orders at one point in time
type FeedSnapshot struct {
	Orders       []order.Order
	LastSyncedAt *time.Time
}

// OrderFeed supplies the orders whose status may move stock
type OrderFeed interface {
	// ListStockAffectingOrders returns the current candidate set
	ListStockAffectingOrders(ctx context.Context) (*FeedSnapshot, error)
}

// BatchApplier submits stock adjustments to the inventory service.
// Results have the same length and order as the input. A failure on one item
// does not abort the others; a returned error means the call failed as a whole.
type BatchApplier interface {
	Apply(ctx context.Context, adjustments []StockAdjustment) ([]ApplyResult, error)
}

// AdjustmentGuard records which adjustments were already committed
type AdjustmentGuard interface {
	// ShouldApply reports whether the key has not been applied yet
	ShouldApply(ctx context.Context, key AdjustmentKey) (bool, error)
	// MarkApplied records the keys as applied
	MarkApplied(ctx context.Context, keys ...AdjustmentKey) error
	// ClearOrder forgets every key of an order, used once the order is archived
	ClearOrder(ctx context.Context, orderID string) error
	// Clear forgets every key
	Clear(ctx context.Context) error
}

// StatsRefresher asks the inventory service for fresh aggregate statistics
type StatsRefresher interface {
	RefreshStats(ctx context.Context) error
}
