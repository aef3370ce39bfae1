package scheduler

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	appinventory "github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/application/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/cache"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/notification"
)

// growingFeed returns one more confirmed order on every read, so each pass has work
type growingFeed struct {
	n atomic.Int32
}

func (f *growingFeed) ListStockAffectingOrders(ctx context.Context) (*inventory.FeedSnapshot, error) {
	n := int(f.n.Add(1))
	orders := make([]order.Order, 0, n)
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(i)
		orders = append(orders, order.Order{
			ID:          id,
			OrderNumber: "ORD-" + id,
			Status:      order.StatusConfirmed,
			Items:       []order.LineItem{{ProductID: "P1", Quantity: 1}},
		})
	}
	return &inventory.FeedSnapshot{Orders: orders}, nil
}

// gatedApplier blocks the first batch call until released and tracks overlap
type gatedApplier struct {
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once

	calls     atomic.Int32
	active    atomic.Int32
	overlaps  atomic.Int32
	submitted atomic.Int32
}

func (a *gatedApplier) Apply(ctx context.Context, adjustments []inventory.StockAdjustment) ([]inventory.ApplyResult, error) {
	if a.active.Add(1) > 1 {
		a.overlaps.Add(1)
	}
	defer a.active.Add(-1)
	a.calls.Add(1)
	a.submitted.Add(int32(len(adjustments)))

	a.once.Do(func() {
		close(a.entered)
		<-a.gate
	})

	results := make([]inventory.ApplyResult, len(adjustments))
	for i, adj := range adjustments {
		results[i] = inventory.ApplyResult{Success: true, ProductID: adj.ProductID, OldQuantity: 100, NewQuantity: 100 + adj.Adjustment}
	}
	return results, nil
}

func TestReconciliationPipeline_SerializesBatchCalls(t *testing.T) {
	log := zaptest.NewLogger(t)
	bus := notification.NewBus(log)
	defer bus.Shutdown()

	applier := &gatedApplier{gate: make(chan struct{}), entered: make(chan struct{})}
	service := appinventory.NewReconciliationService(&growingFeed{}, applier, cache.NewInMemoryAdjustmentGuard(), bus, log)

	s, err := NewReconciliationScheduler(manualConfig(), service, log)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.True(t, s.Trigger(TriggerManual))
	select {
	case <-applier.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first batch call never started")
	}

	s.Trigger(TriggerManual)
	s.Trigger(TriggerOrderEvent)

	close(applier.gate)

	require.Eventually(t, func() bool {
		return len(s.GetRunHistory(0)) == 2
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	service.Wait()

	assert.Equal(t, int32(2), applier.calls.Load(), "exactly one extra run after the burst")
	assert.Zero(t, applier.overlaps.Load(), "batch calls must never overlap")
	// second pass only submits the order that appeared since the first
	assert.Equal(t, int32(2), applier.submitted.Load())

	for _, run := range s.GetRunHistory(0) {
		assert.Equal(t, RunStatusSuccess, run.Status)
	}
	assert.NotEmpty(t, bus.List())
}
