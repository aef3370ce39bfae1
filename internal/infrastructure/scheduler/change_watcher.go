package scheduler

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
)

// ChangeWatcherConfig holds configuration for the order feed change watcher
type ChangeWatcherConfig struct {
	// PollInterval is how often the feed is read
	PollInterval time.Duration
}

// DefaultChangeWatcherConfig returns default configuration
func DefaultChangeWatcherConfig() ChangeWatcherConfig {
	return ChangeWatcherConfig{PollInterval: 15 * time.Second}
}

// ChangeWatcher polls the order feed and requests a run when the set of
// stock-affecting orders changes. An empty set never triggers.
type ChangeWatcher struct {
	config  ChangeWatcherConfig
	feed    inventory.OrderFeed
	trigger Triggerer
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	fpMu            sync.Mutex
	lastFingerprint uint64
}

// NewChangeWatcher creates a new change watcher
func NewChangeWatcher(config ChangeWatcherConfig, feed inventory.OrderFeed, trigger Triggerer, logger *zap.Logger) (*ChangeWatcher, error) {
	if config.PollInterval <= 0 {
		return nil, ErrInvalidConfig
	}
	return &ChangeWatcher{
		config:  config,
		feed:    feed,
		trigger: trigger,
		logger:  logger,
	}, nil
}

// Start begins polling
func (w *ChangeWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return nil
	}
	w.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.pollLoop(ctx)

	w.logger.Info("Order feed change watcher started", zap.Duration("poll_interval", w.config.PollInterval))
	return nil
}

// Stop stops polling and waits for the loop to exit
func (w *ChangeWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.cancel()
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Order feed change watcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ChangeWatcher) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll reads the feed once and triggers a run if the non-empty set changed.
// It reports whether a run was requested.
func (w *ChangeWatcher) Poll(ctx context.Context) bool {
	snapshot, err := w.feed.ListStockAffectingOrders(ctx)
	if err != nil {
		w.logger.Debug("Order feed poll failed", zap.Error(err))
		return false
	}

	fp := Fingerprint(snapshot.Orders)
	w.fpMu.Lock()
	unchanged := fp == w.lastFingerprint
	w.lastFingerprint = fp
	w.fpMu.Unlock()
	if unchanged {
		return false
	}

	if len(snapshot.Orders) == 0 {
		return false
	}

	w.logger.Debug("Stock-affecting orders changed",
		zap.Int("orders", len(snapshot.Orders)),
		zap.Uint64("fingerprint", fp),
	)
	w.trigger.Trigger(TriggerFeedChange)
	return true
}

// Fingerprint hashes the stock-relevant content of a set of orders.
// The result does not depend on order or item ordering. An empty set hashes to 0.
func Fingerprint(orders []order.Order) uint64 {
	if len(orders) == 0 {
		return 0
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		for _, item := range o.Items {
			lines = append(lines, o.ID+"|"+string(o.Status)+"|"+item.ProductID+"|"+strconv.Itoa(item.Quantity))
		}
		if len(o.Items) == 0 {
			lines = append(lines, o.ID+"|"+string(o.Status))
		}
	}
	sort.Strings(lines)

	d := xxhash.New()
	for _, line := range lines {
		_, _ = d.WriteString(line)
		_, _ = d.WriteString("\n")
	}
	return d.Sum64()
}
