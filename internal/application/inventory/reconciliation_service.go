package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
)

const (
	tracerName = "inventory-reconciliation"

	defaultStatsRefreshTimeout = 30 * time.Second
)

// ReconciliationMetrics records reconciliation outcomes
type ReconciliationMetrics interface {
	RecordPass(ctx context.Context, outcome string, duration time.Duration)
	RecordAdjustments(ctx context.Context, succeeded, failed, suppressed int)
}

// Pass outcomes reported to ReconciliationMetrics
const (
	OutcomeApplied     = "applied"
	OutcomeNothingToDo = "nothing_to_apply"
	OutcomeFeedError   = "feed_error"
	OutcomeBatchError  = "batch_error"
)

// ReconciliationService runs one reconciliation pass: it reads the order feed,
// derives stock adjustments, drops those already applied, submits the rest in a
// single batch and publishes the outcome.
type ReconciliationService struct {
	feed     inventory.OrderFeed
	applier  inventory.BatchApplier
	guard    inventory.AdjustmentGuard
	notifier *StockNotifier
	logger   *zap.Logger

	stats        inventory.StatsRefresher
	statsTimeout time.Duration
	metrics      ReconciliationMetrics
	tracer       trace.Tracer

	refreshWg sync.WaitGroup
}

// ReconciliationOption configures a ReconciliationService
type ReconciliationOption func(*ReconciliationService)

// WithStatsRefresher sets the collaborator signalled after a batch with at least one success
func WithStatsRefresher(r inventory.StatsRefresher) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.stats = r
	}
}

// WithStatsRefreshTimeout bounds the background stats refresh
func WithStatsRefreshTimeout(d time.Duration) ReconciliationOption {
	return func(s *ReconciliationService) {
		if d > 0 {
			s.statsTimeout = d
		}
	}
}

// WithReconciliationMetrics sets the metrics recorder
func WithReconciliationMetrics(m ReconciliationMetrics) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.metrics = m
	}
}

// WithTracer overrides the tracer, defaulting to the global provider
func WithTracer(t trace.Tracer) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.tracer = t
	}
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	feed inventory.OrderFeed,
	applier inventory.BatchApplier,
	guard inventory.AdjustmentGuard,
	publisher notification.Publisher,
	logger *zap.Logger,
	opts ...ReconciliationOption,
) *ReconciliationService {
	s := &ReconciliationService{
		feed:         feed,
		applier:      applier,
		guard:        guard,
		notifier:     NewStockNotifier(publisher),
		logger:       logger,
		statsTimeout: defaultStatsRefreshTimeout,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconcile executes one reconciliation pass.
// Feed and call-level failures return an error wrapping ErrFeedUnavailable or
// ErrBatchCallFailed; in both cases nothing is marked applied and no notifications
// are published. Individual item failures are counted, not returned.
func (s *ReconciliationService) Reconcile(ctx context.Context) (*inventory.ReconciliationResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.reconcile")
	defer span.End()
	start := time.Now()

	snapshot, err := s.feed.ListStockAffectingOrders(ctx)
	if err != nil {
		err = wrapSentinel(inventory.ErrFeedUnavailable, err)
		s.logger.Error("failed to read order feed", zap.Error(err))
		s.finishSpan(span, err)
		s.recordPass(ctx, OutcomeFeedError, start)
		return nil, err
	}

	result := &inventory.ReconciliationResult{OrdersScanned: len(snapshot.Orders)}
	pending := s.collectPending(ctx, snapshot, result)
	span.SetAttributes(
		attribute.Int("orders.scanned", result.OrdersScanned),
		attribute.Int("adjustments.pending", len(pending)),
		attribute.Int("adjustments.suppressed", result.Suppressed),
	)

	if len(pending) == 0 {
		s.logger.Debug("no stock adjustments to apply",
			zap.Int("orders_scanned", result.OrdersScanned),
			zap.Int("suppressed", result.Suppressed),
		)
		s.recordPass(ctx, OutcomeNothingToDo, start)
		return result, nil
	}

	results, err := s.applier.Apply(ctx, pending)
	if err == nil && len(results) != len(pending) {
		err = fmt.Errorf("%w: submitted %d, received %d", inventory.ErrResultCountMismatch, len(pending), len(results))
	}
	if err != nil {
		err = wrapSentinel(inventory.ErrBatchCallFailed, err)
		s.logger.Error("batch stock update failed",
			zap.Int("adjustments", len(pending)),
			zap.Error(err),
		)
		s.finishSpan(span, err)
		s.recordPass(ctx, OutcomeBatchError, start)
		return nil, err
	}

	result.Submitted = len(pending)
	result.Results = results

	// every submitted key is marked, failed items included, so a persistently
	// rejected item is not resubmitted on every pass
	keys := make([]inventory.AdjustmentKey, len(pending))
	for i, adj := range pending {
		keys[i] = adj.Key()
	}
	if err := s.guard.MarkApplied(ctx, keys...); err != nil {
		s.logger.Error("failed to record applied adjustments",
			zap.Int("keys", len(keys)),
			zap.Error(err),
		)
	}

	for i, r := range results {
		if r.Success {
			result.Succeeded++
			s.notifier.NotifyApplied(r)
			continue
		}
		result.Failed++
		s.logger.Warn("stock adjustment rejected",
			zap.String("product_id", r.ProductID),
			zap.String("sku", r.SKU),
			zap.String("order_id", pending[i].OrderID),
			zap.Int("adjustment", pending[i].Adjustment),
			zap.Error(fmt.Errorf("%w: %s", inventory.ErrItemApplyFailed, r.ErrorMessage)),
		)
	}
	s.notifier.NotifySynced(result.Succeeded)
	s.notifier.NotifyFailed(result.Failed)

	if result.Succeeded > 0 {
		s.refreshStats(ctx)
	}

	span.SetAttributes(
		attribute.Int("adjustments.succeeded", result.Succeeded),
		attribute.Int("adjustments.failed", result.Failed),
	)
	s.recordPass(ctx, OutcomeApplied, start)
	if s.metrics != nil {
		s.metrics.RecordAdjustments(ctx, result.Succeeded, result.Failed, result.Suppressed)
	}

	s.logger.Info("reconciliation pass completed",
		zap.Int("orders_scanned", result.OrdersScanned),
		zap.Int("submitted", result.Submitted),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("suppressed", result.Suppressed),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// collectPending computes adjustments for every order in the snapshot and keeps
// those the guard has not seen. Orders repeated in the same snapshot are read once.
func (s *ReconciliationService) collectPending(ctx context.Context, snapshot *inventory.FeedSnapshot, result *inventory.ReconciliationResult) []inventory.StockAdjustment {
	seen := make(map[string]struct{}, len(snapshot.Orders))
	var pending []inventory.StockAdjustment

	for _, o := range snapshot.Orders {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}

		for _, adj := range inventory.CalculateAdjustments(o) {
			ok, err := s.guard.ShouldApply(ctx, adj.Key())
			if err != nil {
				s.logger.Warn("adjustment guard lookup failed, skipping item",
					zap.String("key", adj.Key().String()),
					zap.Error(err),
				)
				continue
			}
			if !ok {
				result.Suppressed++
				continue
			}
			pending = append(pending, adj)
		}
	}
	return pending
}

// refreshStats signals the stats collaborator without waiting for it
func (s *ReconciliationService) refreshStats(ctx context.Context) {
	if s.stats == nil {
		return
	}
	s.refreshWg.Add(1)
	go func() {
		defer s.refreshWg.Done()
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.statsTimeout)
		defer cancel()
		if err := s.stats.RefreshStats(refreshCtx); err != nil {
			s.logger.Warn("inventory stats refresh failed", zap.Error(err))
		}
	}()
}

// Wait blocks until background stats refreshes have finished
func (s *ReconciliationService) Wait() {
	s.refreshWg.Wait()
}

func (s *ReconciliationService) recordPass(ctx context.Context, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordPass(ctx, outcome, time.Since(start))
	}
}

func (s *ReconciliationService) finishSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// wrapSentinel wraps err with sentinel unless it already matches
func wrapSentinel(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
