package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// fetchRetryDelay is the pause after a failed fetch
const fetchRetryDelay = time.Second

// OrderStatusEvent is published by the commerce backend when an order changes status
type OrderStatusEvent struct {
	OrderID     string       `json:"orderId"`
	OrderNumber string       `json:"orderNumber,omitempty"`
	Status      order.Status `json:"status"`
}

// OrderEventListener consumes order status events and requests a
// reconciliation run whenever an order moves into a stock-affecting status.
// Events only trigger runs; the run itself reads the order feed.
type OrderEventListener struct {
	reader    MessageReader
	triggerer scheduler.Triggerer
	logger    *zap.Logger
	tracer    trace.Tracer

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewOrderEventListener creates a listener
func NewOrderEventListener(reader MessageReader, triggerer scheduler.Triggerer, logger *zap.Logger) *OrderEventListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderEventListener{
		reader:    reader,
		triggerer: triggerer,
		logger:    logger.Named("order_events"),
		tracer:    otel.Tracer("order-event-listener"),
	}
}

// Start begins consuming in the background
func (l *OrderEventListener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isRunning {
		return nil
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.isRunning = true
	l.wg.Add(1)
	go l.consume(ctx)

	l.logger.Info("Order event listener started")
	return nil
}

// Stop stops consuming and closes the reader
func (l *OrderEventListener) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.cancel()
	l.isRunning = false
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if cerr := l.reader.Close(); cerr != nil && err == nil {
		err = cerr
	}
	l.logger.Info("Order event listener stopped")
	return err
}

func (l *OrderEventListener) consume(ctx context.Context) {
	defer l.wg.Done()

	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			l.logger.Warn("Failed to fetch order event", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		l.handle(ctx, msg)

		if err := l.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			l.logger.Warn("Failed to commit order event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

// handle decodes one message and triggers a run when relevant.
// Malformed messages are logged and skipped.
func (l *OrderEventListener) handle(ctx context.Context, msg kafka.Message) bool {
	ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier(msg.Headers))
	_, span := l.tracer.Start(ctx, "order_event.handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		))
	defer span.End()

	var event OrderStatusEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.OrderID == "" {
		l.logger.Warn("Skipping malformed order event",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return false
	}
	span.SetAttributes(
		attribute.String("order.id", event.OrderID),
		attribute.String("order.status", event.Status.String()),
	)

	if !event.Status.IsStockAffecting() {
		l.logger.Debug("Ignoring order event without stock effect",
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status.String()))
		return false
	}

	accepted := l.triggerer.Trigger(scheduler.TriggerOrderEvent)
	l.logger.Debug("Order event triggered reconciliation",
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status.String()),
		zap.Bool("accepted", accepted))
	return true
}
