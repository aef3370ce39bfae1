package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricReconciliationPasses      = "inventory_reconciliation_passes_total"
	MetricReconciliationDuration    = "inventory_reconciliation_duration_seconds"
	MetricReconciliationAdjustments = "inventory_reconciliation_adjustments_total"
	MetricReconciliationLastBatch   = "inventory_reconciliation_last_batch_size"
)

var (
	attrOutcome = attribute.Key("outcome")
	attrResult  = attribute.Key("result")
)

// passDurationBuckets covers a pass from a cache-only no-op to a slow backend
var passDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// ReconciliationMetrics records reconciliation pass counters and latencies
type ReconciliationMetrics struct {
	passes      metric.Int64Counter
	duration    metric.Float64Histogram
	adjustments metric.Int64Counter
	lastBatch   metric.Int64Gauge
}

// NewReconciliationMetrics registers the reconciliation instruments on meter
func NewReconciliationMetrics(meter metric.Meter) (*ReconciliationMetrics, error) {
	m := &ReconciliationMetrics{}
	var err error

	if m.passes, err = meter.Int64Counter(MetricReconciliationPasses,
		metric.WithDescription("Number of reconciliation passes by outcome"),
		metric.WithUnit("{pass}"),
	); err != nil {
		return nil, instrumentError(MetricReconciliationPasses, err)
	}
	if m.duration, err = meter.Float64Histogram(MetricReconciliationDuration,
		metric.WithDescription("Duration of reconciliation passes"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(passDurationBuckets...),
	); err != nil {
		return nil, instrumentError(MetricReconciliationDuration, err)
	}
	if m.adjustments, err = meter.Int64Counter(MetricReconciliationAdjustments,
		metric.WithDescription("Number of stock adjustments by result"),
		metric.WithUnit("{adjustment}"),
	); err != nil {
		return nil, instrumentError(MetricReconciliationAdjustments, err)
	}
	if m.lastBatch, err = meter.Int64Gauge(MetricReconciliationLastBatch,
		metric.WithDescription("Adjustments submitted by the most recent batch call"),
		metric.WithUnit("{adjustment}"),
	); err != nil {
		return nil, instrumentError(MetricReconciliationLastBatch, err)
	}
	return m, nil
}

func instrumentError(name string, err error) error {
	return fmt.Errorf("create instrument %s: %w", name, err)
}

// RecordPass counts one pass and records how long it took
func (m *ReconciliationMetrics) RecordPass(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attrOutcome.String(outcome))
	m.passes.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordAdjustments counts per-item results of one batch call
func (m *ReconciliationMetrics) RecordAdjustments(ctx context.Context, succeeded, failed, suppressed int) {
	for result, n := range map[string]int{
		"succeeded":  succeeded,
		"failed":     failed,
		"suppressed": suppressed,
	} {
		if n > 0 {
			m.adjustments.Add(ctx, int64(n), metric.WithAttributes(attrResult.String(result)))
		}
	}
	m.lastBatch.Record(ctx, int64(succeeded+failed))
}
