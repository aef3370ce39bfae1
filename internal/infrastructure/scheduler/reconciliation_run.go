package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
)

// TriggerSource identifies what started a reconciliation run
type TriggerSource string

const (
	TriggerTimer      TriggerSource = "timer"
	TriggerManual     TriggerSource = "manual"
	TriggerFeedChange TriggerSource = "feed_change"
	TriggerOrderEvent TriggerSource = "order_event"
	TriggerStartup    TriggerSource = "startup"
)

// RunStatus represents the outcome of a reconciliation run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSuccess   RunStatus = "SUCCESS"
	RunStatusPartial   RunStatus = "PARTIAL"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusNoChanges RunStatus = "NO_CHANGES"
)

// ReconciliationRun records one execution of the reconciliation pipeline
type ReconciliationRun struct {
	ID          uuid.UUID
	Trigger     TriggerSource
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time

	OrdersScanned int
	Submitted     int
	Succeeded     int
	Failed        int
	Suppressed    int
}

// NewReconciliationRun creates a run in RUNNING state
func NewReconciliationRun(trigger TriggerSource) *ReconciliationRun {
	return &ReconciliationRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Complete records the pass result and derives the final status
func (r *ReconciliationRun) Complete(result *inventory.ReconciliationResult) {
	now := time.Now()
	r.CompletedAt = &now
	r.OrdersScanned = result.OrdersScanned
	r.Submitted = result.Submitted
	r.Succeeded = result.Succeeded
	r.Failed = result.Failed
	r.Suppressed = result.Suppressed

	switch {
	case result.Submitted == 0:
		r.Status = RunStatusNoChanges
	case result.Failed == 0:
		r.Status = RunStatusSuccess
	case result.Succeeded > 0:
		r.Status = RunStatusPartial
	default:
		r.Status = RunStatusFailed
	}
}

// Fail marks the run as failed
func (r *ReconciliationRun) Fail(err error) {
	now := time.Now()
	r.CompletedAt = &now
	r.Status = RunStatusFailed
	r.Error = err.Error()
}

// Duration returns how long the run took, or has taken so far
func (r *ReconciliationRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// IsSuccessful reports whether stock was updated without item failures
func (r *ReconciliationRun) IsSuccessful() bool {
	return r.Status == RunStatusSuccess || r.Status == RunStatusNoChanges
}

// Clone returns a copy safe to hand out of the scheduler
func (r *ReconciliationRun) Clone() *ReconciliationRun {
	if r == nil {
		return nil
	}
	c := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
