package dto

import (
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
)

// RunResponse describes one reconciliation run
type RunResponse struct {
	ID            string     `json:"id"`
	Trigger       string     `json:"trigger"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	DurationMs    int64      `json:"duration_ms"`
	OrdersScanned int        `json:"orders_scanned"`
	Submitted     int        `json:"submitted"`
	Succeeded     int        `json:"succeeded"`
	Failed        int        `json:"failed"`
	Suppressed    int        `json:"suppressed"`
}

// ToRunResponse converts a run; nil stays nil
func ToRunResponse(run *scheduler.ReconciliationRun) *RunResponse {
	if run == nil {
		return nil
	}
	return &RunResponse{
		ID:            run.ID.String(),
		Trigger:       string(run.Trigger),
		Status:        string(run.Status),
		Error:         run.Error,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
		DurationMs:    run.Duration().Milliseconds(),
		OrdersScanned: run.OrdersScanned,
		Submitted:     run.Submitted,
		Succeeded:     run.Succeeded,
		Failed:        run.Failed,
		Suppressed:    run.Suppressed,
	}
}

// ToRunResponses converts a list of runs
func ToRunResponses(runs []*scheduler.ReconciliationRun) []*RunResponse {
	out := make([]*RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, ToRunResponse(r))
	}
	return out
}

// SchedulerStatusResponse describes the reconciliation scheduler
type SchedulerStatusResponse struct {
	Started       bool         `json:"started"`
	State         string       `json:"state"`
	RerunPending  bool         `json:"rerun_pending"`
	Interval      string       `json:"interval"`
	CurrentRun    *RunResponse `json:"current_run,omitempty"`
	LastRun       *RunResponse `json:"last_run,omitempty"`
	LastSuccessAt *time.Time   `json:"last_success_at,omitempty"`
	TotalRuns     int64        `json:"total_runs"`
}

// ToSchedulerStatusResponse converts a scheduler status snapshot
func ToSchedulerStatusResponse(s scheduler.SchedulerStatus) SchedulerStatusResponse {
	return SchedulerStatusResponse{
		Started:       s.Started,
		State:         string(s.State),
		RerunPending:  s.RerunPending,
		Interval:      s.Interval.String(),
		CurrentRun:    ToRunResponse(s.CurrentRun),
		LastRun:       ToRunResponse(s.LastRun),
		LastSuccessAt: s.LastSuccessAt,
		TotalRuns:     s.TotalRuns,
	}
}

// TriggerRunResponse is returned by the manual trigger endpoint
type TriggerRunResponse struct {
	Queued bool   `json:"queued"`
	Note   string `json:"note"`
}

// InventoryStatsResponse is the cached aggregate inventory snapshot
type InventoryStatsResponse struct {
	TotalProducts   int       `json:"total_products"`
	TotalStock      int       `json:"total_stock"`
	LowStockCount   int       `json:"low_stock_count"`
	OutOfStockCount int       `json:"out_of_stock_count"`
	RefreshedAt     time.Time `json:"refreshed_at"`
}

// ToInventoryStatsResponse converts cached statistics
func ToInventoryStatsResponse(s *inventory.InventoryStats) InventoryStatsResponse {
	return InventoryStatsResponse{
		TotalProducts:   s.TotalProducts,
		TotalStock:      s.TotalStock,
		LowStockCount:   s.LowStockCount,
		OutOfStockCount: s.OutOfStockCount,
		RefreshedAt:     s.RefreshedAt,
	}
}
