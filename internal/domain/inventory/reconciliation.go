package inventory

import "time"

// ReconciliationResult summarizes one reconciliation pass
type ReconciliationResult struct {
	OrdersScanned int
	Submitted     int
	Succeeded     int
	Failed        int
	Suppressed    int
	Results       []ApplyResult
}

// NothingToApply reports whether the pass ended without a batch call
func (r *ReconciliationResult) NothingToApply() bool {
	return r.Submitted == 0
}

// InventoryStats is the aggregate inventory snapshot reported by the inventory service
type InventoryStats struct {
	TotalProducts   int       `json:"totalProducts"`
	TotalStock      int       `json:"totalStock"`
	LowStockCount   int       `json:"lowStockCount"`
	OutOfStockCount int       `json:"outOfStockCount"`
	RefreshedAt     time.Time `json:"refreshedAt"`
}
