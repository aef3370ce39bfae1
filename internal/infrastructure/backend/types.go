package backend

import (
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
)

const (
	pathStockAffectingOrders = "/api/orders/stock-affecting"
	pathBatchAdjustments     = "/api/inventory/adjustments/batch"
	pathInventoryStats       = "/api/inventory/stats"
)

type ordersResponse struct {
	Orders       []order.Order `json:"orders"`
	LastSyncedAt *time.Time    `json:"lastSyncedAt,omitempty"`
}

type adjustmentPayload struct {
	ProductID   string `json:"productId"`
	SKU         string `json:"sku,omitempty"`
	Adjustment  int    `json:"adjustment"`
	Reason      string `json:"reason"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

type batchRequest struct {
	Adjustments []adjustmentPayload `json:"adjustments"`
}

type batchResponse struct {
	Results []inventory.ApplyResult `json:"results"`
}

type statsResponse struct {
	TotalProducts   int `json:"totalProducts"`
	TotalStock      int `json:"totalStock"`
	LowStockCount   int `json:"lowStockCount"`
	OutOfStockCount int `json:"outOfStockCount"`
}

func toPayload(adj inventory.StockAdjustment) adjustmentPayload {
	return adjustmentPayload{
		ProductID:   adj.ProductID,
		SKU:         adj.SKU,
		Adjustment:  adj.Adjustment,
		Reason:      adj.Reason,
		OrderID:     adj.OrderID,
		OrderNumber: adj.OrderNumber,
	}
}
