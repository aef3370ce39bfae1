package inventory

import (
	"fmt"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
)

// StockAdjustment is a signed stock delta implied by one order line item.
// Negative values decrement stock, positive values return it.
type StockAdjustment struct {
	ProductID   string       `json:"productId"`
	SKU         string       `json:"sku"`
	ProductName string       `json:"productName"`
	Adjustment  int          `json:"adjustment"`
	Reason      string       `json:"reason"`
	OrderID     string       `json:"orderId"`
	OrderNumber string       `json:"orderNumber"`
	Status      order.Status `json:"-"`
}

// Key returns the idempotency key of the adjustment
func (a StockAdjustment) Key() AdjustmentKey {
	return AdjustmentKey{
		OrderID:   a.OrderID,
		ProductID: a.ProductID,
		Status:    a.Status,
	}
}

// AdjustmentKey identifies one (order, product, status) event.
// A status transition produces a new key; re-observing the same status does not.
type AdjustmentKey struct {
	OrderID   string
	ProductID string
	Status    order.Status
}

// String returns the canonical storage form of the key. Order and product IDs
// are length-prefixed so IDs containing ':' cannot collide.
func (k AdjustmentKey) String() string {
	return fmt.Sprintf("%d:%s:%d:%s:%s", len(k.OrderID), k.OrderID, len(k.ProductID), k.ProductID, k.Status)
}

// stockEffect is what an order status does to the stock of its items
type stockEffect int

const (
	effectNone stockEffect = iota
	effectReserve
	effectReturn
)

// effectOf maps every order status to its stock effect
func effectOf(s order.Status) stockEffect {
	switch s {
	case order.StatusConfirmed, order.StatusProcessing:
		return effectReserve
	case order.StatusCancelled:
		return effectReturn
	case order.StatusPending, order.StatusDelivered, order.StatusOther:
		return effectNone
	}
	return effectNone
}

// CalculateAdjustments derives the stock adjustments implied by an order's current status.
// It has no side effects and returns a fresh slice on every call, so it is safe to
// re-run for an order whose status has not changed.
func CalculateAdjustments(o order.Order) []StockAdjustment {
	effect := effectOf(o.Status)
	if effect == effectNone {
		return nil
	}

	adjustments := make([]StockAdjustment, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			continue
		}

		var delta int
		var reason string
		switch effect {
		case effectReserve:
			delta = -item.Quantity
			reason = fmt.Sprintf("Order %s confirmed - Stock reserved", o.DisplayNumber())
		case effectReturn:
			delta = item.Quantity
			reason = fmt.Sprintf("Order %s cancelled - Stock returned", o.DisplayNumber())
		}

		adjustments = append(adjustments, StockAdjustment{
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Adjustment:  delta,
			Reason:      reason,
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
		})
	}

	return adjustments
}
