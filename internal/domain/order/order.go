package order

import (
	"strings"
)

// Status is the lifecycle status of an order at the time it was observed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusCancelled  Status = "cancelled"
	StatusDelivered  Status = "delivered"
	StatusOther      Status = "other"
)

// AllStatuses returns every known order status
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusConfirmed,
		StatusProcessing,
		StatusCancelled,
		StatusDelivered,
		StatusOther,
	}
}

// ParseStatus maps a wire value to a Status. Unknown values map to StatusOther.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending
	case "confirmed":
		return StatusConfirmed
	case "processing":
		return StatusProcessing
	case "cancelled", "canceled":
		return StatusCancelled
	case "delivered":
		return StatusDelivered
	default:
		return StatusOther
	}
}

// String returns the wire value of the status
func (s Status) String() string {
	return string(s)
}

// UnmarshalText implements encoding.TextUnmarshaler so JSON decoding always yields a known status
func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// IsStockAffecting reports whether orders in this status move stock
func (s Status) IsStockAffecting() bool {
	switch s {
	case StatusConfirmed, StatusProcessing, StatusCancelled:
		return true
	default:
		return false
	}
}

// LineItem is a single product line of an order
type LineItem struct {
	ProductID   string `json:"productId" validate:"required"`
	SKU         string `json:"sku"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
}

// Order is a read-only snapshot of an order as supplied by the order feed
type Order struct {
	ID          string     `json:"id" validate:"required"`
	OrderNumber string     `json:"orderNumber"`
	Status      Status     `json:"status"`
	Items       []LineItem `json:"items"`
}

// DisplayNumber returns the human-facing order number, falling back to the ID
func (o Order) DisplayNumber() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}
