package inventory

import (
	"fmt"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
)

// Notification titles and lifetimes for stock events
const (
	TitleStockUpdated = "Stock Updated"
	TitleLowStock     = "Low Stock Alert"
	TitleOutOfStock   = "Out of Stock"
	TitleSynced       = "Inventory Synced"
	TitleUpdateFailed = "Stock Update Failed"

	alertDuration  = 10 * time.Second
	syncedDuration = 3 * time.Second
)

// StockNotifier turns reconciliation outcomes into user-visible notifications
type StockNotifier struct {
	publisher notification.Publisher
}

// NewStockNotifier creates a StockNotifier publishing to the given bus
func NewStockNotifier(publisher notification.Publisher) *StockNotifier {
	return &StockNotifier{publisher: publisher}
}

// NotifyApplied publishes the notifications for one successful apply result:
// a stock change notice when the quantity moved, then a threshold alert if any.
func (n *StockNotifier) NotifyApplied(r inventory.ApplyResult) {
	if !r.Success {
		return
	}

	name := productLabel(r)
	if delta := r.Delta(); delta != 0 {
		t := notification.TypeSuccess
		if delta < 0 {
			t = notification.TypeWarning
		}
		n.publisher.Publish(t, TitleStockUpdated,
			fmt.Sprintf("%s stock changed from %d to %d", name, r.OldQuantity, r.NewQuantity), 0)
	}

	switch r.StockLevel() {
	case inventory.StockLevelOutOfStock:
		n.publisher.Publish(notification.TypeError, TitleOutOfStock,
			fmt.Sprintf("%s is out of stock", name), alertDuration)
	case inventory.StockLevelLow:
		n.publisher.Publish(notification.TypeWarning, TitleLowStock,
			fmt.Sprintf("%s is running low: %d left (reorder level %d)", name, r.NewQuantity, r.EffectiveReorderLevel()), alertDuration)
	case inventory.StockLevelNormal:
	}
}

// NotifySynced publishes the aggregate completion notice. Nothing is published for zero successes.
func (n *StockNotifier) NotifySynced(succeeded int) {
	if succeeded <= 0 {
		return
	}
	n.publisher.Publish(notification.TypeSuccess, TitleSynced,
		fmt.Sprintf("%d stock %s applied from orders", succeeded, plural(succeeded, "adjustment", "adjustments")), syncedDuration)
}

// NotifyFailed publishes the aggregate failure notice. Nothing is published for zero failures.
func (n *StockNotifier) NotifyFailed(failed int) {
	if failed <= 0 {
		return
	}
	n.publisher.Publish(notification.TypeError, TitleUpdateFailed,
		fmt.Sprintf("%d stock %s could not be applied", failed, plural(failed, "adjustment", "adjustments")), alertDuration)
}

func productLabel(r inventory.ApplyResult) string {
	name := r.ProductName
	if name == "" {
		name = r.ProductID
	}
	if r.SKU != "" {
		return fmt.Sprintf("%s (%s)", name, r.SKU)
	}
	return name
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
