package inventory

// DefaultReorderLevel applies when the inventory service does not report one
const DefaultReorderLevel = 10

// ApplyResult is the per-item outcome of a batch stock update
type ApplyResult struct {
	Success      bool   `json:"success"`
	ProductID    string `json:"productId"`
	SKU          string `json:"sku"`
	ProductName  string `json:"productName"`
	OldQuantity  int    `json:"oldQuantity,omitempty"`
	NewQuantity  int    `json:"newQuantity,omitempty"`
	ReorderLevel *int   `json:"reorderLevel,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Delta returns the stock change reported by a successful result
func (r ApplyResult) Delta() int {
	return r.NewQuantity - r.OldQuantity
}

// EffectiveReorderLevel returns the reported reorder level, or the default when
// the field is absent. An explicit zero is kept.
func (r ApplyResult) EffectiveReorderLevel() int {
	if r.ReorderLevel == nil {
		return DefaultReorderLevel
	}
	return *r.ReorderLevel
}

// StockLevel classifies a quantity against its reorder level
type StockLevel string

const (
	StockLevelNormal     StockLevel = "normal"
	StockLevelLow        StockLevel = "low_stock"
	StockLevelOutOfStock StockLevel = "out_of_stock"
)

// ClassifyStockLevel returns out_of_stock for quantity <= 0, low_stock for
// 0 < quantity <= reorderLevel and normal otherwise.
func ClassifyStockLevel(quantity, reorderLevel int) StockLevel {
	switch {
	case quantity <= 0:
		return StockLevelOutOfStock
	case quantity <= reorderLevel:
		return StockLevelLow
	default:
		return StockLevelNormal
	}
}

// StockLevel classifies the new quantity of the result
func (r ApplyResult) StockLevel() StockLevel {
	return ClassifyStockLevel(r.NewQuantity, r.EffectiveReorderLevel())
}
