package cart

import (
	"github.com/angelmondragon/foodyzone-backend/internal/pricing"
	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. UnitPrice is fixed when the item is
// first added and never re-derived from the catalog.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// State is the persisted form of a cart.
type State struct {
	Items           []LineItem      `json:"items"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Snapshot is a detached copy of the cart with freshly computed totals.
type Snapshot struct {
	Items   []LineItem     `json:"items"`
	Totals  pricing.Totals `json:"totals"`
	Version uint64         `json:"version"`
}

// IsEmpty reports whether the snapshot has no items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Lines converts the items for the calculator.
func Lines(items []LineItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	return lines
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
