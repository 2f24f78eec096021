package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry as listed on the menu. Deal items carry a
// DealCode instead of a Price and are sold off OriginalPrice.
type MenuItem struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      enums.ProductCategory `json:"category"`
	Price         *decimal.Decimal      `json:"price,omitempty"`
	DealCode      string                `json:"deal_code,omitempty"`
	OriginalPrice *decimal.Decimal      `json:"original_price,omitempty"`
	Popular       bool                  `json:"popular"`
	Vegetarian    bool                  `json:"vegetarian"`
	SpicyLevel    int                   `json:"spicy_level"`
	PrepTime      string                `json:"prep_time,omitempty"`
}

// IsDealCoded reports whether the item is priced through a promo code.
func (m MenuItem) IsDealCoded() bool {
	return m.DealCode != ""
}

// Product is the resolved, purchasable view of a menu item.
type Product struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	IsDealCoded   bool             `json:"is_deal_coded"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
}

// Lookup resolves product ids for the cart.
type Lookup interface {
	GetProduct(ctx context.Context, id string) (Product, error)
}

// Service exposes the menu.
type Service interface {
	Lookup
	ListMenu(ctx context.Context, category string) ([]MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (MenuItem, error)
}

type service struct {
	items  []MenuItem
	byID   map[string]int
	promos promos.Resolver
}

// NewService validates items and builds the in-memory catalog.
func NewService(items []MenuItem, resolver promos.Resolver) (Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("promo resolver required")
	}
	byID := make(map[string]int, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return nil, fmt.Errorf("menu item %d missing id", i)
		}
		if _, dup := byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item id %q", item.ID)
		}
		if !item.Category.IsValid() {
			return nil, fmt.Errorf("menu item %q has invalid category %q", item.ID, item.Category)
		}
		if item.IsDealCoded() {
			if item.OriginalPrice == nil {
				return nil, fmt.Errorf("deal item %q missing original price", item.ID)
			}
			if _, err := resolver.Resolve(item.DealCode); err != nil {
				return nil, fmt.Errorf("deal item %q: %w", item.ID, err)
			}
		} else if item.Price == nil || item.Price.IsNegative() {
			return nil, fmt.Errorf("menu item %q missing price", item.ID)
		}
		byID[item.ID] = i
	}
	return &service{items: items, byID: byID, promos: resolver}, nil
}

func (s *service) ListMenu(ctx context.Context, category string) ([]MenuItem, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == "all" {
		out := make([]MenuItem, len(s.items))
		copy(out, s.items)
		return out, nil
	}
	parsed, err := enums.ParseProductCategory(category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
			WithDetails(map[string]any{"category": category})
	}
	out := []MenuItem{}
	for _, item := range s.items {
		if item.Category == parsed {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *service) GetMenuItem(ctx context.Context, id string) (MenuItem, error) {
	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return MenuItem{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "menu item %q not found", id)
	}
	return s.items[idx], nil
}

// GetProduct resolves the purchasable price. Deal-coded items are priced at
// OriginalPrice less the deal code's discount percent.
func (s *service) GetProduct(ctx context.Context, id string) (Product, error) {
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !item.IsDealCoded() {
		return Product{ID: item.ID, Title: item.Title, UnitPrice: *item.Price}, nil
	}

	pct, err := s.promos.Resolve(item.DealCode)
	if err != nil {
		return Product{}, err
	}
	original := *item.OriginalPrice
	price := original.Sub(original.Mul(pct).Div(decimal.NewFromInt(100)))
	return Product{
		ID:            item.ID,
		Title:         item.Title,
		UnitPrice:     price,
		IsDealCoded:   true,
		OriginalPrice: &original,
	}, nil
}
