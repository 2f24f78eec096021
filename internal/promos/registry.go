package promos

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodyzone-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
)

// Code is a promo code and the discount percent it grants.
type Code struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Defaults are the codes the storefront ships with.
var Defaults = []Code{
	{Code: "WELCOME10", DiscountPercent: decimal.NewFromInt(10)},
	{Code: "FOODY25", DiscountPercent: decimal.NewFromInt(25)},
	{Code: "SIS50", DiscountPercent: decimal.NewFromInt(50)},
}

// Resolver looks up the discount percent for a promo code.
type Resolver interface {
	Resolve(code string) (decimal.Decimal, error)
}

// Registry is an immutable, case-insensitive promo table.
type Registry struct {
	byCode map[string]decimal.Decimal
}

// NewRegistry validates codes and builds the lookup table.
func NewRegistry(codes []Code) (*Registry, error) {
	byCode := make(map[string]decimal.Decimal, len(codes))
	for _, c := range codes {
		key := Normalize(c.Code)
		if key == "" {
			return nil, fmt.Errorf("promo code is required")
		}
		if _, dup := byCode[key]; dup {
			return nil, fmt.Errorf("duplicate promo code %q", key)
		}
		if err := pricing.ValidateDiscount(c.DiscountPercent); err != nil {
			return nil, fmt.Errorf("promo %q: %w", key, err)
		}
		byCode[key] = c.DiscountPercent
	}
	return &Registry{byCode: byCode}, nil
}

// Default returns a registry seeded with Defaults.
func Default() *Registry {
	reg, err := NewRegistry(Defaults)
	if err != nil {
		panic(err)
	}
	return reg
}

// Normalize trims and upper-cases a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve returns the discount percent for code.
func (r *Registry) Resolve(code string) (decimal.Decimal, error) {
	key := Normalize(code)
	if pct, ok := r.byCode[key]; ok {
		return pct, nil
	}
	return decimal.Zero, pkgerrors.Newf(pkgerrors.CodePromoNotFound, "promo code %q not found", key).
		WithDetails(map[string]any{"code": key})
}

// Codes lists the registry contents sorted by code.
func (r *Registry) Codes() []Code {
	out := make([]Code, 0, len(r.byCode))
	for code, pct := range r.byCode {
		out = append(out, Code{Code: code, DiscountPercent: pct})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
