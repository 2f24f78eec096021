// Package pricing computes cart totals. All arithmetic is exact decimal math;
// rounding to cents happens only in Totals.Rounded.
package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)

	// DefaultPolicy is the storefront's fee and tax schedule.
	DefaultPolicy = Policy{
		FreeDeliveryOver: decimal.RequireFromString("25.00"),
		DeliveryFee:      decimal.RequireFromString("2.99"),
		TaxRate:          decimal.RequireFromString("0.08"),
	}
)

// Policy holds the fee and tax parameters used by the calculator.
type Policy struct {
	// Delivery is free when the subtotal is strictly greater than this amount.
	FreeDeliveryOver decimal.Decimal
	DeliveryFee      decimal.Decimal
	TaxRate          decimal.Decimal
}

// Line is the priced view of one cart line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the full-precision price breakdown of a cart.
type Totals struct {
	ItemCount       int             `json:"item_count"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
}

// Rounded returns the presentation view with every amount rounded to cents.
// Total is rounded from its full-precision value, not re-summed.
func (t Totals) Rounded() Totals {
	return Totals{
		ItemCount:       t.ItemCount,
		Subtotal:        t.Subtotal.Round(2),
		DiscountPercent: t.DiscountPercent,
		DiscountAmount:  t.DiscountAmount.Round(2),
		DeliveryFee:     t.DeliveryFee.Round(2),
		Tax:             t.Tax.Round(2),
		Total:           t.Total.Round(2),
	}
}

// ValidateDiscount checks that pct is within [0, 100].
func ValidateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidDisc, "discount percent %s outside [0, 100]", pct.String()).
			WithDetails(map[string]any{"discount_percent": pct.String()})
	}
	return nil
}

// Subtotal sums unit price times quantity over lines.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i, line := range lines {
		if line.Quantity < 1 {
			return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeInvalidQty, "line %d has quantity %d", i, line.Quantity)
		}
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum, nil
}

// DeliveryFeeFor is zero for an empty cart or a subtotal above the threshold.
func (p Policy) DeliveryFeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() || subtotal.GreaterThan(p.FreeDeliveryOver) {
		return decimal.Zero
	}
	return p.DeliveryFee
}

func (p Policy) TaxFor(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate)
}

// DiscountAmount is subtotal * pct / 100.
func DiscountAmount(subtotal, pct decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateDiscount(pct); err != nil {
		return decimal.Zero, err
	}
	return subtotal.Mul(pct).Div(hundred), nil
}

// Total is subtotal - discount + delivery fee + tax.
func Total(subtotal, discount, deliveryFee, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(deliveryFee).Add(tax)
}

// Compute derives the full breakdown for lines at the given discount percent.
func (p Policy) Compute(lines []Line, pct decimal.Decimal) (Totals, error) {
	if err := ValidateDiscount(pct); err != nil {
		return Totals{}, err
	}
	subtotal, err := Subtotal(lines)
	if err != nil {
		return Totals{}, err
	}
	discount, err := DiscountAmount(subtotal, pct)
	if err != nil {
		return Totals{}, err
	}

	count := 0
	for _, line := range lines {
		count += line.Quantity
	}

	fee := p.DeliveryFeeFor(subtotal)
	tax := p.TaxFor(subtotal)
	return Totals{
		ItemCount:       count,
		Subtotal:        subtotal,
		DiscountPercent: pct,
		DiscountAmount:  discount,
		DeliveryFee:     fee,
		Tax:             tax,
		Total:           Total(subtotal, discount, fee, tax),
	}, nil
}

// Compute runs DefaultPolicy.Compute.
func Compute(lines []Line, pct decimal.Decimal) (Totals, error) {
	return DefaultPolicy.Compute(lines, pct)
}
