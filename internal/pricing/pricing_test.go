package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lines(prices ...string) []Line {
	out := make([]Line, 0, len(prices))
	for _, p := range prices {
		out = append(out, Line{UnitPrice: d(p), Quantity: 1})
	}
	return out
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s: expected %s got %s", label, want, got.String())
	}
}

func TestComputeRamenAndCake(t *testing.T) {
	totals, err := Compute(lines("14.99", "8.99"), decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "subtotal", totals.Subtotal, "23.98")
	assertDecimal(t, "delivery fee", totals.DeliveryFee, "2.99")
	assertDecimal(t, "tax", totals.Tax, "1.9184")
	assertDecimal(t, "discount", totals.DiscountAmount, "0")
	assertDecimal(t, "total", totals.Total, "28.8884")
	assertDecimal(t, "rounded total", totals.Rounded().Total, "28.89")
	if totals.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", totals.ItemCount)
	}
}

func TestComputeWithTwentyFivePercent(t *testing.T) {
	totals, err := Compute(lines("14.99", "8.99"), d("25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "discount", totals.DiscountAmount, "5.995")
	assertDecimal(t, "total", totals.Total, "22.8734")
	assertDecimal(t, "rounded total", totals.Rounded().Total, "22.87")
	assertDecimal(t, "rounded discount", totals.Rounded().DiscountAmount, "6")
}

func TestDeliveryFeeThreshold(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		want     string
	}{
		{name: "empty cart", subtotal: "0", want: "0"},
		{name: "small order", subtotal: "8.99", want: "2.99"},
		{name: "exactly threshold", subtotal: "25.00", want: "2.99"},
		{name: "one cent over", subtotal: "25.01", want: "0"},
		{name: "large order", subtotal: "120", want: "0"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assertDecimal(t, "fee", DefaultPolicy.DeliveryFeeFor(d(tc.subtotal)), tc.want)
		})
	}
}

func TestEmptyCartTotalsAreZero(t *testing.T) {
	totals, err := Compute(nil, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for label, v := range map[string]decimal.Decimal{
		"subtotal": totals.Subtotal,
		"fee":      totals.DeliveryFee,
		"tax":      totals.Tax,
		"discount": totals.DiscountAmount,
		"total":    totals.Total,
	} {
		assertDecimal(t, label, v, "0")
	}
}

func TestQuantityMultipliesUnitPrice(t *testing.T) {
	totals, err := Compute([]Line{{UnitPrice: d("13.99"), Quantity: 2}}, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDecimal(t, "subtotal", totals.Subtotal, "27.98")
	assertDecimal(t, "fee", totals.DeliveryFee, "0")
	if totals.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", totals.ItemCount)
	}
}

func TestFullDiscountLeavesFeeAndTax(t *testing.T) {
	totals, err := Compute(lines("10"), d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDecimal(t, "total", totals.Total, "3.79")
}

func TestInvalidDiscountRejected(t *testing.T) {
	for _, pct := range []string{"-1", "100.01", "150"} {
		_, err := Compute(lines("10"), d(pct))
		if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidDisc) {
			t.Fatalf("pct %s: expected invalid discount, got %v", pct, err)
		}
	}
	if _, err := DiscountAmount(d("10"), d("101")); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidDisc) {
		t.Fatalf("expected invalid discount from DiscountAmount, got %v", err)
	}
}

func TestInvalidQuantityRejected(t *testing.T) {
	_, err := Compute([]Line{{UnitPrice: d("5"), Quantity: 0}}, decimal.Zero)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidQty) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
}

func TestTotalMatchesComponents(t *testing.T) {
	totals, err := Compute([]Line{
		{UnitPrice: d("12.99"), Quantity: 3},
		{UnitPrice: d("14.995"), Quantity: 1},
		{UnitPrice: d("6.99"), Quantity: 2},
	}, d("10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := totals.Subtotal.Sub(totals.DiscountAmount).Add(totals.DeliveryFee).Add(totals.Tax)
	if !totals.Total.Equal(want) {
		t.Fatalf("total %s does not match components %s", totals.Total, want)
	}
	if !totals.Tax.Equal(totals.Subtotal.Mul(d("0.08"))) {
		t.Fatalf("tax must be 8%% of subtotal")
	}
}
