package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodyzone-backend/api/responses"
	"github.com/angelmondragon/foodyzone-backend/api/validators"
	"github.com/angelmondragon/foodyzone-backend/internal/cart"
	"github.com/angelmondragon/foodyzone-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
)

const maxProductIDLength = 64

// CartFetch returns the session cart with totals rounded to cents.
func CartFetch(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, sess.Cart)
	}
}

// CartAddItem adds one unit of a menu item.
func CartAddItem(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.Cart.AddItem(r.Context(), validators.SanitizeString(payload.ProductID, maxProductIDLength)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, sess.Cart)
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes the line.
func CartUpdateItem(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.PathParam(r, "productId", maxProductIDLength)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.Cart.UpdateQuantity(r.Context(), productID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, sess.Cart)
	}
}

func CartRemoveItem(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.PathParam(r, "productId", maxProductIDLength)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.Cart.RemoveItem(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, sess.Cart)
	}
}

// CartApplyPromo applies a promo code. An unknown code is a 404 and the
// current discount stays as it was.
func CartApplyPromo(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := sess.Cart.ApplyPromo(r.Context(), payload.Code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, sess.Cart)
	}
}

// CartApplyDiscount sets the discount percent directly.
func CartApplyDiscount(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Percent == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "percent is required").WithDetails(map[string]string{"percent": "is required"}))
			return
		}

		if err := sess.Cart.ApplyDiscount(r.Context(), *payload.Percent); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, sess.Cart)
	}
}

func CartClear(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := sess.Cart.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, sess.Cart)
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}

type applyPromoRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type applyDiscountRequest struct {
	Percent *decimal.Decimal `json:"percent"`
}

type cartItemResponse struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type totalsResponse struct {
	Subtotal        string `json:"subtotal"`
	DiscountPercent string `json:"discount_percent"`
	DiscountAmount  string `json:"discount_amount"`
	DeliveryFee     string `json:"delivery_fee"`
	Tax             string `json:"tax"`
	Total           string `json:"total"`
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Totals    totalsResponse     `json:"totals"`
	Version   uint64             `json:"version"`
}

func newTotalsResponse(t pricing.Totals) totalsResponse {
	rounded := t.Rounded()
	return totalsResponse{
		Subtotal:        rounded.Subtotal.StringFixed(2),
		DiscountPercent: rounded.DiscountPercent.String(),
		DiscountAmount:  rounded.DiscountAmount.StringFixed(2),
		DeliveryFee:     rounded.DeliveryFee.StringFixed(2),
		Tax:             rounded.Tax.StringFixed(2),
		Total:           rounded.Total.StringFixed(2),
	}
}

func newCartItemsResponse(items []cart.LineItem) []cartItemResponse {
	out := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, cartItemResponse{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2),
		})
	}
	return out
}

func newCartResponse(snap cart.Snapshot) cartResponse {
	return cartResponse{
		Items:     newCartItemsResponse(snap.Items),
		ItemCount: snap.Totals.ItemCount,
		Totals:    newTotalsResponse(snap.Totals),
		Version:   snap.Version,
	}
}

func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger, store *cart.Store) {
	snap, err := store.Snapshot()
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newCartResponse(snap))
}
