package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/foodyzone-backend/api/middleware"
	"github.com/angelmondragon/foodyzone-backend/api/responses"
	"github.com/angelmondragon/foodyzone-backend/api/validators"
	"github.com/angelmondragon/foodyzone-backend/internal/orders"
	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/pagination"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
)

// OrderReader reads placed orders.
type OrderReader interface {
	Get(ctx context.Context, id string) (orders.Order, error)
	ListPage(ctx context.Context, sessionID string, params pagination.Params) (orders.Page, error)
}

// OrdersList returns the caller's orders newest first, paged with ?limit= and
// ?cursor=.
func OrdersList(reader OrderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order registry unavailable"))
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id missing"))
			return
		}

		limit, err := validators.QueryInt(r, "limit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := reader.ListPage(r.Context(), sessionID, pagination.Params{
			Limit:  limit,
			Cursor: validators.SanitizeString(r.URL.Query().Get("cursor"), 256),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := orderPageResponse{Orders: make([]orderResponse, 0, len(page.Orders)), NextCursor: page.NextCursor}
		for _, order := range page.Orders {
			out.Orders = append(out.Orders, newOrderResponse(order))
		}
		responses.WriteSuccess(w, out)
	}
}

// OrderDetail returns one order. Orders of other sessions read as not found.
func OrderDetail(reader OrderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order registry unavailable"))
			return
		}

		orderID, err := validators.PathParam(r, "orderId", 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := reader.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.SessionID != middleware.SessionIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %q not found", orderID))
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type orderResponse struct {
	OrderID   string               `json:"order_id"`
	Status    enums.OrderStatus    `json:"status"`
	Items     []cartItemResponse   `json:"items"`
	ItemCount int                  `json:"item_count"`
	Totals    totalsResponse       `json:"totals"`
	Delivery  types.DeliveryInfo   `json:"delivery"`
	Payment   types.PaymentSummary `json:"payment"`
	CreatedAt time.Time            `json:"created_at"`
}

func newOrderResponse(o orders.Order) orderResponse {
	return orderResponse{
		OrderID:   o.ID,
		Status:    o.Status,
		Items:     newCartItemsResponse(o.Items),
		ItemCount: o.Totals.ItemCount,
		Totals:    newTotalsResponse(o.Totals),
		Delivery:  o.Delivery,
		Payment:   o.Payment,
		CreatedAt: o.CreatedAt,
	}
}
