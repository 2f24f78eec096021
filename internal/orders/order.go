package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodyzone-backend/internal/cart"
	"github.com/angelmondragon/foodyzone-backend/internal/pricing"
	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
	"github.com/google/uuid"
)

const idPrefix = "ORD-"

// Order is a placed order. It shares no memory with the cart it came from;
// callers receive copies.
type Order struct {
	ID        string               `json:"order_id"`
	SessionID string               `json:"session_id"`
	Status    enums.OrderStatus    `json:"status"`
	Items     []cart.LineItem      `json:"items"`
	Delivery  types.DeliveryInfo   `json:"delivery"`
	Payment   types.PaymentSummary `json:"payment"`
	Totals    pricing.Totals       `json:"totals"`
	CreatedAt time.Time            `json:"created_at"`
}

// IDGenerator produces unique order ids.
type IDGenerator func() (string, error)

// NewID returns ORD- followed by a time-ordered UUIDv7.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}
	return idPrefix + strings.ToUpper(id.String()), nil
}

// BuildInput collects what an order is assembled from.
type BuildInput struct {
	ID        string
	SessionID string
	Snapshot  cart.Snapshot
	Delivery  types.DeliveryInfo
	Payment   types.PaymentSummary
	CreatedAt time.Time
}

// Build assembles an immutable order from a cart snapshot.
func Build(in BuildInput) (Order, error) {
	if strings.TrimSpace(in.ID) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeOrderFailed, "order id is required")
	}
	if in.Snapshot.IsEmpty() {
		return Order{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "cannot place an order for an empty cart")
	}
	if !in.Payment.Method.IsValid() {
		return Order{}, pkgerrors.Newf(pkgerrors.CodeOrderFailed, "invalid payment method %q", in.Payment.Method)
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return Order{
		ID:        in.ID,
		SessionID: in.SessionID,
		Status:    enums.OrderStatusPlaced,
		Items:     cloneItems(in.Snapshot.Items),
		Delivery:  in.Delivery,
		Payment:   in.Payment,
		Totals:    in.Snapshot.Totals,
		CreatedAt: created.UTC(),
	}, nil
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	out := o
	out.Items = cloneItems(o.Items)
	return out
}

func cloneItems(items []cart.LineItem) []cart.LineItem {
	out := make([]cart.LineItem, len(items))
	copy(out, items)
	return out
}
