package orders

import "context"

// Repository persists orders. Orders are inserted once and never updated.
type Repository interface {
	Insert(ctx context.Context, order Order) error
	FindByID(ctx context.Context, id string) (Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]Order, error)
}

// Sink receives placed orders for fulfillment.
type Sink interface {
	Submit(ctx context.Context, order Order) error
}
