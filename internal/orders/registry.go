package orders

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/pagination"
)

// Registry is the append-only record of placed orders.
type Registry struct {
	repo Repository
	logg *logger.Logger
}

func NewRegistry(repo Repository, logg *logger.Logger) (*Registry, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Registry{repo: repo, logg: logg}, nil
}

// Append records order. Duplicate ids are rejected with a conflict.
func (r *Registry) Append(ctx context.Context, order Order) error {
	if order.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(order.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "order has no items")
	}
	if err := r.repo.Insert(ctx, order.Clone()); err != nil {
		return err
	}
	r.logg.Info(r.logg.WithOrderID(ctx, order.ID), "order recorded")
	return nil
}

func (r *Registry) Get(ctx context.Context, id string) (Order, error) {
	order, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return order.Clone(), nil
}

// List returns a session's orders, newest first.
func (r *Registry) List(ctx context.Context, sessionID string) ([]Order, error) {
	list, err := r.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(list))
	for _, o := range list {
		out = append(out, o.Clone())
	}
	return out, nil
}

// Page is one slice of a session's order history.
type Page struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// ListPage returns the session's orders newest first, starting after the
// cursor in params.
func (r *Registry) ListPage(ctx context.Context, sessionID string, params pagination.Params) (Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	list, err := r.List(ctx, sessionID)
	if err != nil {
		return Page{}, err
	}

	start := 0
	if cursor != nil {
		start = len(list)
		for i, o := range list {
			if isAfterCursor(o, *cursor) {
				start = i
				break
			}
		}
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}

	page := Page{Orders: list[start:end]}
	if end < len(list) {
		last := list[end-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// isAfterCursor reports whether o sorts after the cursor position in
// newest-first order.
func isAfterCursor(o Order, c pagination.Cursor) bool {
	if o.CreatedAt.Equal(c.CreatedAt) {
		return o.ID < c.ID
	}
	return o.CreatedAt.Before(c.CreatedAt)
}
