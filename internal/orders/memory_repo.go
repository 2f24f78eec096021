package orders

import (
	"context"
	"sort"
	"sync"

	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
)

type memoryRepository struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewMemoryRepository keeps orders in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{orders: map[string]Order{}}
}

func (m *memoryRepository) Insert(ctx context.Context, order Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[order.ID]; exists {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "order %s already exists", order.ID)
	}
	m.orders[order.ID] = order.Clone()
	return nil
}

func (m *memoryRepository) FindByID(ctx context.Context, id string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return Order{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
	}
	return order.Clone(), nil
}

func (m *memoryRepository) ListBySession(ctx context.Context, sessionID string) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Order{}
	for _, order := range m.orders {
		if order.SessionID == sessionID {
			out = append(out, order.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
