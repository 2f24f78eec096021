// Package kvstore provides the last-writer-wins key-value backends that hold
// session carts.
package kvstore

import (
	"context"
	"strings"
	"sync"
)

const cartPrefix = "cart"

// Store is the load/save surface shared by every backend.
type Store interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
}

// CartKey returns the key holding a session's cart.
func CartKey(sessionID string) string {
	return cartPrefix + ":" + strings.TrimSpace(sessionID)
}

// Memory is an in-process Store for tests and single-node development.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Load(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Save(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
