package sessions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/foodyzone-backend/internal/cart"
	"github.com/angelmondragon/foodyzone-backend/internal/catalog"
	"github.com/angelmondragon/foodyzone-backend/internal/checkout"
	"github.com/angelmondragon/foodyzone-backend/internal/kvstore"
	"github.com/angelmondragon/foodyzone-backend/internal/orders"
	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const maxSessionIDLength = 128

// Session is one shopper's cart and checkout.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Flow

	// unix nanos of the last Get
	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Deps are shared by every session the manager creates.
type Deps struct {
	Catalog           catalog.Lookup
	Promos            promos.Resolver
	KV                cart.KV
	Registry          checkout.OrderRegistry
	Sink              orders.Sink
	IDs               orders.IDGenerator
	Logger            *logger.Logger
	Metrics           *metrics.Checkout
	ConfirmationDelay time.Duration
	PersistTimeout    time.Duration
	SubmitTimeout     time.Duration
	// IdleTTL evicts sessions not seen for this long; zero keeps them.
	IdleTTL time.Duration
}

// Manager keeps sessions in memory and hydrates a session's cart from the
// KV store the first time it is seen. Idle sessions are dropped by Sweep and
// rehydrated on their next request.
type Manager struct {
	deps Deps
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	group    singleflight.Group
}

func NewManager(deps Deps) (*Manager, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if deps.Promos == nil {
		return nil, fmt.Errorf("promo resolver required")
	}
	if deps.KV == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("order registry required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("order sink required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.IdleTTL < 0 {
		deps.IdleTTL = 0
	}
	return &Manager{deps: deps, now: time.Now, sessions: map[string]*Session{}}, nil
}

// Get returns the session for id, loading its saved cart on first use.
// Concurrent first requests for the same id share one hydration.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxSessionIDLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.touch(m.now())
		return sess, nil
	}

	v, err, _ := m.group.Do(id, func() (any, error) {
		m.mu.RLock()
		existing, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := m.open(ctx, id)
		if err != nil {
			return nil, err
		}
		created.touch(m.now())

		m.mu.Lock()
		m.sessions[id] = created
		m.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	sess, ok = v.(*Session)
	if !ok || sess == nil {
		// joined an eviction of the same id; its cart is saved, load it again
		return m.Get(ctx, id)
	}
	sess.touch(m.now())
	return sess, nil
}

func (m *Manager) open(ctx context.Context, id string) (*Session, error) {
	store, err := cart.NewStore(cart.Options{
		Key:            kvstore.CartKey(id),
		Catalog:        m.deps.Catalog,
		Promos:         m.deps.Promos,
		KV:             m.deps.KV,
		Logger:         m.deps.Logger,
		Metrics:        m.deps.Metrics,
		PersistTimeout: m.deps.PersistTimeout,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	if err := store.Hydrate(ctx); err != nil {
		return nil, err
	}

	flow, err := checkout.NewFlow(checkout.Options{
		SessionID:         id,
		Cart:              store,
		Registry:          m.deps.Registry,
		Sink:              m.deps.Sink,
		IDs:               m.deps.IDs,
		Logger:            m.deps.Logger,
		Metrics:           m.deps.Metrics,
		ConfirmationDelay: m.deps.ConfirmationDelay,
		SubmitTimeout:     m.deps.SubmitTimeout,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create checkout")
	}

	m.deps.Logger.Debug(m.deps.Logger.WithSessionID(ctx, id), "session opened")
	return &Session{ID: id, Cart: store, Checkout: flow}, nil
}

// Len reports how many sessions are held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the idle TTL and returns how many
// went. Sessions waiting on a timed confirmation are kept so the order still
// fires.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.deps.IdleTTL == 0 {
		return 0
	}
	m.mu.RLock()
	var idle []string
	for id, sess := range m.sessions {
		if m.isIdle(sess) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	evicted := 0
	for _, id := range idle {
		// shares the id's flight with Get so a returning shopper waits for the
		// cart to be flushed before it is loaded again
		_, _, _ = m.group.Do(id, func() (any, error) {
			m.mu.Lock()
			sess, ok := m.sessions[id]
			if !ok || !m.isIdle(sess) {
				m.mu.Unlock()
				return nil, nil
			}
			delete(m.sessions, id)
			m.mu.Unlock()

			sess.Checkout.Close()
			sess.Cart.Flush()
			evicted++
			return nil, nil
		})
	}
	if evicted > 0 {
		m.deps.Logger.Debug(m.deps.Logger.WithField(ctx, "evicted", evicted), "idle sessions evicted")
	}
	return evicted
}

func (m *Manager) isIdle(sess *Session) bool {
	if sess.idleSince(m.now()) < m.deps.IdleTTL {
		return false
	}
	return !sess.Checkout.State().Pending
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.deps.IdleTTL == 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Close stops pending confirmations and waits for in-flight cart writes.
func (m *Manager) Close() {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		list = append(list, sess)
	}
	m.mu.RUnlock()

	for _, sess := range list {
		sess.Checkout.Close()
		sess.Cart.Flush()
	}
}
