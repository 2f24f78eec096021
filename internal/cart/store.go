package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/foodyzone-backend/internal/catalog"
	"github.com/angelmondragon/foodyzone-backend/internal/pricing"
	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

const defaultPersistTimeout = 3 * time.Second

// KV is the key-value persistence the cart writes through to.
type KV interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
}

// Options wires a Store.
type Options struct {
	Key            string
	Catalog        catalog.Lookup
	Promos         promos.Resolver
	KV             KV
	Logger         *logger.Logger
	Metrics        *metrics.Checkout
	Policy         *pricing.Policy
	PersistTimeout time.Duration
}

// Store owns one session's cart. Reads and writes are serialized; every
// mutation is written to the KV in the background.
type Store struct {
	key            string
	catalog        catalog.Lookup
	promos         promos.Resolver
	kv             KV
	logg           *logger.Logger
	metrics        *metrics.Checkout
	policy         pricing.Policy
	persistTimeout time.Duration

	mu       sync.Mutex
	items    []LineItem
	discount decimal.Decimal
	version  uint64

	persistMu    sync.Mutex
	persistedVer uint64
	pending      sync.WaitGroup
}

// NewStore builds an empty cart. Call Hydrate to load saved state.
func NewStore(opts Options) (*Store, error) {
	if opts.Key == "" {
		return nil, fmt.Errorf("cart key required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if opts.Promos == nil {
		return nil, fmt.Errorf("promo resolver required")
	}
	if opts.KV == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	policy := pricing.DefaultPolicy
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	timeout := opts.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	return &Store{
		key:            opts.Key,
		catalog:        opts.Catalog,
		promos:         opts.Promos,
		kv:             opts.KV,
		logg:           opts.Logger,
		metrics:        opts.Metrics,
		policy:         policy,
		persistTimeout: timeout,
		items:          []LineItem{},
		discount:       decimal.Zero,
	}, nil
}

// Key returns the KV key the cart persists under.
func (s *Store) Key() string {
	return s.key
}

// Hydrate replaces in-memory state with the saved state. A missing key leaves
// the cart empty; unreadable state is logged and discarded.
func (s *Store) Hydrate(ctx context.Context) error {
	raw, found, err := s.kv.Load(ctx, s.key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart")
	}
	if !found {
		return nil
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_key", s.key), "discarding unreadable cart state")
		return nil
	}

	items := make([]LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			continue
		}
		items = append(items, item)
	}
	discount := state.DiscountPercent
	if pricing.ValidateDiscount(discount) != nil {
		discount = decimal.Zero
	}

	s.mu.Lock()
	s.items = items
	s.discount = discount
	s.mu.Unlock()
	return nil
}

// AddItem adds one unit of productID. An existing line is incremented and
// keeps its original unit price.
func (s *Store) AddItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity++
			s.commitLocked(ctx, "add_item")
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a concurrent add may have created the line while the catalog was queried
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity++
			s.commitLocked(ctx, "add_item")
			return nil
		}
	}
	s.items = append(s.items, LineItem{
		ProductID: product.ID,
		Title:     product.Title,
		UnitPrice: product.UnitPrice,
		Quantity:  1,
	})
	s.commitLocked(ctx, "add_item")
	return nil
}

// RemoveItem drops productID; absent ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, productID)
	return nil
}

func (s *Store) removeLocked(ctx context.Context, productID string) {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.commitLocked(ctx, "remove_item")
			return
		}
	}
}

// MaxQuantity caps a single line.
const MaxQuantity = 99

// UpdateQuantity sets the quantity of productID. Values below 1 remove the
// line; absent ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity > MaxQuantity {
		return pkgerrors.Newf(pkgerrors.CodeInvalidQty, "quantity %d exceeds %d", quantity, MaxQuantity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity < 1 {
		s.removeLocked(ctx, productID)
		return nil
	}
	for i := range s.items {
		if s.items[i].ProductID == productID {
			if s.items[i].Quantity != quantity {
				s.items[i].Quantity = quantity
				s.commitLocked(ctx, "update_quantity")
			}
			return nil
		}
	}
	return nil
}

// ApplyDiscount replaces the discount percent; the last call wins.
func (s *Store) ApplyDiscount(ctx context.Context, pct decimal.Decimal) error {
	if err := pricing.ValidateDiscount(pct); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discount = pct
	s.commitLocked(ctx, "apply_discount")
	return nil
}

// ApplyPromo resolves code and applies its percent. Unknown codes leave the
// current discount untouched.
func (s *Store) ApplyPromo(ctx context.Context, code string) (decimal.Decimal, error) {
	pct, err := s.promos.Resolve(code)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.ApplyDiscount(ctx, pct); err != nil {
		return decimal.Zero, err
	}
	return pct, nil
}

// Clear empties the cart and resets the discount.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []LineItem{}
	s.discount = decimal.Zero
	s.commitLocked(ctx, "clear")
	return nil
}

// Snapshot returns a deep copy of the items with totals computed now.
func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	items := cloneItems(s.items)
	discount := s.discount
	version := s.version
	s.mu.Unlock()

	totals, err := s.policy.Compute(Lines(items), discount)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Items: items, Totals: totals, Version: version}, nil
}

// Version increases by one on every effective mutation.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// IsEmpty reports whether the cart has no items.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Flush blocks until background persistence writes have finished.
func (s *Store) Flush() {
	s.pending.Wait()
}

func (s *Store) commitLocked(ctx context.Context, op string) {
	s.version++
	s.metrics.IncCartMutation(op)
	state := State{Items: cloneItems(s.items), DiscountPercent: s.discount}
	s.persistAsync(ctx, state, s.version)
}
