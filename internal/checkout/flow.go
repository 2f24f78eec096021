package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/foodyzone-backend/internal/cart"
	"github.com/angelmondragon/foodyzone-backend/internal/orders"
	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/metrics"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
)

const defaultSubmitTimeout = 10 * time.Second

// Cart is the part of the cart store checkout depends on. Checkout only
// mutates the cart to clear it once an order is placed.
type Cart interface {
	Snapshot() (cart.Snapshot, error)
	Version() uint64
	Clear(ctx context.Context) error
}

// OrderRegistry records placed orders.
type OrderRegistry interface {
	Append(ctx context.Context, order orders.Order) error
}

type timer interface {
	Stop() bool
}

type scheduleFunc func(d time.Duration, fn func()) timer

func afterFunc(d time.Duration, fn func()) timer {
	return time.AfterFunc(d, fn)
}

// Options wires a Flow.
type Options struct {
	SessionID         string
	Cart              Cart
	Registry          OrderRegistry
	Sink              orders.Sink
	IDs               orders.IDGenerator
	Logger            *logger.Logger
	Metrics           *metrics.Checkout
	ConfirmationDelay time.Duration
	SubmitTimeout     time.Duration
}

// State is the presentable view of a checkout session. Payment data is
// always masked.
type State struct {
	Active      bool                  `json:"active"`
	Step        enums.CheckoutStep    `json:"step"`
	Delivery    types.DeliveryInfo    `json:"delivery"`
	Payment     *types.PaymentSummary `json:"payment,omitempty"`
	Pending     bool                  `json:"confirmation_pending"`
	LastOrderID string                `json:"last_order_id,omitempty"`
	LastError   string                `json:"last_error,omitempty"`
}

type pendingConfirmation struct {
	token   uint64
	version uint64
	timer   timer
}

// Flow is one session's DELIVERY -> REVIEW -> PAYMENT -> CONFIRMATION
// checkout. Methods are safe for concurrent use; the confirmation timer runs
// on its own goroutine.
type Flow struct {
	sessionID     string
	cart          Cart
	registry      OrderRegistry
	sink          orders.Sink
	ids           orders.IDGenerator
	logg          *logger.Logger
	metrics       *metrics.Checkout
	delay         time.Duration
	submitTimeout time.Duration
	schedule      scheduleFunc
	now           func() time.Time

	mu       sync.Mutex
	active   bool
	step     enums.CheckoutStep
	delivery types.DeliveryInfo
	payment  *PaymentInput
	// masked payment of the last placed order
	placedPayment *types.PaymentSummary
	pending       *pendingConfirmation
	tokens        uint64
	lastOrderID   string
	lastErr       error
}

func NewFlow(opts Options) (*Flow, error) {
	if opts.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("order registry required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("order sink required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.IDs == nil {
		opts.IDs = orders.NewID
	}
	if opts.ConfirmationDelay < 0 {
		opts.ConfirmationDelay = 0
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = defaultSubmitTimeout
	}
	return &Flow{
		sessionID:     opts.SessionID,
		cart:          opts.Cart,
		registry:      opts.Registry,
		sink:          opts.Sink,
		ids:           opts.IDs,
		logg:          opts.Logger,
		metrics:       opts.Metrics,
		delay:         opts.ConfirmationDelay,
		submitTimeout: opts.SubmitTimeout,
		schedule:      afterFunc,
		now:           time.Now,
		step:          enums.CheckoutStepDelivery,
	}, nil
}

// Start opens a fresh session at DELIVERY. Any pending confirmation from an
// earlier session is dropped.
func (f *Flow) Start(ctx context.Context) (State, error) {
	snap, err := f.cart.Snapshot()
	if err != nil {
		return State{}, err
	}
	if snap.IsEmpty() {
		return State{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelPendingLocked()
	f.active = true
	f.step = enums.CheckoutStepDelivery
	f.delivery = types.DeliveryInfo{}
	f.payment = nil
	f.placedPayment = nil
	f.lastOrderID = ""
	f.lastErr = nil
	f.logg.Info(f.logCtx(ctx), "checkout started")
	return f.stateLocked(), nil
}

// UpdateDeliveryInfo captures delivery details without validating them.
func (f *Flow) UpdateDeliveryInfo(ctx context.Context, info types.DeliveryInfo) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireOpenLocked(); err != nil {
		return State{}, err
	}
	f.delivery = NormalizeDelivery(info)
	return f.stateLocked(), nil
}

// UpdatePaymentInfo captures the payment form without validating it.
func (f *Flow) UpdatePaymentInfo(ctx context.Context, in PaymentInput) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireOpenLocked(); err != nil {
		return State{}, err
	}
	if f.pending != nil {
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation already pending")
	}
	normalized := normalizePayment(in)
	f.payment = &normalized
	return f.stateLocked(), nil
}

// Next advances one step when the current step's requirements hold. Leaving
// PAYMENT places the order, immediately or after the confirmation delay.
func (f *Flow) Next(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireOpenLocked(); err != nil {
		return State{}, err
	}

	switch f.step {
	case enums.CheckoutStepDelivery:
		if err := ValidateDelivery(f.delivery); err != nil {
			return f.stateLocked(), err
		}
		f.delivery = NormalizeDelivery(f.delivery)
		f.moveLocked(ctx, enums.CheckoutStepReview)
	case enums.CheckoutStepReview:
		snap, err := f.cart.Snapshot()
		if err != nil {
			return f.stateLocked(), err
		}
		if snap.IsEmpty() {
			return f.stateLocked(), pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		f.moveLocked(ctx, enums.CheckoutStepPayment)
	case enums.CheckoutStepPayment:
		if f.pending != nil {
			return f.stateLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation already pending")
		}
		if f.payment == nil {
			return f.stateLocked(), pkgerrors.New(pkgerrors.CodeValidation, "payment method is required").WithDetails(map[string]any{
				"fields": []string{"method"},
			})
		}
		if err := ValidatePayment(*f.payment); err != nil {
			return f.stateLocked(), err
		}
		f.lastErr = nil
		if f.delay == 0 {
			if _, err := f.placeLocked(ctx); err != nil {
				return f.stateLocked(), err
			}
			return f.stateLocked(), nil
		}
		f.scheduleLocked(ctx)
	}
	return f.stateLocked(), nil
}

// Back moves one step toward DELIVERY without validation. Captured data is
// kept; a pending confirmation is cancelled.
func (f *Flow) Back(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireOpenLocked(); err != nil {
		return State{}, err
	}
	switch f.step {
	case enums.CheckoutStepReview:
		f.moveLocked(ctx, enums.CheckoutStepDelivery)
	case enums.CheckoutStepPayment:
		f.cancelPendingLocked()
		f.moveLocked(ctx, enums.CheckoutStepReview)
	}
	return f.stateLocked(), nil
}

// Cancel drops a pending timed confirmation. No order is created and the
// cart is left as is.
func (f *Flow) Cancel(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelPendingLocked() {
		f.logg.Info(f.logCtx(ctx), "confirmation cancelled")
	}
	return f.stateLocked(), nil
}

// State returns the current view of the session.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// Close stops a pending confirmation timer without recording a cancellation.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending != nil {
		f.pending.timer.Stop()
		f.pending = nil
	}
}

func (f *Flow) requireOpenLocked() error {
	if !f.active {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout has not been started")
	}
	if f.step == enums.CheckoutStepConfirmation {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is complete; start a new checkout")
	}
	return nil
}

func (f *Flow) moveLocked(ctx context.Context, to enums.CheckoutStep) {
	from := f.step
	f.step = to
	f.metrics.IncTransition(from.String(), to.String())
	f.logg.Debug(f.logg.WithFields(f.logCtx(ctx), map[string]any{"from": from, "to": to}), "checkout step changed")
}

func (f *Flow) stateLocked() State {
	st := State{
		Active:      f.active,
		Step:        f.step,
		Delivery:    f.delivery,
		Pending:     f.pending != nil,
		LastOrderID: f.lastOrderID,
	}
	switch {
	case f.payment != nil:
		masked := f.payment.Mask()
		st.Payment = &masked
	case f.placedPayment != nil:
		placed := *f.placedPayment
		st.Payment = &placed
	}
	if f.lastErr != nil {
		if typed := pkgerrors.As(f.lastErr); typed != nil {
			st.LastError = typed.Message()
		} else {
			st.LastError = f.lastErr.Error()
		}
	}
	return st
}

func (f *Flow) logCtx(ctx context.Context) context.Context {
	return f.logg.WithSessionID(ctx, f.sessionID)
}
