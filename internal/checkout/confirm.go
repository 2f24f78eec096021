package checkout

import (
	"context"

	"github.com/angelmondragon/foodyzone-backend/internal/orders"
	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
)

func (f *Flow) scheduleLocked(ctx context.Context) {
	f.tokens++
	token := f.tokens
	// the timer outlives the request that armed it
	fireCtx := context.WithoutCancel(f.logCtx(ctx))
	f.pending = &pendingConfirmation{
		token:   token,
		version: f.cart.Version(),
	}
	f.pending.timer = f.schedule(f.delay, func() { f.fire(fireCtx, token) })
	f.logg.Info(f.logg.WithField(fireCtx, "delay", f.delay.String()), "confirmation scheduled")
}

// fire runs the scheduled confirmation. A token that no longer matches means
// the confirmation was cancelled or superseded.
func (f *Flow) fire(ctx context.Context, token uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil || f.pending.token != token {
		return
	}
	version := f.pending.version
	f.pending = nil

	if f.cart.Version() != version {
		f.metrics.IncCancellation()
		f.logg.Info(ctx, "confirmation dropped: cart changed while pending")
		return
	}
	_, _ = f.placeLocked(ctx)
}

func (f *Flow) cancelPendingLocked() bool {
	if f.pending == nil {
		return false
	}
	f.pending.timer.Stop()
	f.pending = nil
	f.metrics.IncCancellation()
	return true
}

// placeLocked turns the cart into an order: snapshot, id, sink, registry,
// then clear. The registry only sees orders the sink accepted, and the cart
// is only cleared once every earlier stage succeeded.
func (f *Flow) placeLocked(ctx context.Context) (orders.Order, error) {
	order, err := f.buildOrderLocked()
	if err != nil {
		return orders.Order{}, f.failLocked(ctx, "build", err)
	}
	ctx = f.logg.WithOrderID(ctx, order.ID)

	submitCtx, cancel := context.WithTimeout(ctx, f.submitTimeout)
	err = f.sink.Submit(submitCtx, order)
	cancel()
	if err != nil {
		return orders.Order{}, f.failLocked(ctx, "sink", err)
	}

	if err := f.registry.Append(ctx, order); err != nil {
		f.logg.Warn(ctx, "order submitted but not recorded")
		return orders.Order{}, f.failLocked(ctx, "registry", err)
	}

	if err := f.cart.Clear(ctx); err != nil {
		f.logg.Error(ctx, "order placed but cart clear failed", err)
	}

	placed := order.Payment
	f.placedPayment = &placed
	f.payment = nil
	f.lastOrderID = order.ID
	f.lastErr = nil
	f.moveLocked(ctx, enums.CheckoutStepConfirmation)
	total, _ := order.Totals.Rounded().Total.Float64()
	f.metrics.ObserveOrder(total)
	f.logg.Info(ctx, "order placed")
	return order, nil
}

func (f *Flow) buildOrderLocked() (orders.Order, error) {
	snap, err := f.cart.Snapshot()
	if err != nil {
		return orders.Order{}, err
	}
	if snap.IsEmpty() {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	id, err := f.ids()
	if err != nil {
		return orders.Order{}, err
	}
	return orders.Build(orders.BuildInput{
		ID:        id,
		SessionID: f.sessionID,
		Snapshot:  snap,
		Delivery:  f.delivery,
		Payment:   f.payment.Mask(),
		CreatedAt: f.now(),
	})
}

// failLocked records a placement failure. The step stays at PAYMENT and the
// cart is untouched.
func (f *Flow) failLocked(ctx context.Context, stage string, err error) error {
	f.metrics.IncOrderFailure(stage)
	if !pkgerrors.IsCode(err, pkgerrors.CodeOrderFailed) && !pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart) {
		err = pkgerrors.Wrap(pkgerrors.CodeOrderFailed, err, "order could not be placed")
	}
	f.lastErr = err
	f.logg.Error(f.logg.WithField(ctx, "stage", stage), "order placement failed", err)
	return err
}
