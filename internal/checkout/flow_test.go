package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/foodyzone-backend/internal/cart"
	"github.com/angelmondragon/foodyzone-backend/internal/catalog"
	"github.com/angelmondragon/foodyzone-backend/internal/kvstore"
	"github.com/angelmondragon/foodyzone-backend/internal/orders"
	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
)

type stubRegistry struct {
	mu        sync.Mutex
	inner     *orders.Registry
	appendErr error
	appended  []string
}

func (s *stubRegistry) Append(ctx context.Context, order orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	if err := s.inner.Append(ctx, order); err != nil {
		return err
	}
	s.appended = append(s.appended, order.ID)
	return nil
}

type stubSink struct {
	mu        sync.Mutex
	err       error
	submitted []orders.Order
}

func (s *stubSink) Submit(ctx context.Context, order orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.submitted = append(s.submitted, order)
	return nil
}

type fakeTimer struct {
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type manualClock struct {
	fns    []func()
	timers []*fakeTimer
}

func (m *manualClock) schedule(d time.Duration, fn func()) timer {
	t := &fakeTimer{}
	m.fns = append(m.fns, fn)
	m.timers = append(m.timers, t)
	return t
}

func (m *manualClock) fireLast() {
	m.fns[len(m.fns)-1]()
}

type harness struct {
	flow     *Flow
	cart     *cart.Store
	registry *stubRegistry
	orders   *orders.Registry
	sink     *stubSink
	clock    *manualClock
}

func newHarness(t *testing.T, delay time.Duration, productIDs ...string) *harness {
	t.Helper()
	ctx := context.Background()
	logg := logger.Nop()

	menu, err := catalog.NewService(catalog.DefaultMenu(), promos.Default())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	store, err := cart.NewStore(cart.Options{
		Key:     kvstore.CartKey("sess-1"),
		Catalog: menu,
		Promos:  promos.Default(),
		KV:      kvstore.NewMemory(),
		Logger:  logg,
	})
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	for _, id := range productIDs {
		if err := store.AddItem(ctx, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	t.Cleanup(store.Flush)

	reg, err := orders.NewRegistry(orders.NewMemoryRepository(), logg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	stubReg := &stubRegistry{inner: reg}
	sink := &stubSink{}
	seq := 0
	flow, err := NewFlow(Options{
		SessionID: "sess-1",
		Cart:      store,
		Registry:  stubReg,
		Sink:      sink,
		IDs: func() (string, error) {
			seq++
			return "ORD-TEST-" + string(rune('0'+seq)), nil
		},
		Logger:            logg,
		ConfirmationDelay: delay,
	})
	if err != nil {
		t.Fatalf("flow: %v", err)
	}
	clock := &manualClock{}
	flow.schedule = clock.schedule

	return &harness{flow: flow, cart: store, registry: stubReg, orders: reg, sink: sink, clock: clock}
}

func validDelivery() types.DeliveryInfo {
	return types.DeliveryInfo{Type: enums.DeliveryTypeDelivery, Name: "Ada Lovelace", Phone: "555-0100", Address: "1 Main St"}
}

func validCard() PaymentInput {
	return PaymentInput{
		Method:         enums.PaymentMethodCard,
		CardNumber:     "4242 4242-4242 4242",
		CardholderName: "  Ada L ",
		Expiry:         "12/29",
		CVV:            "123",
		AcceptTerms:    true,
	}
}

func advanceToPayment(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.flow.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.flow.UpdateDeliveryInfo(ctx, validDelivery()); err != nil {
		t.Fatalf("delivery: %v", err)
	}
	if st, err := h.flow.Next(ctx); err != nil || st.Step != enums.CheckoutStepReview {
		t.Fatalf("expected review, got %+v err=%v", st, err)
	}
	if st, err := h.flow.Next(ctx); err != nil || st.Step != enums.CheckoutStepPayment {
		t.Fatalf("expected payment, got %+v err=%v", st, err)
	}
}

func TestStartRequiresItems(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	if _, err := h.flow.Start(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	if h.flow.State().Active {
		t.Fatal("flow should not be active")
	}
}

func TestOperationsRequireStartedSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0, "2")
	ctx := context.Background()
	if _, err := h.flow.Next(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict from next, got %v", err)
	}
	if _, err := h.flow.UpdateDeliveryInfo(ctx, validDelivery()); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict from delivery update, got %v", err)
	}
}

func TestImmediateConfirmationPlacesOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "2", "5")
	advanceToPayment(t, h)

	if _, err := h.flow.UpdatePaymentInfo(ctx, validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	st, err := h.flow.Next(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if st.Step != enums.CheckoutStepConfirmation || st.LastOrderID != "ORD-TEST-1" {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Payment == nil || st.Payment.CardLast4 != "4242" || st.Payment.CardholderName != "Ada L" {
		t.Fatalf("unexpected masked payment %+v", st.Payment)
	}

	order, err := h.orders.Get(ctx, "ORD-TEST-1")
	if err != nil {
		t.Fatalf("order not recorded: %v", err)
	}
	if got := order.Totals.Rounded().Total.StringFixed(2); got != "28.89" {
		t.Fatalf("expected total 28.89, got %s", got)
	}
	if order.Payment.CardLast4 != "4242" || order.Delivery.Name != "Ada Lovelace" {
		t.Fatalf("unexpected order details %+v", order)
	}
	if len(h.sink.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(h.sink.submitted))
	}
	if !h.cart.IsEmpty() {
		t.Fatal("cart should be cleared after the order is placed")
	}
	if _, err := h.flow.Next(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("confirmation should be terminal, got %v", err)
	}
}

func TestOrderSurvivesLaterCartChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "2")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, PaymentInput{Method: enums.PaymentMethodCOD, AcceptTerms: true})
	if _, err := h.flow.Next(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := h.cart.AddItem(ctx, "3"); err != nil {
		t.Fatalf("add: %v", err)
	}
	order, _ := h.orders.Get(ctx, "ORD-TEST-1")
	if len(order.Items) != 1 || order.Items[0].ProductID != "2" {
		t.Fatalf("order changed with the cart: %+v", order.Items)
	}
}

func TestDeliveryStepValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "1")
	if _, err := h.flow.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = h.flow.UpdateDeliveryInfo(ctx, types.DeliveryInfo{Type: enums.DeliveryTypeDelivery, Name: "Ada"})

	st, err := h.flow.Next(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if st.Step != enums.CheckoutStepDelivery {
		t.Fatalf("step should not change, got %s", st.Step)
	}
	details := pkgerrors.As(err).Details().(map[string]any)
	fields := details["fields"].([]string)
	if len(fields) != 2 || fields[0] != "address" || fields[1] != "phone" {
		t.Fatalf("unexpected missing fields %v", fields)
	}
}

func TestPickupSkipsAddress(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "1")
	_, _ = h.flow.Start(ctx)
	_, _ = h.flow.UpdateDeliveryInfo(ctx, types.DeliveryInfo{Type: enums.DeliveryTypePickup, Name: "Ada", Phone: "555"})

	st, err := h.flow.Next(ctx)
	if err != nil {
		t.Fatalf("pickup should not need an address: %v", err)
	}
	if st.Delivery.PickupLocation != types.PickupLocation {
		t.Fatalf("expected pickup location, got %q", st.Delivery.PickupLocation)
	}
}

func TestReviewRequiresItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "1")
	_, _ = h.flow.Start(ctx)
	_, _ = h.flow.UpdateDeliveryInfo(ctx, validDelivery())
	_, _ = h.flow.Next(ctx)

	if err := h.cart.RemoveItem(ctx, "1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	st, err := h.flow.Next(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	if st.Step != enums.CheckoutStepReview {
		t.Fatalf("step should stay at review, got %s", st.Step)
	}
}

func TestPaymentStepRejectsInvalidCard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "1")
	advanceToPayment(t, h)

	if _, err := h.flow.Next(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error without a method, got %v", err)
	}

	bad := validCard()
	bad.CardNumber = "4242"
	_, _ = h.flow.UpdatePaymentInfo(ctx, bad)
	st, err := h.flow.Next(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if st.Step != enums.CheckoutStepPayment || len(h.registry.appended) != 0 {
		t.Fatalf("nothing should be placed, state=%+v", st)
	}
}

func TestBackKeepsCapturedData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "1")
	advanceToPayment(t, h)

	st, _ := h.flow.Back(ctx)
	if st.Step != enums.CheckoutStepReview {
		t.Fatalf("expected review, got %s", st.Step)
	}
	st, _ = h.flow.Back(ctx)
	if st.Step != enums.CheckoutStepDelivery || st.Delivery.Address != "1 Main St" {
		t.Fatalf("unexpected state after back %+v", st)
	}
	st, _ = h.flow.Back(ctx)
	if st.Step != enums.CheckoutStepDelivery {
		t.Fatalf("back at delivery should stay, got %s", st.Step)
	}
}

func TestTimedConfirmationFires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 5*time.Second, "2", "5")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, validCard())

	st, err := h.flow.Next(ctx)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !st.Pending || st.Step != enums.CheckoutStepPayment {
		t.Fatalf("expected pending confirmation, got %+v", st)
	}
	if _, err := h.flow.Next(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("second next should conflict, got %v", err)
	}

	h.clock.fireLast()

	st = h.flow.State()
	if st.Pending || st.Step != enums.CheckoutStepConfirmation || st.LastOrderID == "" {
		t.Fatalf("expected confirmation after fire, got %+v", st)
	}
	if !h.cart.IsEmpty() {
		t.Fatal("cart should be cleared")
	}
}

func TestCancelStopsTimedConfirmation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, time.Second, "2")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, validCard())
	_, _ = h.flow.Next(ctx)

	st, err := h.flow.Cancel(ctx)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if st.Pending || !h.clock.timers[0].stopped {
		t.Fatalf("expected pending confirmation stopped, got %+v", st)
	}

	h.clock.fireLast()

	if len(h.registry.appended) != 0 || h.cart.IsEmpty() {
		t.Fatal("a cancelled confirmation must not place an order")
	}
	if h.flow.State().Step != enums.CheckoutStepPayment {
		t.Fatalf("step should stay at payment")
	}
}

func TestBackCancelsTimedConfirmation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, time.Second, "2")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, validCard())
	_, _ = h.flow.Next(ctx)
	_, _ = h.flow.Back(ctx)

	h.clock.fireLast()
	if len(h.registry.appended) != 0 {
		t.Fatal("back should cancel the pending confirmation")
	}
}

func TestCartChangeDropsTimedConfirmation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, time.Second, "2")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, validCard())
	_, _ = h.flow.Next(ctx)

	if err := h.cart.AddItem(ctx, "5"); err != nil {
		t.Fatalf("add: %v", err)
	}
	h.clock.fireLast()

	st := h.flow.State()
	if st.Pending || st.Step != enums.CheckoutStepPayment || len(h.registry.appended) != 0 {
		t.Fatalf("stale confirmation should be dropped, got %+v", st)
	}
}

func TestSinkFailureKeepsCartAndRecordsNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "2")
	h.sink.err = errors.New("broker down")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, validCard())

	st, err := h.flow.Next(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeOrderFailed) {
		t.Fatalf("expected order failure, got %v", err)
	}
	if st.Step != enums.CheckoutStepPayment || st.LastError == "" {
		t.Fatalf("unexpected state %+v", st)
	}
	if h.cart.IsEmpty() {
		t.Fatal("cart must not be cleared on failure")
	}
	if len(h.registry.appended) != 0 {
		t.Fatalf("rejected order must not be recorded, got %v", h.registry.appended)
	}
	if _, err := h.orders.Get(ctx, "ORD-TEST-1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("rejected order is present in the registry: %v", err)
	}

	h.sink.err = nil
	if _, err := h.flow.Next(ctx); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if h.flow.State().LastError != "" {
		t.Fatal("last error should clear after success")
	}
}

func TestRegistryFailureKeepsCart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "2")
	h.registry.appendErr = pkgerrors.New(pkgerrors.CodeDependency, "db down")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, PaymentInput{Method: enums.PaymentMethodWallet})

	st, err := h.flow.Next(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeOrderFailed) {
		t.Fatalf("expected order failure, got %v", err)
	}
	if st.Step != enums.CheckoutStepPayment || h.cart.IsEmpty() {
		t.Fatalf("flow should stay at payment with the cart kept, got %+v", st)
	}
}

func TestStartAfterConfirmationOpensNewSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, 0, "2")
	advanceToPayment(t, h)
	_, _ = h.flow.UpdatePaymentInfo(ctx, PaymentInput{Method: enums.PaymentMethodUPI, AcceptTerms: true})
	_, _ = h.flow.Next(ctx)

	if _, err := h.flow.Start(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart) {
		t.Fatalf("cleared cart cannot start checkout, got %v", err)
	}
	_ = h.cart.AddItem(ctx, "6")
	st, err := h.flow.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.Step != enums.CheckoutStepDelivery || st.LastOrderID != "" || st.Payment != nil {
		t.Fatalf("expected a fresh session, got %+v", st)
	}
}

func TestNonCardMethodsPlaceOrderWithoutTerms(t *testing.T) {
	t.Parallel()

	for _, method := range []enums.PaymentMethod{enums.PaymentMethodCOD, enums.PaymentMethodWallet, enums.PaymentMethodUPI} {
		method := method
		t.Run(string(method), func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			h := newHarness(t, 0, "2")
			advanceToPayment(t, h)
			if _, err := h.flow.UpdatePaymentInfo(ctx, PaymentInput{Method: method}); err != nil {
				t.Fatalf("payment: %v", err)
			}
			st, err := h.flow.Next(ctx)
			if err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if st.Step != enums.CheckoutStepConfirmation || st.Payment == nil || st.Payment.Method != method {
				t.Fatalf("unexpected state %+v", st)
			}
		})
	}
}
