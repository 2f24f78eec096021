package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/foodyzone-backend/api/responses"
	"github.com/angelmondragon/foodyzone-backend/api/validators"
	"github.com/angelmondragon/foodyzone-backend/internal/checkout"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
)

type checkoutStep func(ctx context.Context, flow *checkout.Flow, r *http.Request) (checkout.State, error)

// checkoutHandler resolves the session flow, runs step and writes the
// resulting state.
func checkoutHandler(provider SessionProvider, logg *logger.Logger, step checkoutStep) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := step(r.Context(), sess.Checkout, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutStart opens a checkout at the delivery step. An empty cart is
// rejected.
func CheckoutStart(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(provider, logg, func(ctx context.Context, flow *checkout.Flow, _ *http.Request) (checkout.State, error) {
		return flow.Start(ctx)
	})
}

func CheckoutFetch(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(provider, logg, func(_ context.Context, flow *checkout.Flow, _ *http.Request) (checkout.State, error) {
		return flow.State(), nil
	})
}

// CheckoutDelivery stores the delivery form. Validation happens on next.
func CheckoutDelivery(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(provider, logg, func(ctx context.Context, flow *checkout.Flow, r *http.Request) (checkout.State, error) {
		var payload types.DeliveryInfo
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return checkout.State{}, err
		}
		return flow.UpdateDeliveryInfo(ctx, payload)
	})
}

// CheckoutPayment stores the payment form. Card data never leaves the flow
// unmasked.
func CheckoutPayment(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(provider, logg, func(ctx context.Context, flow *checkout.Flow, r *http.Request) (checkout.State, error) {
		var payload checkout.PaymentInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return checkout.State{}, err
		}
		return flow.UpdatePaymentInfo(ctx, payload)
	})
}

func CheckoutNext(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(provider, logg, func(ctx context.Context, flow *checkout.Flow, _ *http.Request) (checkout.State, error) {
		return flow.Next(ctx)
	})
}

func CheckoutBack(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(provider, logg, func(ctx context.Context, flow *checkout.Flow, _ *http.Request) (checkout.State, error) {
		return flow.Back(ctx)
	})
}

// CheckoutCancel drops a pending timed confirmation.
func CheckoutCancel(provider SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(provider, logg, func(ctx context.Context, flow *checkout.Flow, _ *http.Request) (checkout.State, error) {
		return flow.Cancel(ctx)
	})
}
