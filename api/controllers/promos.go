package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodyzone-backend/api/responses"
	"github.com/angelmondragon/foodyzone-backend/api/validators"
	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
)

// PromoLookup reports the discount a promo code grants without touching any
// cart.
func PromoLookup(resolver promos.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo registry unavailable"))
			return
		}

		code, err := validators.PathParam(r, "code", 32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pct, err := resolver.Resolve(code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos.Code{Code: promos.Normalize(code), DiscountPercent: pct})
	}
}
