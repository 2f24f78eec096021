package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodyzone-backend/api/responses"
	"github.com/angelmondragon/foodyzone-backend/api/validators"
	"github.com/angelmondragon/foodyzone-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
)

// MenuList returns the menu, optionally filtered by ?category=.
func MenuList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		items, err := svc.ListMenu(r.Context(), validators.QueryString(r, "category", 32))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// MenuItemDetail returns one menu item with its purchasable price.
func MenuItemDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id, err := validators.PathParam(r, "productId", 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetMenuItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, menuItemResponse{
			MenuItem:  item,
			UnitPrice: product.UnitPrice.StringFixed(2),
		})
	}
}

type menuItemResponse struct {
	catalog.MenuItem
	UnitPrice string `json:"unit_price"`
}
