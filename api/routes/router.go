package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/foodyzone-backend/api/controllers"
	"github.com/angelmondragon/foodyzone-backend/api/middleware"
	"github.com/angelmondragon/foodyzone-backend/internal/catalog"
	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	"github.com/angelmondragon/foodyzone-backend/pkg/config"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	checkoutMetrics *metrics.Checkout,
	metricsHandler http.Handler,
	menu catalog.Service,
	promoResolver promos.Resolver,
	sessionProvider controllers.SessionProvider,
	orderReader controllers.OrderReader,
	readiness ...controllers.ReadinessCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, checkoutMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if cfg.Metrics.Enabled {
		if metricsHandler == nil {
			metricsHandler = promhttp.Handler()
		}
		r.Handle(cfg.Metrics.Path, metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/menu", controllers.MenuList(menu, logg))
		r.Get("/menu/{productId}", controllers.MenuItemDetail(menu, logg))
		r.Get("/promos/{code}", controllers.PromoLookup(promoResolver, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(sessionProvider, logg))
				r.Delete("/", controllers.CartClear(sessionProvider, logg))
				r.Post("/items", controllers.CartAddItem(sessionProvider, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(sessionProvider, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(sessionProvider, logg))
				r.Post("/promo", controllers.CartApplyPromo(sessionProvider, logg))
				r.Put("/discount", controllers.CartApplyDiscount(sessionProvider, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutFetch(sessionProvider, logg))
				r.Post("/start", controllers.CheckoutStart(sessionProvider, logg))
				r.Put("/delivery", controllers.CheckoutDelivery(sessionProvider, logg))
				r.Put("/payment", controllers.CheckoutPayment(sessionProvider, logg))
				r.Post("/next", controllers.CheckoutNext(sessionProvider, logg))
				r.Post("/back", controllers.CheckoutBack(sessionProvider, logg))
				r.Post("/cancel", controllers.CheckoutCancel(sessionProvider, logg))
			})

			r.Get("/orders", controllers.OrdersList(orderReader, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(orderReader, logg))
		})
	})

	return r
}
