package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmercado-dev/shopforge-backend/api/controllers"
	"github.com/dmercado-dev/shopforge-backend/api/middleware"
	"github.com/dmercado-dev/shopforge-backend/internal/attribution"
	"github.com/dmercado-dev/shopforge-backend/internal/cart"
	"github.com/dmercado-dev/shopforge-backend/internal/catalog"
	"github.com/dmercado-dev/shopforge-backend/internal/checkout"
	"github.com/dmercado-dev/shopforge-backend/internal/customers"
	"github.com/dmercado-dev/shopforge-backend/internal/discount"
	"github.com/dmercado-dev/shopforge-backend/internal/orders"
	"github.com/dmercado-dev/shopforge-backend/internal/shipping"
	"github.com/dmercado-dev/shopforge-backend/internal/tax"
	"github.com/dmercado-dev/shopforge-backend/pkg/config"
	"github.com/dmercado-dev/shopforge-backend/pkg/db"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/metrics"
	"github.com/dmercado-dev/shopforge-backend/pkg/redis"
)

// Deps carries the process-level dependencies the router assembles services
// from.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client
}

// New assembles every repository, service, and controller and returns the
// HTTP handler.
func New(deps Deps) (http.Handler, error) {
	if deps.Config == nil || deps.Logger == nil || deps.DB == nil {
		return nil, fmt.Errorf("config, logger, and db are required")
	}
	logg := deps.Logger
	gdb := deps.DB.DB()

	cartRepo := cart.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	customerRepo := customers.NewRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	discountRepo := discount.NewRepository(gdb)
	taxRepo := tax.NewRepository(gdb)
	shippingRepo := shipping.NewRepository(gdb)

	engine, err := discount.NewEngine(discountRepo)
	if err != nil {
		return nil, err
	}
	resolver, err := tax.NewResolver(taxRepo)
	if err != nil {
		return nil, err
	}
	calculator, err := shipping.NewCalculator(shippingRepo)
	if err != nil {
		return nil, err
	}
	notifier, err := attribution.NewLogNotifier(logg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	cartService, err := cart.NewService(cartRepo, catalogRepo, customerRepo, engine, resolver, calculator, logg, deps.Config.Checkout)
	if err != nil {
		return nil, err
	}
	checkoutService, err := checkout.NewService(deps.DB, cartRepo, orderRepo, customerRepo, catalogRepo,
		discountRepo, taxRepo, shippingRepo, notifier, checkoutMetrics, logg, deps.Config.Checkout)
	if err != nil {
		return nil, err
	}
	ordersService, err := orders.NewService(deps.DB, orderRepo, catalogRepo, checkoutMetrics, logg)
	if err != nil {
		return nil, err
	}

	cartController, err := controllers.NewCartController(cartService, logg)
	if err != nil {
		return nil, err
	}
	checkoutController, err := controllers.NewCheckoutController(checkoutService, logg)
	if err != nil {
		return nil, err
	}
	ordersController, err := controllers.NewOrdersController(ordersService, logg)
	if err != nil {
		return nil, err
	}
	shippingController, err := controllers.NewShippingController(calculator, cartService, logg)
	if err != nil {
		return nil, err
	}
	discountsController, err := controllers.NewDiscountsController(engine, logg)
	if err != nil {
		return nil, err
	}
	var idempotencyStore redis.IdempotencyStore
	var redisPinger controllers.Pinger
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		redisPinger = deps.Redis
	}
	healthController := controllers.NewHealthController(deps.DB, redisPinger, logg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))

	r.Get("/ping", healthController.Ping)
	r.Get("/healthz", healthController.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant(deps.Config.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartController.Get)
			r.Post("/items", cartController.AddItem)
			r.Patch("/items/{itemID}", cartController.UpdateItem)
			r.Delete("/items/{itemID}", cartController.RemoveItem)
			r.Delete("/items", cartController.Clear)
			r.Post("/discount", cartController.ApplyDiscount)
			r.Delete("/discount", cartController.RemoveDiscount)
			r.Post("/totals", cartController.Totals)
		})

		r.With(middleware.Idempotency(idempotencyStore, logg, "checkout")).
			Post("/checkout", checkoutController.Execute)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersController.List)
			r.Get("/{orderID}", ordersController.Get)
			r.Patch("/{orderID}/status", ordersController.UpdateStatus)
			r.With(middleware.Idempotency(idempotencyStore, logg, "order-cancel")).
				Post("/{orderID}/cancel", ordersController.Cancel)
			r.With(middleware.Idempotency(idempotencyStore, logg, "order-refund")).
				Post("/{orderID}/refund", ordersController.Refund)
			r.Post("/{orderID}/notes", ordersController.AppendNote)
		})

		r.Get("/shipping/options", shippingController.Options)
		r.Get("/discounts/best", discountsController.Best)
	})

	return r, nil
}
