package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tradelink-backend/api/controllers"
	earningcontrollers "github.com/angelmondragon/tradelink-backend/api/controllers/earnings"
	ordercontrollers "github.com/angelmondragon/tradelink-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/tradelink-backend/api/controllers/payments"
	verificationcontrollers "github.com/angelmondragon/tradelink-backend/api/controllers/verification"
	"github.com/angelmondragon/tradelink-backend/api/middleware"
	"github.com/angelmondragon/tradelink-backend/internal/delivery"
	"github.com/angelmondragon/tradelink-backend/internal/earnings"
	"github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/internal/verification"
	"github.com/angelmondragon/tradelink-backend/pkg/config"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/redis"
)

// Dependencies carries everything the router hands to controllers.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	Readiness    []controllers.Dependency
	Idempotency  redis.IdempotencyStore
	HTTPMetrics  *metrics.HTTPMetrics
	Gatherer     prometheus.Gatherer
	Orders       orders.Service
	Payments     paymentcontrollers.Confirmer
	Delivery     delivery.Service
	Earnings     earnings.Service
	Verification verification.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth/verification-codes", func(r chi.Router) {
			r.Post("/", verificationcontrollers.Issue(deps.Verification, logg))
			r.Post("/verify", verificationcontrollers.Verify(deps.Verification, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			buyers := middleware.RequireRole(logg, enums.UserRoleRetailer, enums.UserRoleConsumer)
			sellers := middleware.RequireRole(logg, enums.UserRoleWholesaler, enums.UserRoleRetailer)
			couriers := middleware.RequireRole(logg, enums.UserRoleDelivery)
			admins := middleware.RequireRole(logg, enums.UserRoleAdmin)

			r.Route("/orders", func(r chi.Router) {
				r.With(buyers, middleware.Idempotency(deps.Idempotency, cfg.Idempotency.TTL, logg)).
					Post("/", ordercontrollers.PlaceDirect(deps.Orders, logg))
				r.With(buyers).Get("/", ordercontrollers.List(deps.Orders, logg))
				r.With(sellers).Get("/selling", ordercontrollers.ListSelling(deps.Orders, logg))
				r.With(couriers).Get("/assigned", ordercontrollers.ListAssigned(deps.Orders, logg))

				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", ordercontrollers.Detail(deps.Orders, logg))
					r.With(sellers).Put("/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
					r.With(sellers).Put("/out-for-delivery", ordercontrollers.MarkOutForDelivery(deps.Orders, logg))
					r.With(couriers).Post("/request-delivery-otp", ordercontrollers.RequestDeliveryCode(deps.Delivery, logg))
					r.With(couriers).Put("/mark-delivered", ordercontrollers.MarkDelivered(deps.Delivery, logg))
					r.With(buyers).Put("/mark-received", ordercontrollers.MarkReceived(deps.Orders, logg))
				})
			})

			r.With(buyers).Post("/payments/verify-payment", paymentcontrollers.VerifyPayment(deps.Payments, logg))

			r.Route("/earnings", func(r chi.Router) {
				r.With(sellers).Get("/", earningcontrollers.List(deps.Earnings, logg))
				r.With(sellers).Get("/summary", earningcontrollers.Summary(deps.Earnings, logg))
				r.With(admins).Post("/settle", earningcontrollers.Settle(deps.Earnings, logg))
			})
		})
	})

	return r
}
