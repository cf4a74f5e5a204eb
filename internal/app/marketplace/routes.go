// Package marketplace собирает HTTP-приложение маркетплейса.
package marketplace

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/collab-deals/internal/config"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/accept"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/complete"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/create"
	deallist "github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/list"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/mine"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/read"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/search"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/deals/stats"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/health"
	messagelist "github.com/magabrotheeeer/collab-deals/internal/http/handlers/messages/list"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/messages/send"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/payment/subscriptioncreate"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/payment/subscriptionstatus"
	"github.com/magabrotheeeer/collab-deals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/collab-deals/internal/metrics"
	authservice "github.com/magabrotheeeer/collab-deals/internal/services/auth"
	"github.com/magabrotheeeer/collab-deals/internal/services/marketplace"
	paymentservice "github.com/magabrotheeeer/collab-deals/internal/services/payment"
)

// Deps — всё, что нужно маршрутам.
type Deps struct {
	Log         *slog.Logger
	Auth        *authservice.Service
	Marketplace *marketplace.Service
	Payment     *paymentservice.Service
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Limiter     *middlewarectx.ClientLimiter
	CORS        config.CORS
	Checkers    map[string]health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Log

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   d.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", paymentwebhook.SignatureHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		d.Metrics.Middleware,
	)

	r.Route("/api", func(r chi.Router) {
		// Вебхуки провайдера идут без лимита на клиента.
		r.Post("/stripe-webhook", paymentwebhook.New(logger, d.Payment).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, d.Limiter))

			// Открытые конечные точки
			r.Post("/auth/signup", register.New(logger, d.Auth).ServeHTTP)
			r.Post("/auth/login", login.New(logger, d.Auth).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))

				r.Get("/deals", deallist.New(logger, d.Marketplace).ServeHTTP)
				r.Get("/deals/mine", mine.New(logger, d.Marketplace).ServeHTTP)
				r.Get("/deals/{id}", read.New(logger, d.Marketplace).ServeHTTP)
				r.Post("/deals", create.New(logger, d.Marketplace).ServeHTTP)
				r.Post("/deals/{id}/accept", accept.New(logger, d.Marketplace).ServeHTTP)
				r.Post("/deals/{id}/complete", complete.New(logger, d.Marketplace).ServeHTTP)
				r.Get("/search", search.New(logger, d.Marketplace).ServeHTTP)
				r.Get("/stats", stats.New(logger, d.Marketplace).ServeHTTP)

				r.Get("/messages/{dealId}", messagelist.New(logger, d.Marketplace).ServeHTTP)
				r.Post("/messages/send", send.New(logger, d.Marketplace).ServeHTTP)

				r.Post("/create-payment-intent", paymentcreate.New(logger, d.Payment).ServeHTTP)
				r.Post("/create-subscription", subscriptioncreate.New(logger, d.Payment).ServeHTTP)
				r.Get("/subscription/status", subscriptionstatus.New(logger, d.Payment).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, d.Checkers).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
