package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kapok/customer-service/internal/api/http/handlers"
	"github.com/kapok/customer-service/internal/auth"
	"github.com/kapok/customer-service/pkg/fraudclient"
)

// RouteConfig bundles dependencies for route registration. Nil handlers are not mounted.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Customers   *handlers.CustomersHandler
	Fraud       *handlers.FraudHandler
	ServiceAuth *auth.ServiceAuthMiddleware
	Gatherer    prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	if cfg.Customers != nil {
		customers := api.Group("/customers")
		customers.Post("", cfg.Customers.Register)
		customers.Get("", cfg.Customers.List)
		customers.Get("/:id", cfg.Customers.Get)
	}

	if cfg.Fraud != nil {
		fraud := api.Group("/fraud-check")
		if cfg.ServiceAuth != nil {
			fraud.Use(cfg.ServiceAuth.Handle, auth.RequireService(fraudclient.CallerName))
		}
		fraud.Get("/:customerId", cfg.Fraud.Check)
		fraud.Get("/:customerId/history", cfg.Fraud.History)
	}
}
