package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/kapok/customer-service/internal/api/http"
	"github.com/kapok/customer-service/internal/api/http/handlers"
	"github.com/kapok/customer-service/internal/auth"
	"github.com/kapok/customer-service/internal/config"
	"github.com/kapok/customer-service/internal/observability"
	"github.com/kapok/customer-service/internal/persistence"
	"github.com/kapok/customer-service/internal/repository"
	"github.com/kapok/customer-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("fraud service requires POSTGRES_DSN")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	fraud := service.NewFraudService(repository.NewFraudCheckRepository(pool), cfg.Fraud.FlaggedIDs, logger)
	tokens := auth.NewTokenManager(cfg.Auth.ServiceSecret, cfg.Auth.ServiceTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{"postgres": pg}),
		Fraud:       handlers.NewFraudHandler(fraud),
		ServiceAuth: auth.NewServiceAuthMiddleware(tokens),
		Gatherer:    registry,
	})

	if err := httptransport.Serve(ctx, app, cfg.App.Addr(), logger); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}
