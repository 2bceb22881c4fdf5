package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/kapok/customer-service/internal/api/http"
	"github.com/kapok/customer-service/internal/api/http/handlers"
	"github.com/kapok/customer-service/internal/broker"
	"github.com/kapok/customer-service/internal/config"
	"github.com/kapok/customer-service/internal/observability"
	"github.com/kapok/customer-service/internal/persistence"
	"github.com/kapok/customer-service/internal/repository"
	"github.com/kapok/customer-service/internal/service"
	"github.com/kapok/customer-service/internal/worker"
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

	if err := cfg.Broker.RequireNetworked(); err != nil {
		logger.Fatal("unsupported broker driver for the notification service", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("notification service requires POSTGRES_DSN")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	consumer, closeConsumer, err := broker.NewConsumer(cfg.Broker, nil, logger)
	if err != nil {
		logger.Fatal("failed to init notification consumer", zap.Error(err), zap.String("driver", cfg.Broker.Driver))
	}
	defer closeConsumer()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(pool), logger, metrics)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{"postgres": pg}),
		Gatherer: registry,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.StartNotificationWorker(gctx, consumer, notifications, cfg.Broker, logger)
	})
	g.Go(func() error {
		return httptransport.Serve(gctx, app, cfg.App.Addr(), logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("notification service stopped", zap.Error(err))
	}
}
