package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/kapok/customer-service/internal/api/http"
	"github.com/kapok/customer-service/internal/api/http/handlers"
	"github.com/kapok/customer-service/internal/auth"
	"github.com/kapok/customer-service/internal/broker"
	"github.com/kapok/customer-service/internal/config"
	"github.com/kapok/customer-service/internal/events"
	"github.com/kapok/customer-service/internal/observability"
	"github.com/kapok/customer-service/internal/persistence"
	"github.com/kapok/customer-service/internal/repository"
	"github.com/kapok/customer-service/internal/service"
	"github.com/kapok/customer-service/internal/worker"
	"github.com/kapok/customer-service/pkg/fraudclient"
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

	if pg.PoolHandle() != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	readiness := map[string]handlers.Pinger{}
	if redis.Enabled() {
		readiness["redis"] = redis
	}
	var customers repository.CustomerRepository
	if pool := pg.PoolHandle(); pool != nil {
		customers = repository.NewCustomerRepository(pool)
		readiness["postgres"] = pg
	} else {
		logger.Warn("using in-memory customer store")
		customers = repository.NewInMemoryCustomerRepository()
	}
	customers = repository.NewCachedCustomerRepository(customers, redis.Client, cfg.Redis.CustomerTTL(), logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	if cfg.Broker.Driver == config.BrokerDriverMemory {
		var notifications repository.NotificationRepository = repository.NewInMemoryNotificationRepository()
		if pool := pg.PoolHandle(); pool != nil {
			notifications = repository.NewNotificationRepository(pool)
		}
		worker.BindInProcessNotifications(dispatcher,
			service.NewNotificationService(notifications, logger, metrics), cfg.Broker, logger)
	}

	publisher, closePublisher, err := broker.NewPublisher(cfg.Broker, dispatcher, logger)
	if err != nil {
		logger.Fatal("failed to init notification publisher", zap.Error(err), zap.String("driver", cfg.Broker.Driver))
	}
	defer closePublisher()

	tokens := auth.NewTokenManager(cfg.Auth.ServiceSecret, cfg.Auth.ServiceTokenTTLMinutes)
	verifier := fraudclient.NewClient(cfg.Fraud.BaseURL, tokens, cfg.Fraud.VerifierTimeout())

	registration := service.NewRegistrationService(service.RegistrationDependencies{
		Store:           customers,
		Verifier:        verifier,
		Publisher:       publisher,
		Logger:          logger,
		Metrics:         metrics,
		Exchange:        cfg.Broker.Exchange,
		RoutingKey:      cfg.Broker.RoutingKey,
		VerifierTimeout: cfg.Fraud.VerifierTimeout(),
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Customers: handlers.NewCustomersHandler(registration, service.NewCustomerService(customers)),
		Gatherer:  registry,
	})

	if err := httptransport.Serve(ctx, app, cfg.App.Addr(), logger); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}
