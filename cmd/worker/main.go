package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/fulfillz-backend/internal/consumers/orderevents"
	"github.com/angelmondragon/fulfillz-backend/internal/inventory"
	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	"github.com/angelmondragon/fulfillz-backend/internal/saga"
	"github.com/angelmondragon/fulfillz-backend/pkg/config"
	"github.com/angelmondragon/fulfillz-backend/pkg/db"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/angelmondragon/fulfillz-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillz-backend/pkg/migrate"
	"github.com/angelmondragon/fulfillz-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillz-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	reservationService, err := reservations.NewService(
		reservations.NewRepository(dbClient.DB()), inventoryService, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	registry := saga.NewRegistry()
	pricing := saga.NewPricing(cfg.Saga)
	payments := saga.NewLogProvider(logg)

	if err := saga.RegisterOrderCreation(registry, saga.CreationDeps{
		Orders:         orderService,
		Reservations:   reservationService,
		Pricing:        pricing,
		Payments:       payments,
		PaymentTimeout: cfg.Saga.PaymentProviderTimeout,
	}); err != nil {
		logg.Error(context.Background(), "failed to register order creation saga", err)
		os.Exit(1)
	}
	if err := saga.RegisterOrderCancellation(registry, saga.CancellationDeps{
		Orders:         orderService,
		Reservations:   reservationService,
		Payments:       payments,
		PaymentTimeout: cfg.Saga.PaymentProviderTimeout,
	}); err != nil {
		logg.Error(context.Background(), "failed to register order cancellation saga", err)
		os.Exit(1)
	}

	sagaMetrics := metrics.NewSagaMetrics(prometheus.DefaultRegisterer)
	orchestrator, err := saga.NewOrchestrator(
		registry, saga.NewRepository(dbClient.DB()), dbClient, outboxService, sagaMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create saga orchestrator", err)
		os.Exit(1)
	}

	consumer, err := orderevents.NewConsumer(orchestrator, reservationService, orderService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order events consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting order events worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
