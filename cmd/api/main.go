package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/routes"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/assignment"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/catalog"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/directory"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/items"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/ledger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/views"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/config"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/logger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/metrics"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/migrate"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/outbox"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	itemService, err := items.NewService(items.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	directoryRepo := directory.NewRepository(dbClient.DB())
	directoryService, err := directory.NewService(directoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create directory service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	assignmentEngine, err := assignment.NewService(assignment.Params{
		DB:              dbClient,
		Items:           itemService,
		Catalog:         catalogService,
		Ledger:          ledgerService,
		Directory:       directoryService,
		Outbox:          outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Logger:          logg,
		Metrics:         metrics.NewAssignmentMetrics(prometheus.DefaultRegisterer),
		ConflictRetries: cfg.Assignment.ConflictRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create assignment engine", err)
		os.Exit(1)
	}

	viewService, err := views.NewService(itemService, ledgerService, catalogService, directoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create view service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, routes.Services{
			Catalog:    catalogService,
			Items:      itemService,
			Directory:  directoryService,
			Assignment: assignmentEngine,
			Views:      viewService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
