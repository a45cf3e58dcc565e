package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajesharora27/dap-sub001/internal/app"
	"github.com/rajesharora27/dap-sub001/internal/authz"
	"github.com/rajesharora27/dap-sub001/internal/catalog"
	"github.com/rajesharora27/dap-sub001/internal/identity"
	"github.com/rajesharora27/dap-sub001/internal/observability"
	"github.com/rajesharora27/dap-sub001/internal/platform/cache"
	"github.com/rajesharora27/dap-sub001/internal/platform/db"
	"github.com/rajesharora27/dap-sub001/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "dap_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	userRepo := identity.NewRepository(dbpool)

	policy := authz.Policy{}
	if names := cfg.DefaultReadRoleNames(); len(names) > 0 {
		policy.DefaultLevels = make(map[string]authz.Level, len(names))
		for _, name := range names {
			policy.DefaultLevels[name] = authz.LevelRead
		}
	}

	metrics := observability.NewMetrics()

	authzStore := authz.NewPGStore(dbpool)
	authzService := authz.NewService(authzStore, policy)
	authzGuard := authz.Middleware{Service: authzService, Logger: logger}
	authzHandler := authz.NewHandler(logger, authzService, metrics)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, authzService)
	catalogHandler := catalog.NewHandler(logger, catalogService, authzGuard)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		Users:          userRepo,
		AuthzHandler:   authzHandler,
		CatalogHandler: catalogHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
