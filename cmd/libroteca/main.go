package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/libroteca/libroteca/internal/access"
	"github.com/libroteca/libroteca/internal/admin"
	"github.com/libroteca/libroteca/internal/app"
	"github.com/libroteca/libroteca/internal/audit"
	"github.com/libroteca/libroteca/internal/auth"
	"github.com/libroteca/libroteca/internal/books"
	"github.com/libroteca/libroteca/internal/observability"
	"github.com/libroteca/libroteca/internal/platform/cache"
	"github.com/libroteca/libroteca/internal/platform/db"
	"github.com/libroteca/libroteca/internal/requests"
	"github.com/libroteca/libroteca/internal/security"
	"github.com/libroteca/libroteca/internal/shared"
	"github.com/libroteca/libroteca/internal/users"
)

func main() {
	if shared.InTestMode() {
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
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

	sessionManager := shared.NewSessionManager(redisClient, "libroteca_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	bookRepo := books.NewRepository(dbpool)
	bookService := books.NewService(bookRepo)
	bookHandler := books.NewHandler(logger, bookService)

	requestRepo := requests.NewRepository(dbpool)
	requestService := requests.NewService(requestRepo, bookService)
	requestHandler := requests.NewHandler(logger, requestService)

	auditor := audit.NewAuditor()
	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)

	adminService := admin.NewService(logger, dbpool, userRepo, bookRepo, requestRepo, auditor)
	adminHandler := admin.NewHandler(logger, adminService, userService, bookService, requestService, auditService)

	recorder := security.NewRecorder(dbpool, logger)
	engine := access.NewEngine(access.DefaultRules())
	limiter := access.NewRateLimiter()
	gate := access.NewGate(logger, userService, engine, limiter, recorder)

	metrics := observability.NewMetrics()
	gate.SetDenialCounter(metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		Gate:            gate,
		AuthHandler:     authHandler,
		BooksHandler:    bookHandler,
		RequestsHandler: requestHandler,
		AdminHandler:    adminHandler,
		Metrics:         metrics,
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
