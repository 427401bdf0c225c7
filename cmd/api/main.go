package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mwarner/loginguard/internal/background"
	"github.com/mwarner/loginguard/internal/classifier"
	"github.com/mwarner/loginguard/internal/config"
	"github.com/mwarner/loginguard/internal/database"
	"github.com/mwarner/loginguard/internal/features"
	"github.com/mwarner/loginguard/internal/handlers"
	"github.com/mwarner/loginguard/internal/metrics"
	middlewareCustom "github.com/mwarner/loginguard/internal/middleware"
	"github.com/mwarner/loginguard/internal/repositories"
	"github.com/mwarner/loginguard/internal/routes"
	"github.com/mwarner/loginguard/internal/services"
	pkglogger "github.com/mwarner/loginguard/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.Int("window_minutes", cfg.Risk.WindowMinutes))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	attemptRepo := repositories.NewAttemptRepository(db)
	decisionRepo := repositories.NewDecisionRepository(db)

	// Load the classifier. A missing model file degrades to allow-all;
	// a broken one refuses to start.
	scorer, err := classifier.Load(cfg.Risk.ModelPath, logger)
	if err != nil {
		logger.Error("failed to load classifier model", slog.Any("error", err))
		os.Exit(1)
	}

	metrics.Register()
	if _, allowAll := scorer.(classifier.Noop); allowAll {
		metrics.ClassifierAllowAll.Set(1)
	}

	// Initialize services
	extractor := features.NewExtractor(attemptRepo, cfg.Risk.Window())
	auditLogger := pkglogger.NewAuditLogger(logger)
	decisionService := services.NewDecisionService(
		attemptRepo,
		decisionRepo,
		extractor,
		scorer,
		db,
		logger,
		auditLogger,
		cfg.Risk.DefaultApplication,
	)

	// Initialize handlers
	decideHandler := handlers.NewDecideHandler(decisionService)
	adminHandler := handlers.NewAdminHandler(decisionService)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, decideHandler, adminHandler, cfg.Risk.AdminKey)

	router.Handle("/metrics", metrics.Handler())

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the ledger retention sweep
	var retention *background.RetentionManager
	retentionCtx, retentionCancel := context.WithCancel(context.Background())
	defer retentionCancel()
	if cfg.Risk.RetentionDays > 0 {
		retention = background.NewRetentionManager(attemptRepo, logger, cfg.Risk.Retention(), cfg.Risk.SweepInterval)
		go retention.Start(retentionCtx)
	}

	// Start server
	go func() {
		logger.Info("starting decision engine", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	retentionCancel()
	if retention != nil {
		retention.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
