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
	"github.com/mwarner/loginguard/internal/config"
	"github.com/mwarner/loginguard/internal/frontend"
	"github.com/mwarner/loginguard/internal/guard"
	"github.com/mwarner/loginguard/internal/metrics"
	middlewareCustom "github.com/mwarner/loginguard/internal/middleware"
)

// Demo credentials for the portal. A real deployment plugs in its own user
// store; only the decision engine integration matters here.
var demoUsers = map[string]string{
	"alice": "password123",
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFrontend()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("env", cfg.Env),
		slog.String("guard_url", cfg.GuardURL))

	creds, err := frontend.NewCredentialStore(demoUsers)
	if err != nil {
		logger.Error("failed to build credential store", slog.Any("error", err))
		os.Exit(1)
	}

	metrics.RegisterFrontend()

	guardClient := guard.NewClient(cfg.GuardURL, cfg.GuardTimeout, logger)
	challenges := frontend.NewChallengeManager(cfg.ChallengeSecret)
	loginHandler := frontend.NewLoginHandler(guardClient, challenges, creds, nil, logger, "portal")

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	router.Get("/login", loginHandler.Login)
	router.Post("/login", loginHandler.Login)
	router.Get("/healthz", loginHandler.Health)
	router.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("starting login portal", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
