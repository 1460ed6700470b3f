package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"unihr/internal/auth"
	"unihr/internal/db"
	"unihr/internal/domain/authz"
	"unihr/internal/domain/directory"
	"unihr/internal/domain/requests"
	"unihr/internal/domain/training"
	"unihr/internal/platform/config"
	"unihr/internal/platform/metrics"
	"unihr/internal/transport/http/api"
	authhandler "unihr/internal/transport/http/handlers/auth"
	directoryhandler "unihr/internal/transport/http/handlers/directory"
	requestshandler "unihr/internal/transport/http/handlers/requests"
	trainingshandler "unihr/internal/transport/http/handlers/trainings"
	"unihr/internal/transport/http/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		slog.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			slog.Error("seed failed", "err", err)
			os.Exit(1)
		}
	}

	collector := metrics.New()

	dirStore := directory.NewStore(pool)
	userStore := auth.NewStore(pool)
	trainingStore := training.NewPgStore(pool)
	requestStore := requests.NewPgStore(pool)

	scopes := authz.NewScopeResolver(dirStore)
	eligibility := authz.NewEligibilityChecker(dirStore)
	resolver := authz.NewResolver(dirStore)

	trainingSvc := training.NewService(trainingStore, dirStore, eligibility, cfg.CertificateDir)
	requestSvc := requests.NewService(requestStore, dirStore, resolver, collector)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logger(collector))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	r.Use(middleware.Auth(cfg.JWTSecret))

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	r.Use(limiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(req.Context()))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", middleware.GetRequestID(req.Context()))
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(req.Context()))
	})
	if cfg.MetricsEnabled {
		r.With(middleware.RequirePermission(auth.PermSystemAdmin)).Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(req.Context()))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(userStore, cfg.JWTSecret).RegisterRoutes(r)
		directoryhandler.NewHandler(dirStore, scopes).RegisterRoutes(r)
		trainingshandler.NewHandler(trainingSvc).RegisterRoutes(r)
		requestshandler.NewHandler(requestSvc).RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
}
