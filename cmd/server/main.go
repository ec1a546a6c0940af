package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgecommerce/storefront/internal/breadcrumb"
	"github.com/forgecommerce/storefront/internal/config"
	"github.com/forgecommerce/storefront/internal/database"
	apihandlers "github.com/forgecommerce/storefront/internal/handlers/api"
	"github.com/forgecommerce/storefront/internal/middleware"
	"github.com/forgecommerce/storefront/internal/services/category"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadDev()

	// Connect to database
	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("database connected")

	// Run migrations
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations complete")

	// Initialize services
	categorySvc := category.NewService(pool, logger)
	memo := breadcrumb.NewMemo(cfg.Breadcrumb.MemoSize)
	resolver := breadcrumb.NewResolver(cfg.BreadcrumbMode(), memo)

	// Initialize handlers
	publicHandler := apihandlers.NewPublicHandler(categorySvc, logger)
	breadcrumbHandler := apihandlers.NewBreadcrumbHandler(
		categorySvc,
		resolver,
		breadcrumb.RenderOptions{HomeHref: cfg.Breadcrumb.HomePath},
		cfg.Breadcrumb.ShowOnMobile,
		logger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	publicHandler.RegisterRoutes(mux)
	breadcrumbHandler.RegisterRoutes(mux)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer limiter.Stop()

	handler := middleware.Chain(mux,
		middleware.RequestLogger(logger),
		middleware.Recover(logger),
		middleware.SecurityHeaders,
		limiter.Handler,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("storefront server starting",
			"port", cfg.Port,
			"breadcrumb_mode", resolver.Mode().String(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("storefront server: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
