package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edupredict/studentperf/internal/artifacts"
	"github.com/edupredict/studentperf/internal/monitoring"
	"github.com/edupredict/studentperf/internal/ratelimit"
	"github.com/edupredict/studentperf/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	modelsDir := getEnvOrDefault("MODELS_DIR", "./models")
	port := getEnvOrDefault("PORT", "5000")

	// One startup attempt at the Unloaded -> Loaded transition. A failed
	// load keeps the service up but answering service errors until restart.
	store := artifacts.NewStore(modelsDir)
	ctx := service.Load(store)
	if !ctx.Loaded() {
		slog.Warn("Starting without a model; run the train command first", "models_dir", modelsDir)
	}

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()
	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())

	r := service.NewRouter(ctx, appMetrics, appLogger, limiter)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port, "model_loaded", ctx.Loaded())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
