package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payguard/upi-risk-engine/configs"
	"github.com/payguard/upi-risk-engine/internal/engine"
	"github.com/payguard/upi-risk-engine/internal/handlers"
	"github.com/payguard/upi-risk-engine/internal/services"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/middlewares"
	"github.com/payguard/upi-risk-engine/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// main initializes and runs the risk evaluation engine.
func main() {
	// Initialize global logger with default configuration
	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync() // Ensure all buffered logs are flushed on exit

	// Load configuration from environment and optional config file
	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed_to_load_config", zap.Error(err))
	}

	// Create a context that can be canceled for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the scorer implementation and its health prober
	scorer, prober := buildScorer(logger, cfg)

	monitor := engine.NewHealthMonitor(engine.HealthMonitorConfig{
		Context:  ctx,
		Logger:   logger,
		Prober:   prober,
		Interval: cfg.HealthProbeInterval,
	})
	stopMonitor := monitor.Start()

	evaluationService := services.NewEvaluationService(services.EvaluationServiceConfig{
		Logger:       logger,
		Scorer:       scorer,
		ScoreTimeout: cfg.ScorerTimeout,
	})

	// HTTP surface
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.TraceID(), middlewares.Metrics())
	api := router.Group("/api/v1")
	handlers.NewEvaluationHandler(logger, evaluationService, monitor, scorer.Name()).RegisterRoutes(api)

	server := &http.Server{Addr: cfg.ServerAddr, Handler: router}
	go func() {
		logger.Info("server_listening", zap.String("addr", cfg.ServerAddr), zap.String("scorer", scorer.Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server_failed", zap.Error(err))
		}
	}()

	// Metrics endpoint on its own listener
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", zap.Error(err))
		}
	}()

	// Handle graceful shutdown on SIGINT or SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	osSignal := <-sigChan
	logger.Info("received_shutdown_signal", zap.String("signal", osSignal.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	cancel() // Trigger context cancellation for background loops
	stopMonitor()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics_shutdown_failed", zap.Error(err))
	}
	logger.Info("service_shutdown_completed")
}

// buildScorer wires the configured RiskScorer variant. Local and simulated
// scorers have no backend, so their prober always reports healthy.
func buildScorer(logger *zap.Logger, cfg *configs.Config) (engine.RiskScorer, engine.HealthProber) {
	switch cfg.ScorerMode {
	case configs.ScorerModeRemote:
		remote := engine.NewRemoteScorer(engine.RemoteScorerConfig{
			Logger:  logger,
			BaseURL: cfg.ScorerAddr,
			Client: utils.NewHTTPClient(
				utils.WithClientTimeout(cfg.ScorerTimeout),
			),
			Timeout:         cfg.ScorerTimeout,
			RateLimitPerSec: cfg.ScorerRateLimitPerSec,
			Burst:           cfg.ScorerRequestBurst,
			MaxThrottleWait: cfg.ScorerMaxThrottleWait,
		})
		return remote, remote
	case configs.ScorerModeSimulated:
		return engine.NewSimulatedScorer(cfg.SimulatedSeed), engine.AlwaysHealthy()
	default:
		return engine.NewLocalHeuristicScorer(engine.LocalScorerConfig{Logger: logger}), engine.AlwaysHealthy()
	}
}
