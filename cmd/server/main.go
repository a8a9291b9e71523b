package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"github.com/ENACT/enact/internal/advisor"
	"github.com/ENACT/enact/internal/aggregator"
	"github.com/ENACT/enact/internal/api"
	"github.com/ENACT/enact/internal/auth"
	"github.com/ENACT/enact/internal/codecarbon"
	"github.com/ENACT/enact/internal/config"
	"github.com/ENACT/enact/internal/emissionlog"
	"github.com/ENACT/enact/internal/emissions"
	"github.com/ENACT/enact/internal/estimator"
	"github.com/ENACT/enact/internal/logging"
	"github.com/ENACT/enact/internal/metrics"
	"github.com/ENACT/enact/internal/models"
	"github.com/ENACT/enact/internal/server"
	"github.com/ENACT/enact/internal/sysinfo"
	"github.com/ENACT/enact/internal/tracker"
	"log/slog"
)

func main() {
	// Local development reads a .env file; absence is fine in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting ENACT")

	store, err := emissionlog.NewStore(cfg.Storage.LogDir, logger)
	if err != nil {
		logger.Error("failed to open emission log store", "dir", cfg.Storage.LogDir, "error", err)
		os.Exit(1)
	}
	logger.Info("emission log store ready", "dir", cfg.Storage.LogDir)

	reader := sysinfo.NewReader(logger)

	// Measurement-backed estimation is optional; the engine falls back to
	// benchmarks whenever it is disabled or unreachable.
	var provider estimator.EnhancedProvider
	if cfg.CodeCarbon.Enabled {
		ccCfg := codecarbon.DefaultConfig()
		ccCfg.Enabled = true
		ccCfg.MeasurementURL = cfg.CodeCarbon.MeasurementURL
		provider = codecarbon.NewService(ccCfg, logger)
		logger.Info("codecarbon estimation enabled", "measurement_url", ccCfg.MeasurementURL)
	}

	engine := estimator.NewEngine(reader, provider, cfg.Estimation.CountryCode, cfg.Estimation.GridIntensityOverride, logger)
	logger.Info("estimation engine ready",
		"country", cfg.Estimation.CountryCode,
		"grid_intensity_g_per_kwh", engine.GridIntensity())

	var generator advisor.Generator
	advisorCfg := advisor.ConfigFromEnv()
	openaiGenerator, err := advisor.NewOpenAIGenerator(advisorCfg, logger)
	if err != nil {
		logger.Warn("advisory generator unavailable, alerts will use local fallback text", "error", err)
	} else {
		generator = openaiGenerator
		logger.Info("advisory generator ready", "models", advisorCfg.Models)
	}

	monitor := aggregator.NewMonitor(models.ThresholdConfig{
		DailyLimitGrams:  cfg.Thresholds.DailyLimitGrams,
		WeeklyLimitGrams: cfg.Thresholds.WeeklyLimitGrams,
	}, generator, logger)

	agg := aggregator.New(store, logger)
	manager := emissions.NewManager(engine, store, agg, monitor, logger)

	collector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	manager.SetMetrics(collector)

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	logger.Info("setting up REST API")
	if err := api.SetupRoutes(mux, manager, reader, authConfig, logger); err != nil {
		logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	// Background sampler feeds the same pipeline as the public API.
	var activityTracker *tracker.Tracker
	if cfg.Tracker.Enabled {
		var inspector tracker.Inspector = tracker.Disabled{}
		if xdo, err := tracker.NewXdotoolInspector(); err != nil {
			logger.Warn("window inspection unavailable, sampling as idle", "error", err)
		} else {
			inspector = xdo
		}

		activityTracker = tracker.New(inspector, tracker.NewManagerSubmitter(manager),
			reader, cfg.Tracker.PollInterval, cfg.Tracker.IdleThreshold, logger)
		activityTracker.SetMetrics(collector)
		activityTracker.Start(context.Background())
	} else {
		logger.Info("activity tracker disabled")
	}

	handler := gorilla.CORS(
		gorilla.AllowedOrigins([]string{"*"}),
		gorilla.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(collector.InstrumentHandler(mux))
	handler = gorilla.LoggingHandler(os.Stdout, handler)

	srv := server.New(cfg.Server, logger, handler)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("ENACT started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if activityTracker != nil {
		activityTracker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
