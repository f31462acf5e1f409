package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloomsight/bloom-engine/internal/advisory"
	"github.com/bloomsight/bloom-engine/internal/api"
	"github.com/bloomsight/bloom-engine/internal/cache"
	"github.com/bloomsight/bloom-engine/internal/config"
	"github.com/bloomsight/bloom-engine/internal/detector"
	"github.com/bloomsight/bloom-engine/internal/fusion"
	"github.com/bloomsight/bloom-engine/internal/history"
	"github.com/bloomsight/bloom-engine/internal/metrics"
	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/predictor"
	"github.com/bloomsight/bloom-engine/internal/providers"
	"github.com/bloomsight/bloom-engine/internal/service"
	"github.com/bloomsight/bloom-engine/internal/store"
	"github.com/bloomsight/bloom-engine/internal/utils"
	memcache "github.com/bloomsight/bloom-engine/pkg/cache"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting bloom-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = memcache.NewMemoryCache()
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		valkey, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable, using in-memory cache", slog.Any("error", err))
		} else {
			cacheProvider = valkey
		}
	}
	defer cacheProvider.Close()

	historyStore, err := store.NewHistoryStore(cfg.Store.HistoryDSN)
	if err != nil {
		logger.Error("failed to open history store", slog.Any("error", err))
		os.Exit(1)
	}
	defer historyStore.Close()
	modelStore := store.NewFileModelStore(cfg.Store.ModelPath)

	fusionEngine := fusion.NewEngine(
		buildProviders(cfg.Providers),
		historyStore,
		cacheProvider,
		fusion.Options{
			ProviderTimeout: cfg.Fusion.ProviderTimeout,
			RainfallBuffer:  cfg.Fusion.RainfallBuffer,
			AreaTTL:         cfg.Fusion.AreaTTL,
		},
		logger,
	)

	det := detector.New(cfg.Detector.Thresholds(), logger)
	aggregator := history.NewAggregator(historyStore, cfg.Training.MinSyntheticSamples, logger)
	trainer := predictor.NewTrainer(logger)

	pack, err := advisory.LoadPack(cfg.Advisory.PackPath, logger)
	if err != nil {
		logger.Error("failed to load advisory pack", slog.Any("error", err))
		os.Exit(1)
	}
	advisor := advisory.NewEngine(pack, cfg.Advisory.MaxCrops, logger)

	svc := service.NewBloomService(
		logger,
		fusionEngine,
		det,
		aggregator,
		trainer,
		modelStore,
		advisor,
		service.Options{
			Lookback:       time.Duration(cfg.Fusion.LookbackDays) * 24 * time.Hour,
			PublishDelay:   time.Duration(cfg.Fusion.PublishDelayDays) * 24 * time.Hour,
			MonthsBack:     cfg.Training.MonthsBack,
			IncludeWeather: cfg.Training.IncludeWeather,
			Optimize:       cfg.Training.Optimize,
		},
	)

	server := api.NewServer(cfg.Server, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("bloom-engine stopped")
}

// buildProviders assembles the provider list in fusion priority order: the
// high-resolution optical product first, its backup, the coarse frequent
// revisit one, then the dedicated rainfall and thermal feeds.
func buildProviders(cfg config.ProvidersConfig) []providers.Provider {
	return []providers.Provider{
		newOptical("optical-primary", cfg.OpticalPrimary),
		newOptical("optical-backup", cfg.OpticalBackup),
		newOptical("optical-coarse", cfg.OpticalCoarse),
		providers.NewHTTPProvider("rainfall", cfg.Rainfall.BaseURL, cfg.Rainfall.Path,
			cfg.Rainfall.ResolutionM, cfg.Rainfall.Timeout, models.MetricRainfall),
		providers.NewHTTPProvider("thermal", cfg.Thermal.BaseURL, cfg.Thermal.Path,
			cfg.Thermal.ResolutionM, cfg.Thermal.Timeout, models.MetricTemperature),
	}
}

func newOptical(name string, cfg config.OpticalProviderConfig) providers.Provider {
	supported := []models.Metric{models.MetricVegetation, models.MetricWater}
	if cfg.Pigment {
		supported = append(supported, models.MetricPigment)
	}
	return providers.NewHTTPProvider(name, cfg.BaseURL, cfg.Path, cfg.ResolutionM, cfg.Timeout, supported...)
}
