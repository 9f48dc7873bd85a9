package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"crypto_tracker/internal/app/provider"
	"crypto_tracker/internal/app/service"
	"crypto_tracker/internal/client"
	"crypto_tracker/internal/infrastructure/configloader"
	"crypto_tracker/internal/infrastructure/httpclient"
	"crypto_tracker/internal/infrastructure/restapi"
	"crypto_tracker/internal/pkg/logger"
	"crypto_tracker/internal/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "config/config.yml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := configloader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load configuration %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	logger.Init(zapLogger, cfg.Logging.Level)
	logger.Info("Crypto tracker starting", "config", *configPath, "storage", cfg.Storage.Driver)

	metrics.MustRegisterMetrics()
	appLogger := logger.NewSlogAdapter()

	store, closer, err := provider.NewStore(cfg.Storage, appLogger)
	if err != nil {
		logger.Fatal("Failed to open store", "driver", cfg.Storage.Driver, "error", err)
	}
	defer closer.Close()

	transport := client.NewFastHTTPTransport(
		cfg.CoinGecko.RequestTimeout(),
		cfg.CoinGecko.APIKey,
		cfg.CoinGecko.RequestsPerMinute,
		zapLogger,
	)
	gateway := httpclient.NewCoinGeckoClient(
		transport,
		cfg.CoinGecko.BaseURL,
		cfg.CoinGecko.MaxIDsPerRequest,
		cfg.CoinGecko.SearchCacheTTL(),
		zapLogger,
	)
	logger.Info("CoinGecko client initialized", "baseURL", cfg.CoinGecko.BaseURL)

	orchestrator := service.NewOrchestrator(gateway, cfg.CoinGecko.OHLCDays, appLogger)
	session := service.NewSession(service.SessionConfig{
		RefreshInterval:   cfg.Refresh.Interval(),
		SMAPeriods:        cfg.Analysis.SMAPeriods,
		PauseWhileEditing: cfg.Refresh.PauseWhileEditing,
	}, service.NewPortfolio(store, appLogger), orchestrator, appLogger)
	session.SelectOverview()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := session.Run(ctx, cfg.Refresh.Tick()); err != nil {
			logger.Error("Session loop failed", "error", err)
		}
	}()

	var srv *http.Server
	if cfg.Server.Enabled {
		if cfg.Logging.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := restapi.SetupRouter(
			restapi.NewSessionHandler(session, zapLogger),
			cfg.Server.SwaggerSpecPath,
			zapLogger.Named("HTTP"),
		)
		srv = &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("API server starting", "port", cfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("API server failed", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("API server forced to shutdown", "error", err)
		}
	}
	<-loopDone

	logger.Info("Crypto tracker stopped")
}
