package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradingSignalBot/config"
	"tradingSignalBot/internal/adapters/binanceclient"
	"tradingSignalBot/internal/adapters/httpapi"
	"tradingSignalBot/internal/adapters/logger"
	"tradingSignalBot/internal/app"
	"tradingSignalBot/internal/metrics"
	"tradingSignalBot/internal/ports"
	"tradingSignalBot/internal/risk"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	appLogger.Info(ctx, "Logger initialized", ports.Fields{"level": cfg.LogLevel.String()})

	m := metrics.New()

	// 3. Initialize Market Data Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Market:     binanceclient.Market(cfg.Market),
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		os.Exit(1)
	}

	// 4. Initialize Signal Service
	signalService, err := app.NewSignalService(app.ServiceConfig{
		DefaultSymbol:   cfg.DefaultSymbol,
		DefaultInterval: cfg.DefaultInterval,
		CandleLimit:     cfg.CandleLimit,
		UpstreamTimeout: cfg.UpstreamTimeout,
	}, appLogger, binanceClient, m)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal service")
		os.Exit(1)
	}

	// 5. Initialize Publisher
	var source ports.SignalSource = signalService
	if cfg.PublishSource == config.SourceRandom {
		source = app.NewRandomSource(time.Now().UnixNano(), cfg.DefaultSymbol, cfg.DefaultInterval, m)
		appLogger.Warn(ctx, "Publisher is sending random signals")
	}
	publisher, err := app.NewPublisher(app.PublisherConfig{Period: cfg.PublishInterval}, appLogger, source, m)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize publisher")
		os.Exit(1)
	}

	// 6. Initialize HTTP Server
	api, err := httpapi.NewServer(httpapi.Deps{
		Logger:    appLogger,
		Signals:   signalService,
		Publisher: publisher,
		Risk:      risk.NewRiskManager(risk.RiskConfig{}),
		Health:    binanceClient,
		Metrics:   m,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize HTTP server")
		os.Exit(1)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Serve until a shutdown signal arrives
	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, "HTTP server listening", ports.Fields{
			"addr":    cfg.HTTPAddr,
			"market":  string(cfg.Market),
			"source":  string(cfg.PublishSource),
			"testnet": cfg.IsTestnet,
		})
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(ctx, err, "HTTP server failed")
		}
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "Error shutting down HTTP server")
	}
	// Upgraded connections are not tracked by http.Server.
	if err := publisher.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "Error shutting down publisher")
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
