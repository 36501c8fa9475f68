package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"tradingSignalBot/config"
	"tradingSignalBot/internal/adapters/binanceclient"
	"tradingSignalBot/internal/adapters/logger"
	"tradingSignalBot/internal/app"
	"tradingSignalBot/internal/domain"
	"tradingSignalBot/internal/ports"
	"tradingSignalBot/internal/utils"
)

// recordingProvider keeps the klines of the last fetch so they can be dumped.
type recordingProvider struct {
	ports.MarketDataProvider
	mu   sync.Mutex
	last []*domain.Kline
}

func (r *recordingProvider) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	klines, err := r.MarketDataProvider.GetKlines(ctx, symbol, interval, limit)
	r.mu.Lock()
	r.last = klines
	r.mu.Unlock()
	return klines, err
}

func main() {
	symbol := flag.String("symbol", "", "trading pair, defaults to DEFAULT_SYMBOL")
	interval := flag.String("interval", "", "one of 1m, 5m, 15m, 1h, 1d; defaults to DEFAULT_INTERVAL")
	csvPath := flag.String("csv", "", "also write the klines used to this CSV file")
	flag.Parse()

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
	ctx := context.Background()

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
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	provider := &recordingProvider{MarketDataProvider: binanceClient}
	svc, err := app.NewSignalService(app.ServiceConfig{
		DefaultSymbol:   cfg.DefaultSymbol,
		DefaultInterval: cfg.DefaultInterval,
		CandleLimit:     cfg.CandleLimit,
		UpstreamTimeout: cfg.UpstreamTimeout,
	}, appLogger, provider, nil)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize signal service: %v", err)
	}

	resp, err := svc.GetSignal(ctx, *symbol, *interval)
	if err != nil {
		log.Fatalf("Error calculating signal: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Fatalf("Error encoding signal: %v", err)
	}

	if *csvPath != "" {
		provider.mu.Lock()
		klines := provider.last
		provider.mu.Unlock()
		if err := utils.WriteKlinesToCSV(klines, *csvPath); err != nil {
			appLogger.Error(ctx, err, "Error writing CSV")
			log.Fatalf("Error writing CSV: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %d klines to %s\n", len(klines), *csvPath)
	}
}
