package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradingSignalBot/internal/domain"
	"tradingSignalBot/internal/metrics"
	"tradingSignalBot/internal/ports"
	"tradingSignalBot/internal/strategy"
)

const (
	DefaultSymbol   = "BTCUSDT"
	DefaultInterval = domain.Interval1h
	DefaultLimit    = 50
)

// ServiceConfig holds the query defaults of SignalService.
type ServiceConfig struct {
	DefaultSymbol   string
	DefaultInterval domain.Interval
	CandleLimit     int
	UpstreamTimeout time.Duration // zero disables the per-call deadline
}

// SignalService answers signal queries from recent market data.
type SignalService struct {
	cfg      ServiceConfig
	logger   ports.Logger
	provider ports.MarketDataProvider
	metrics  *metrics.Metrics
}

var _ ports.SignalSource = (*SignalService)(nil)

// NewSignalService creates a new query service. m may be nil.
func NewSignalService(cfg ServiceConfig, logger ports.Logger, provider ports.MarketDataProvider, m *metrics.Metrics) (*SignalService, error) {
	if logger == nil || provider == nil {
		return nil, fmt.Errorf("missing required dependencies for SignalService")
	}
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = DefaultSymbol
	}
	if cfg.DefaultInterval == "" {
		cfg.DefaultInterval = DefaultInterval
	}
	if !cfg.DefaultInterval.IsValid() {
		return nil, fmt.Errorf("%w: default interval %q", ports.ErrInvalidInterval, cfg.DefaultInterval)
	}
	if cfg.CandleLimit == 0 {
		cfg.CandleLimit = DefaultLimit
	}
	if cfg.CandleLimit < 0 {
		return nil, fmt.Errorf("candle limit must be positive")
	}
	cfg.DefaultSymbol = strings.ToUpper(cfg.DefaultSymbol)

	return &SignalService{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		metrics:  m,
	}, nil
}

// GetSignal fetches the most recent candles for symbol and interval and computes a signal.
// Empty arguments fall back to the configured defaults. An unsupported interval is
// rejected with ports.ErrInvalidInterval before the provider is contacted.
func (s *SignalService) GetSignal(ctx context.Context, symbol, interval string) (*domain.SignalResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = s.cfg.DefaultSymbol
	}
	iv := domain.Interval(strings.TrimSpace(interval))
	if iv == "" {
		iv = s.cfg.DefaultInterval
	}
	if !iv.IsValid() {
		s.countError("invalid_interval")
		return nil, fmt.Errorf("%w: %q, supported: %v", ports.ErrInvalidInterval, iv, domain.SupportedIntervals())
	}

	fields := ports.Fields{"symbol": symbol, "interval": string(iv)}

	fetchCtx := ctx
	if s.cfg.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
		defer cancel()
	}

	start := time.Now()
	klines, err := s.provider.GetKlines(fetchCtx, symbol, string(iv), s.cfg.CandleLimit)
	if s.metrics != nil {
		s.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.countError("upstream")
		s.logger.Error(ctx, err, "Failed to fetch klines", fields)
		return nil, fmt.Errorf("%w: fetching klines for %s %s: %w", ports.ErrUpstream, symbol, iv, err)
	}

	ev, err := strategy.Evaluate(ctx, klines)
	if err != nil {
		s.countError("calculation")
		s.logger.Error(ctx, err, "Failed to calculate signal", fields)
		return nil, fmt.Errorf("calculating signal for %s %s: %w", symbol, iv, err)
	}

	resp := &domain.SignalResponse{
		Symbol:       symbol,
		Interval:     iv,
		CurrentPrice: strategy.RoundPrice(ev.CurrentPrice),
		Signal:       ev.Signal,
		StopLoss:     ev.StopLoss,
		TakeProfit:   ev.TakeProfit,
	}
	if s.metrics != nil {
		s.metrics.SignalsTotal.WithLabelValues(string(resp.Signal), "live").Inc()
	}

	fields["signal"] = string(resp.Signal)
	fields["currentPrice"] = resp.CurrentPrice.StringFixed(strategy.PricePlaces)
	fields["average"] = ev.AveragePrice.StringFixed(4)
	fields["samples"] = ev.Samples
	s.logger.Debug(ctx, "Signal calculated", fields)
	return resp, nil
}

func (s *SignalService) countError(kind string) {
	if s.metrics != nil {
		s.metrics.QueryErrorsTotal.WithLabelValues(kind).Inc()
	}
}
