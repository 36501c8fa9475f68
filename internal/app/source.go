package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"tradingSignalBot/internal/domain"
	"tradingSignalBot/internal/metrics"
	"tradingSignalBot/internal/ports"
	"tradingSignalBot/internal/strategy"
)

// Random prices are drawn in cents from [minRandomCents, maxRandomCents).
const (
	minRandomCents = 10_000_00
	maxRandomCents = 60_000_00
)

// RandomSource synthesizes buy/sell signals without touching the exchange.
// It is meant for UI work when no market data is reachable.
type RandomSource struct {
	defaultSymbol   string
	defaultInterval domain.Interval
	metrics         *metrics.Metrics

	mu  sync.Mutex
	rng *rand.Rand
}

var _ ports.SignalSource = (*RandomSource)(nil)

// NewRandomSource creates a source seeded with seed. m may be nil.
func NewRandomSource(seed int64, defaultSymbol string, defaultInterval domain.Interval, m *metrics.Metrics) *RandomSource {
	if defaultSymbol == "" {
		defaultSymbol = DefaultSymbol
	}
	if defaultInterval == "" {
		defaultInterval = DefaultInterval
	}
	return &RandomSource{
		defaultSymbol:   strings.ToUpper(defaultSymbol),
		defaultInterval: defaultInterval,
		metrics:         m,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// GetSignal returns a random price with a random buy or sell and levels from the ±2% rule.
func (r *RandomSource) GetSignal(ctx context.Context, symbol, interval string) (*domain.SignalResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = r.defaultSymbol
	}
	iv := domain.Interval(strings.TrimSpace(interval))
	if iv == "" {
		iv = r.defaultInterval
	}
	if !iv.IsValid() {
		return nil, fmt.Errorf("%w: %q, supported: %v", ports.ErrInvalidInterval, iv, domain.SupportedIntervals())
	}

	r.mu.Lock()
	cents := minRandomCents + r.rng.Int63n(maxRandomCents-minRandomCents)
	sig := domain.SignalBuy
	if r.rng.Intn(2) == 1 {
		sig = domain.SignalSell
	}
	r.mu.Unlock()

	price := decimal.New(cents, -strategy.PricePlaces)
	sl, tp := strategy.Levels(sig, price)
	if r.metrics != nil {
		r.metrics.SignalsTotal.WithLabelValues(string(sig), "random").Inc()
	}

	return &domain.SignalResponse{
		Symbol:       symbol,
		Interval:     iv,
		CurrentPrice: price,
		Signal:       sig,
		StopLoss:     sl,
		TakeProfit:   tp,
	}, nil
}
