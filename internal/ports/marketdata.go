package ports

import (
	"context"

	"tradingSignalBot/internal/domain"
)

// MarketDataProvider defines the market-data capability the signal service depends on.
// Implementations translate provider failures into the errors defined in this package.
type MarketDataProvider interface {
	// GetKlines retrieves the most recent klines for symbol and interval, oldest first.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)

	// Ping checks the connectivity to the provider.
	Ping(ctx context.Context) error
}
