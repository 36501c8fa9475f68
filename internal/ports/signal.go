package ports

import (
	"context"

	"tradingSignalBot/internal/domain"
)

// SignalSource produces a signal response for a symbol/interval pair.
// Empty arguments select the source's defaults.
type SignalSource interface {
	GetSignal(ctx context.Context, symbol, interval string) (*domain.SignalResponse, error)
}
