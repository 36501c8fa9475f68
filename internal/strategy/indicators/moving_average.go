package indicators

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"tradingSignalBot/internal/domain"
)

// ErrNotEnoughData is returned when fewer klines than the period are supplied.
var ErrNotEnoughData = errors.New("not enough data")

// ErrInvalidPrice is returned for NaN, infinite or negative close prices.
var ErrInvalidPrice = errors.New("invalid close price")

// SimpleMovingAverage computes the arithmetic mean of close prices.
type SimpleMovingAverage struct {
	BaseIndicator
}

var _ Indicator = (*SimpleMovingAverage)(nil)

// NewSimpleMovingAverage creates an SMA over the last period klines.
// period 0 averages the whole window passed to Calculate.
func NewSimpleMovingAverage(period int) *SimpleMovingAverage {
	if period < 0 {
		period = 0
	}
	return &SimpleMovingAverage{BaseIndicator: BaseIndicator{Config: IndicatorConfig{Period: period}}}
}

// Name returns the name of the indicator
func (m *SimpleMovingAverage) Name() string {
	if m.Config.Period == 0 {
		return "SMA"
	}
	return fmt.Sprintf("SMA_%d", m.Config.Period)
}

// Calculate returns the simple moving average of the closes.
func (m *SimpleMovingAverage) Calculate(ctx context.Context, klines []*domain.Kline) (decimal.Decimal, error) {
	sum, n, err := m.Sum(klines)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Div(decimal.NewFromInt(int64(n))), nil
}

// Sum returns the exact decimal sum of the closes in the indicator window and the window size.
// Callers comparing a price against the average can use price*n vs sum to avoid division error.
func (m *SimpleMovingAverage) Sum(klines []*domain.Kline) (decimal.Decimal, int, error) {
	window, err := m.window(klines)
	if err != nil {
		return decimal.Zero, 0, err
	}

	total := decimal.Zero
	for _, k := range window {
		price, err := ClosePrice(k)
		if err != nil {
			return decimal.Zero, 0, err
		}
		total = total.Add(price)
	}
	return total, len(window), nil
}

func (m *SimpleMovingAverage) window(klines []*domain.Kline) ([]*domain.Kline, error) {
	required := m.RequiredDataPoints()
	if len(klines) < required {
		return nil, fmt.Errorf("%w: have %d klines, %s needs %d", ErrNotEnoughData, len(klines), m.Name(), required)
	}
	if m.Config.Period == 0 {
		return klines, nil
	}
	return klines[len(klines)-m.Config.Period:], nil
}

// ClosePrice converts a kline close to a decimal, rejecting values that cannot be a price.
func ClosePrice(k *domain.Kline) (decimal.Decimal, error) {
	if k == nil {
		return decimal.Zero, fmt.Errorf("%w: nil kline", ErrInvalidPrice)
	}
	if math.IsNaN(k.Close) || math.IsInf(k.Close, 0) || k.Close < 0 {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidPrice, k.Close)
	}
	return decimal.NewFromFloat(k.Close), nil
}
