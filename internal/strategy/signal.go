package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tradingSignalBot/internal/domain"
	"tradingSignalBot/internal/ports"
	"tradingSignalBot/internal/strategy/indicators"
)

// PricePlaces is the number of decimals monetary outputs are rounded to (half away from zero).
const PricePlaces = 2

var (
	lowerBand = decimal.RequireFromString("0.98")
	upperBand = decimal.RequireFromString("1.02")
)

// Evaluation is a signal result together with the prices it was derived from.
type Evaluation struct {
	domain.SignalResult
	CurrentPrice decimal.Decimal // close of the newest kline, unrounded
	AveragePrice decimal.Decimal // mean of all closes
	Samples      int
}

// Evaluate compares the newest close against the mean of all closes in klines
// (ordered oldest to newest) and derives the signal with its stop-loss and take-profit.
func Evaluate(ctx context.Context, klines []*domain.Kline) (*Evaluation, error) {
	if len(klines) == 0 {
		return nil, fmt.Errorf("%w: candle sequence is empty", ports.ErrInvalidInput)
	}

	sma := indicators.NewSimpleMovingAverage(0)
	sum, n, err := sma.Sum(klines)
	if err != nil {
		if errors.Is(err, indicators.ErrInvalidPrice) {
			return nil, fmt.Errorf("%w: %w", ports.ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("calculating %s: %w", sma.Name(), err)
	}

	current, err := indicators.ClosePrice(klines[len(klines)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidInput, err)
	}

	// current > sum/n  <=>  current*n > sum, compared without dividing.
	var signal domain.Signal
	switch current.Mul(decimal.NewFromInt(int64(n))).Cmp(sum) {
	case 1:
		signal = domain.SignalBuy
	case -1:
		signal = domain.SignalSell
	default:
		signal = domain.SignalHold
	}

	sl, tp := Levels(signal, current)
	return &Evaluation{
		SignalResult: domain.SignalResult{
			Signal:     signal,
			StopLoss:   sl,
			TakeProfit: tp,
		},
		CurrentPrice: current,
		AveragePrice: sum.Div(decimal.NewFromInt(int64(n))),
		Samples:      n,
	}, nil
}

// CalculateSignal returns only the signal, stop-loss and take-profit for klines.
func CalculateSignal(ctx context.Context, klines []*domain.Kline) (domain.SignalResult, error) {
	ev, err := Evaluate(ctx, klines)
	if err != nil {
		return domain.SignalResult{}, err
	}
	return ev.SignalResult, nil
}

// Levels returns the rounded stop-loss and take-profit for a signal at price.
// Buy keeps the stop 2% below and the target 2% above; sell mirrors it. Hold yields zero for both.
func Levels(signal domain.Signal, price decimal.Decimal) (stopLoss, takeProfit decimal.Decimal) {
	switch signal {
	case domain.SignalBuy:
		return RoundPrice(price.Mul(lowerBand)), RoundPrice(price.Mul(upperBand))
	case domain.SignalSell:
		return RoundPrice(price.Mul(upperBand)), RoundPrice(price.Mul(lowerBand))
	default:
		return decimal.Zero, decimal.Zero
	}
}

// RoundPrice rounds a monetary value to PricePlaces decimals.
func RoundPrice(v decimal.Decimal) decimal.Decimal {
	return v.Round(PricePlaces)
}
