package risk

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tradingSignalBot/internal/ports"
)

const (
	amountPlaces = 2
	sizePlaces   = 4
)

var hundred = decimal.NewFromInt(100)

// RiskConfig holds limits applied to position sizing.
type RiskConfig struct {
	MaxRiskPercent  decimal.Decimal // upper bound for the risk percentage; zero means 100
	MaxPositionSize decimal.Decimal // cap on the computed size; zero means uncapped
}

// RiskManager sizes positions so that hitting the stop-loss loses a fixed share of capital.
type RiskManager struct {
	config RiskConfig
}

// PositionRequest is the input of a sizing calculation.
type PositionRequest struct {
	Capital     decimal.Decimal
	RiskPercent decimal.Decimal // e.g. 1.5 for 1.5%
	EntryPrice  decimal.Decimal
	StopLoss    decimal.Decimal
}

// PositionSize is the result of a sizing calculation.
type PositionSize struct {
	RiskAmount   decimal.Decimal // capital at risk, 2 decimals
	StopDistance decimal.Decimal // |entry - stop|
	Units        decimal.Decimal // 4 decimals
	Capped       bool            // Units was limited by MaxPositionSize
}

// NewRiskManager creates a new risk manager instance
func NewRiskManager(config RiskConfig) *RiskManager {
	if config.MaxRiskPercent.IsZero() {
		config.MaxRiskPercent = hundred
	}
	return &RiskManager{config: config}
}

// GetPositionSize returns riskAmount = capital × risk / 100 and
// units = riskAmount / |entry − stop|. A zero stop distance, which includes the
// zero levels of a hold signal, yields ports.ErrNoStopDistance.
func (r *RiskManager) GetPositionSize(ctx context.Context, req PositionRequest) (*PositionSize, error) {
	if !req.Capital.IsPositive() {
		return nil, fmt.Errorf("%w: capital must be positive", ports.ErrInvalidInput)
	}
	if !req.RiskPercent.IsPositive() || req.RiskPercent.GreaterThan(r.config.MaxRiskPercent) {
		return nil, fmt.Errorf("%w: risk percentage must be in (0, %s]", ports.ErrInvalidInput, r.config.MaxRiskPercent)
	}
	if !req.EntryPrice.IsPositive() {
		return nil, fmt.Errorf("%w: entry price must be positive", ports.ErrInvalidInput)
	}
	if req.StopLoss.IsNegative() || req.StopLoss.IsZero() {
		return nil, fmt.Errorf("%w: stop-loss is not set", ports.ErrNoStopDistance)
	}

	distance := req.EntryPrice.Sub(req.StopLoss).Abs()
	if distance.IsZero() {
		return nil, fmt.Errorf("%w: entry price equals stop-loss", ports.ErrNoStopDistance)
	}

	riskAmount := req.Capital.Mul(req.RiskPercent).Div(hundred)
	units := riskAmount.Div(distance)

	capped := false
	if r.config.MaxPositionSize.IsPositive() && units.GreaterThan(r.config.MaxPositionSize) {
		units = r.config.MaxPositionSize
		capped = true
	}

	return &PositionSize{
		RiskAmount:   riskAmount.Round(amountPlaces),
		StopDistance: distance,
		Units:        units.Round(sizePlaces),
		Capped:       capped,
	}, nil
}
