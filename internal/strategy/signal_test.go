package strategy

import (
	"context"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingSignalBot/internal/domain"
	"tradingSignalBot/internal/ports"
)

func klinesFromCloses(closes ...float64) []*domain.Kline {
	klines := make([]*domain.Kline, len(closes))
	for i, c := range closes {
		klines[i] = &domain.Kline{Close: c, IsFinal: true}
	}
	return klines
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculateSignal_Examples(t *testing.T) {
	tests := []struct {
		name       string
		closes     []float64
		wantSignal domain.Signal
		wantSL     string
		wantTP     string
		wantAvg    string
	}{
		{
			name:       "close above mean is buy",
			closes:     []float64{100, 100, 100, 100, 106},
			wantSignal: domain.SignalBuy,
			wantSL:     "103.88",
			wantTP:     "108.12",
			wantAvg:    "101.2",
		},
		{
			name:       "close below mean is sell",
			closes:     []float64{100, 100, 100, 100, 95},
			wantSignal: domain.SignalSell,
			wantSL:     "96.9",
			wantTP:     "93.1",
			wantAvg:    "99",
		},
		{
			name:       "close equal to mean is hold",
			closes:     []float64{100, 100, 100, 100, 100},
			wantSignal: domain.SignalHold,
			wantSL:     "0",
			wantTP:     "0",
			wantAvg:    "100",
		},
		{
			name:       "single candle is hold",
			closes:     []float64{42.5},
			wantSignal: domain.SignalHold,
			wantSL:     "0",
			wantTP:     "0",
			wantAvg:    "42.5",
		},
		{
			name:       "mean that floats cannot represent exactly",
			closes:     []float64{0.1, 0.3, 0.2},
			wantSignal: domain.SignalHold,
			wantSL:     "0",
			wantTP:     "0",
			wantAvg:    "0.2",
		},
		{
			name:       "rounding is half away from zero",
			closes:     []float64{1, 1.25},
			wantSignal: domain.SignalBuy,
			wantSL:     "1.23", // 1.225
			wantTP:     "1.28", // 1.275
			wantAvg:    "1.125",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Evaluate(context.Background(), klinesFromCloses(tt.closes...))
			require.NoError(t, err)

			assert.Equal(t, tt.wantSignal, ev.Signal)
			assertDecimal(t, tt.wantSL, ev.StopLoss, "stopLoss")
			assertDecimal(t, tt.wantTP, ev.TakeProfit, "takeProfit")
			assertDecimal(t, tt.wantAvg, ev.AveragePrice, "averagePrice")
			assert.Equal(t, len(tt.closes), ev.Samples)

			res, err := CalculateSignal(context.Background(), klinesFromCloses(tt.closes...))
			require.NoError(t, err)
			assert.Equal(t, ev.Signal, res.Signal)
		})
	}
}

func TestCalculateSignal_InvalidInput(t *testing.T) {
	_, err := CalculateSignal(context.Background(), nil)
	assert.ErrorIs(t, err, ports.ErrInvalidInput)

	_, err = CalculateSignal(context.Background(), []*domain.Kline{})
	assert.ErrorIs(t, err, ports.ErrInvalidInput)

	_, err = CalculateSignal(context.Background(), klinesFromCloses(100, -5))
	assert.ErrorIs(t, err, ports.ErrInvalidInput)
}

// TestCalculateSignal_Properties checks the signal/mean relation and the SL/TP bands
// on random windows of two-decimal prices, using integer cents as the oracle.
func TestCalculateSignal_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	maxDeviation := decimal.RequireFromString("0.02")
	roundingSlack := decimal.RequireFromString("0.005")

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(50)
		cents := make([]int64, n)
		closes := make([]float64, n)
		base := int64(1 + rng.Intn(10_000_000))
		for j := range cents {
			if i%5 == 0 {
				cents[j] = base // flat window forces hold
			} else {
				cents[j] = base + int64(rng.Intn(2001)-1000)
				if cents[j] < 0 {
					cents[j] = 0
				}
			}
			closes[j] = float64(cents[j]) / 100
		}

		var sum int64
		for _, c := range cents {
			sum += c
		}
		current := cents[n-1]

		var want domain.Signal
		switch {
		case current*int64(n) > sum:
			want = domain.SignalBuy
		case current*int64(n) < sum:
			want = domain.SignalSell
		default:
			want = domain.SignalHold
		}

		ev, err := Evaluate(context.Background(), klinesFromCloses(closes...))
		require.NoError(t, err)
		require.Equal(t, want, ev.Signal, "window %v", cents)

		price := ev.CurrentPrice
		bound := price.Mul(maxDeviation).Add(roundingSlack)
		switch ev.Signal {
		case domain.SignalHold:
			assert.True(t, ev.StopLoss.IsZero())
			assert.True(t, ev.TakeProfit.IsZero())
		case domain.SignalBuy:
			assert.True(t, ev.StopLoss.LessThanOrEqual(price), "buy SL above price")
			assert.True(t, ev.TakeProfit.GreaterThanOrEqual(price), "buy TP below price")
		case domain.SignalSell:
			assert.True(t, ev.StopLoss.GreaterThanOrEqual(price), "sell SL below price")
			assert.True(t, ev.TakeProfit.LessThanOrEqual(price), "sell TP above price")
		}
		assert.True(t, ev.StopLoss.Sub(price).Abs().LessThanOrEqual(bound) || ev.Signal == domain.SignalHold)
		assert.True(t, ev.TakeProfit.Sub(price).Abs().LessThanOrEqual(bound) || ev.Signal == domain.SignalHold)
		assert.False(t, ev.StopLoss.IsNegative())
		assert.False(t, ev.TakeProfit.IsNegative())
	}
}

func TestLevels(t *testing.T) {
	price := decimal.RequireFromString("50000")

	sl, tp := Levels(domain.SignalBuy, price)
	assertDecimal(t, "49000", sl, "buy sl")
	assertDecimal(t, "51000", tp, "buy tp")

	sl, tp = Levels(domain.SignalSell, price)
	assertDecimal(t, "51000", sl, "sell sl")
	assertDecimal(t, "49000", tp, "sell tp")

	sl, tp = Levels(domain.SignalHold, price)
	assert.True(t, sl.IsZero())
	assert.True(t, tp.IsZero())
}
