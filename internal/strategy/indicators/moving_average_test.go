package indicators

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"tradingSignalBot/internal/domain"
)

func TestSimpleMovingAverage_Calculate(t *testing.T) {
	now := time.Now()
	klines := []*domain.Kline{
		{OpenTime: now.Add(-4 * time.Hour), Close: 100.0},
		{OpenTime: now.Add(-3 * time.Hour), Close: 102.0},
		{OpenTime: now.Add(-2 * time.Hour), Close: 101.0},
		{OpenTime: now.Add(-1 * time.Hour), Close: 103.0},
		{OpenTime: now, Close: 104.0},
	}

	tests := []struct {
		name          string
		period        int
		klines        []*domain.Kline
		expectedValue float64
		expectError   bool
	}{
		{
			name:          "SMA over last 3",
			period:        3,
			klines:        klines,
			expectedValue: 102.666667, // (101 + 103 + 104) / 3
		},
		{
			name:          "SMA over whole window",
			period:        0,
			klines:        klines,
			expectedValue: 102.0, // (100 + 102 + 101 + 103 + 104) / 5
		},
		{
			name:        "Insufficient data",
			period:      6,
			klines:      klines,
			expectError: true,
		},
		{
			name:        "Empty window",
			period:      0,
			klines:      nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ma := NewSimpleMovingAverage(tt.period)
			value, err := ma.Calculate(context.Background(), tt.klines)

			if tt.expectError {
				if !errors.Is(err, ErrNotEnoughData) {
					t.Errorf("Expected ErrNotEnoughData, got %v", err)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			got := value.InexactFloat64()
			if math.Abs(got-tt.expectedValue) > 0.0001 {
				t.Errorf("Expected value %f, got %f", tt.expectedValue, got)
			}
		})
	}
}

func TestSimpleMovingAverage_SumIsExact(t *testing.T) {
	klines := []*domain.Kline{{Close: 0.1}, {Close: 0.2}, {Close: 0.3}}
	sum, n, err := NewSimpleMovingAverage(0).Sum(klines)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected window of 3, got %d", n)
	}
	if sum.String() != "0.6" {
		t.Errorf("Expected exact sum 0.6, got %s", sum)
	}
}

func TestSimpleMovingAverage_RejectsBadPrices(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), -1} {
		_, err := NewSimpleMovingAverage(0).Calculate(context.Background(), []*domain.Kline{{Close: 1}, {Close: bad}})
		if !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("Expected ErrInvalidPrice for %v, got %v", bad, err)
		}
	}
	_, err := NewSimpleMovingAverage(0).Calculate(context.Background(), []*domain.Kline{nil})
	if !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("Expected ErrInvalidPrice for nil kline, got %v", err)
	}
}

func TestSimpleMovingAverage_Name(t *testing.T) {
	tests := []struct {
		period   int
		expected string
	}{
		{0, "SMA"},
		{-3, "SMA"},
		{20, "SMA_20"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			ma := NewSimpleMovingAverage(tt.period)
			if name := ma.Name(); name != tt.expected {
				t.Errorf("Expected name %s, got %s", tt.expected, name)
			}
		})
	}
}

func TestSimpleMovingAverage_RequiredDataPoints(t *testing.T) {
	if got := NewSimpleMovingAverage(0).RequiredDataPoints(); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if got := NewSimpleMovingAverage(14).RequiredDataPoints(); got != 14 {
		t.Errorf("Expected 14, got %d", got)
	}
}
