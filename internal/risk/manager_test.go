package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tradingSignalBot/internal/ports"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGetPositionSize(t *testing.T) {
	manager := NewRiskManager(RiskConfig{})

	tests := []struct {
		name       string
		req        PositionRequest
		riskAmount string
		units      string
	}{
		{
			name:       "long stop below entry",
			req:        PositionRequest{Capital: d("10000"), RiskPercent: d("1"), EntryPrice: d("106"), StopLoss: d("103.88")},
			riskAmount: "100.00",
			units:      "47.1698",
		},
		{
			name:       "short stop above entry",
			req:        PositionRequest{Capital: d("10000"), RiskPercent: d("1"), EntryPrice: d("95"), StopLoss: d("96.90")},
			riskAmount: "100.00",
			units:      "52.6316",
		},
		{
			name:       "fractional risk",
			req:        PositionRequest{Capital: d("2500"), RiskPercent: d("0.5"), EntryPrice: d("50000"), StopLoss: d("49000")},
			riskAmount: "12.50",
			units:      "0.0125",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := manager.GetPositionSize(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got.RiskAmount.StringFixed(2) != tt.riskAmount {
				t.Errorf("Expected risk amount %s, got %s", tt.riskAmount, got.RiskAmount.StringFixed(2))
			}
			if got.Units.StringFixed(4) != tt.units {
				t.Errorf("Expected position size %s, got %s", tt.units, got.Units.StringFixed(4))
			}
			if got.Capped {
				t.Error("Expected uncapped position size")
			}
		})
	}
}

func TestGetPositionSize_NoStopDistance(t *testing.T) {
	manager := NewRiskManager(RiskConfig{})

	// Hold signals carry zero levels.
	_, err := manager.GetPositionSize(context.Background(), PositionRequest{
		Capital: d("1000"), RiskPercent: d("1"), EntryPrice: d("100"), StopLoss: decimal.Zero,
	})
	if !errors.Is(err, ports.ErrNoStopDistance) {
		t.Errorf("Expected ErrNoStopDistance for zero stop-loss, got %v", err)
	}

	_, err = manager.GetPositionSize(context.Background(), PositionRequest{
		Capital: d("1000"), RiskPercent: d("1"), EntryPrice: d("100"), StopLoss: d("100.00"),
	})
	if !errors.Is(err, ports.ErrNoStopDistance) {
		t.Errorf("Expected ErrNoStopDistance when stop equals entry, got %v", err)
	}
}

func TestGetPositionSize_InvalidInput(t *testing.T) {
	manager := NewRiskManager(RiskConfig{MaxRiskPercent: d("5")})

	valid := PositionRequest{Capital: d("1000"), RiskPercent: d("1"), EntryPrice: d("100"), StopLoss: d("98")}
	tests := []struct {
		name   string
		mutate func(r *PositionRequest)
	}{
		{"zero capital", func(r *PositionRequest) { r.Capital = decimal.Zero }},
		{"negative capital", func(r *PositionRequest) { r.Capital = d("-5") }},
		{"zero risk", func(r *PositionRequest) { r.RiskPercent = decimal.Zero }},
		{"risk above limit", func(r *PositionRequest) { r.RiskPercent = d("5.01") }},
		{"zero price", func(r *PositionRequest) { r.EntryPrice = decimal.Zero }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := manager.GetPositionSize(context.Background(), req)
			if !errors.Is(err, ports.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if _, err := manager.GetPositionSize(context.Background(), valid); err != nil {
		t.Errorf("Expected valid request to pass, got %v", err)
	}
}

func TestGetPositionSize_Capped(t *testing.T) {
	manager := NewRiskManager(RiskConfig{MaxPositionSize: d("10")})

	got, err := manager.GetPositionSize(context.Background(), PositionRequest{
		Capital: d("100000"), RiskPercent: d("2"), EntryPrice: d("100"), StopLoss: d("98"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !got.Capped || !got.Units.Equal(d("10")) {
		t.Errorf("Expected size capped at 10, got %s (capped=%v)", got.Units, got.Capped)
	}
	if got.RiskAmount.StringFixed(2) != "2000.00" {
		t.Errorf("Expected risk amount 2000.00, got %s", got.RiskAmount.StringFixed(2))
	}
}
