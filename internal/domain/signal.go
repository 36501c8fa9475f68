package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Signal is the directional recommendation derived from price vs. moving average.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// IsValid reports whether s is one of the known signals.
func (s Signal) IsValid() bool {
	switch s {
	case SignalBuy, SignalSell, SignalHold:
		return true
	}
	return false
}

// Interval is the candle bucket width accepted by the signal endpoints.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

var supportedIntervals = []Interval{Interval1m, Interval5m, Interval15m, Interval1h, Interval1d}

// SupportedIntervals returns the accepted intervals, shortest first.
func SupportedIntervals() []Interval {
	out := make([]Interval, len(supportedIntervals))
	copy(out, supportedIntervals)
	return out
}

// IsValid reports whether i belongs to the supported set.
func (i Interval) IsValid() bool {
	for _, s := range supportedIntervals {
		if i == s {
			return true
		}
	}
	return false
}

// SignalResult is the output of the signal calculator.
// For SignalHold both StopLoss and TakeProfit are zero.
type SignalResult struct {
	Signal     Signal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// SignalResponse is the message delivered to clients over HTTP and WebSocket.
type SignalResponse struct {
	Symbol       string
	Interval     Interval
	CurrentPrice decimal.Decimal
	Signal       Signal
	StopLoss     decimal.Decimal
	TakeProfit   decimal.Decimal
}

// signalWire is the JSON shape consumed by the dashboard: prices are strings with two decimals.
type signalWire struct {
	Symbol       string   `json:"symbol"`
	Interval     Interval `json:"interval"`
	CurrentPrice string   `json:"currentPrice"`
	Signal       Signal   `json:"signal"`
	StopLoss     string   `json:"sl"`
	TakeProfit   string   `json:"tp"`
}

// MarshalJSON encodes the response in the dashboard wire format.
func (r SignalResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(signalWire{
		Symbol:       r.Symbol,
		Interval:     r.Interval,
		CurrentPrice: r.CurrentPrice.StringFixed(2),
		Signal:       r.Signal,
		StopLoss:     r.StopLoss.StringFixed(2),
		TakeProfit:   r.TakeProfit.StringFixed(2),
	})
}

// UnmarshalJSON decodes the dashboard wire format.
func (r *SignalResponse) UnmarshalJSON(data []byte) error {
	var w signalWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Signal.IsValid() {
		return fmt.Errorf("unknown signal %q", w.Signal)
	}
	price, err := decimal.NewFromString(w.CurrentPrice)
	if err != nil {
		return fmt.Errorf("parsing currentPrice %q: %w", w.CurrentPrice, err)
	}
	sl, err := decimal.NewFromString(w.StopLoss)
	if err != nil {
		return fmt.Errorf("parsing sl %q: %w", w.StopLoss, err)
	}
	tp, err := decimal.NewFromString(w.TakeProfit)
	if err != nil {
		return fmt.Errorf("parsing tp %q: %w", w.TakeProfit, err)
	}
	*r = SignalResponse{
		Symbol:       w.Symbol,
		Interval:     w.Interval,
		CurrentPrice: price,
		Signal:       w.Signal,
		StopLoss:     sl,
		TakeProfit:   tp,
	}
	return nil
}
