package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// Request Errors
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrNoStopDistance  = errors.New("stop loss distance is zero")

	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	ErrUpstream             = errors.New("market data provider failed")
	ErrConnectionFailed     = errors.New("failed to connect to the exchange")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")

	// Delivery Errors
	ErrDelivery = errors.New("failed to deliver message to client")
)
