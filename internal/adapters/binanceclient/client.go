package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradingSignalBot/internal/domain"
	"tradingSignalBot/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	spotBaseURLProduction    = "https://api.binance.com"
	spotBaseURLTestnet       = "https://testnet.binance.vision"
	futuresBaseURLProduction = "https://fapi.binance.com"
	futuresBaseURLTestnet    = "https://testnet.binancefuture.com"
)

// Market selects the Binance product whose klines are served.
type Market string

const (
	MarketSpot    Market = "spot"
	MarketFutures Market = "futures"
)

// Client implements the ports.MarketDataProvider interface using the go-binance library.
type Client struct {
	market        Market
	spotClient    *binance.Client
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Market     Market // defaults to MarketSpot
	BaseURL    string // overrides the production/testnet URL when set
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.Market == "" {
		cfg.Market = MarketSpot
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	c := &Client{market: cfg.Market, logger: cfg.Logger}

	// Set BaseURL directly instead of using the library's global testnet switches
	switch cfg.Market {
	case MarketSpot:
		c.spotClient = binance.NewClient(cfg.APIKey, cfg.SecretKey)
		c.spotClient.BaseURL = pickBaseURL(cfg, spotBaseURLProduction, spotBaseURLTestnet)
		cfg.Logger.Info(context.Background(), "Binance spot client configured", map[string]interface{}{"baseURL": c.spotClient.BaseURL, "testnet": cfg.UseTestnet})
	case MarketFutures:
		c.futuresClient = futures.NewClient(cfg.APIKey, cfg.SecretKey)
		c.futuresClient.BaseURL = pickBaseURL(cfg, futuresBaseURLProduction, futuresBaseURLTestnet)
		cfg.Logger.Info(context.Background(), "Binance futures client configured", map[string]interface{}{"baseURL": c.futuresClient.BaseURL, "testnet": cfg.UseTestnet})
	default:
		return nil, fmt.Errorf("%w: unsupported Binance market %q", ports.ErrConfigurationError, cfg.Market)
	}

	return c, nil
}

func pickBaseURL(cfg Config, production, testnet string) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if cfg.UseTestnet {
		return testnet
	}
	return production
}

// Market reports which Binance product the client reads from.
func (c *Client) Market() Market {
	return c.market
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "market": c.market}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		// Map specific Binance error codes to custom errors
		var mappedErr error
		switch apiErr.Code {
		case -1003, -1015: // Too many requests / too many orders
			mappedErr = ports.ErrRateLimited
		case -1007, -1021: // Backend timeout / timestamp outside recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Signature or API-key problems
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "no such host") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		// Default for other errors (e.g., parsing errors within the adapter)
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	var err error
	if c.market == MarketFutures {
		err = c.futuresClient.NewPingService().Do(ctx)
	} else {
		err = c.spotClient.NewPingService().Do(ctx)
	}
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// GetKlines retrieves the most recent klines for symbol, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	start := time.Now()

	var (
		domainKlines []*domain.Kline
		err          error
	)
	if c.market == MarketFutures {
		domainKlines, err = c.futuresKlines(ctx, symbol, interval, limit)
	} else {
		domainKlines, err = c.spotKlines(ctx, symbol, interval, limit)
	}
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
		"count":    len(domainKlines),
		"took":     time.Since(start).String(),
	})
	return domainKlines, nil
}

func (c *Client) spotKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	raw, err := c.spotClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Kline, 0, len(raw))
	for _, bk := range raw {
		if bk == nil {
			return nil, errors.New("received nil historical kline")
		}
		dk, err := translateKline(rawKline{
			openTime: bk.OpenTime, closeTime: bk.CloseTime,
			open: bk.Open, high: bk.High, low: bk.Low, close: bk.Close, volume: bk.Volume,
		}, symbol, interval)
		if err != nil {
			return nil, fmt.Errorf("failed to translate historical kline: %w", err)
		}
		out = append(out, dk)
	}
	return out, nil
}

func (c *Client) futuresKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	raw, err := c.futuresClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Kline, 0, len(raw))
	for _, bk := range raw {
		if bk == nil {
			return nil, errors.New("received nil historical kline")
		}
		dk, err := translateKline(rawKline{
			openTime: bk.OpenTime, closeTime: bk.CloseTime,
			open: bk.Open, high: bk.High, low: bk.Low, close: bk.Close, volume: bk.Volume,
		}, symbol, interval)
		if err != nil {
			return nil, fmt.Errorf("failed to translate historical kline: %w", err)
		}
		out = append(out, dk)
	}
	return out, nil
}

// --- Translation Helpers ---

// rawKline is the string-encoded kline shape shared by the spot and futures APIs.
type rawKline struct {
	openTime, closeTime            int64
	open, high, low, close, volume string
}

func translateKline(bk rawKline, symbol, interval string) (*domain.Kline, error) {
	open, err := strconv.ParseFloat(bk.open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.open, err)
	}
	high, err := strconv.ParseFloat(bk.high, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.high, err)
	}
	low, err := strconv.ParseFloat(bk.low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.low, err)
	}
	cls, err := strconv.ParseFloat(bk.close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.close, err)
	}
	vol, err := strconv.ParseFloat(bk.volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.volume, err)
	}

	closeTime := time.UnixMilli(bk.closeTime)
	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.openTime),
		CloseTime: closeTime,
		Symbol:    symbol,   // Use passed symbol as it's not in the kline payload
		Interval:  interval, // Use passed interval
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		IsFinal:   !closeTime.After(time.Now()), // the newest kline is usually still open
	}, nil
}
