package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"tradingSignalBot/internal/app"
	"tradingSignalBot/internal/domain"
	"tradingSignalBot/internal/metrics"
	"tradingSignalBot/internal/ports"
	"tradingSignalBot/internal/risk"
)

const healthTimeout = 5 * time.Second

// Pinger reports whether the market data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the signal endpoints over HTTP and WebSocket.
type Server struct {
	logger    ports.Logger
	signals   ports.SignalSource
	publisher *app.Publisher
	risk      *risk.RiskManager
	health    Pinger
	metrics   *metrics.Metrics
	upgrader  websocket.Upgrader
}

// Deps bundles the collaborators of Server. Health and Metrics may be nil.
type Deps struct {
	Logger    ports.Logger
	Signals   ports.SignalSource
	Publisher *app.Publisher
	Risk      *risk.RiskManager
	Health    Pinger
	Metrics   *metrics.Metrics
}

// NewServer wires the HTTP handlers.
func NewServer(d Deps) (*Server, error) {
	if d.Logger == nil || d.Signals == nil || d.Publisher == nil {
		return nil, fmt.Errorf("missing required dependencies for HTTP server")
	}
	if d.Risk == nil {
		d.Risk = risk.NewRiskManager(risk.RiskConfig{})
	}
	return &Server{
		logger:    d.Logger,
		signals:   d.Signals,
		publisher: d.Publisher,
		risk:      d.Risk,
		health:    d.Health,
		metrics:   d.Metrics,
		upgrader: websocket.Upgrader{
			// The dashboard is served from a different origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/signal", s.instrument("/api/signal", http.HandlerFunc(s.handleSignal)))
	mux.Handle("GET /api/position-size", s.instrument("/api/position-size", http.HandlerFunc(s.handlePositionSize)))
	mux.Handle("GET /healthz", s.instrument("/healthz", http.HandlerFunc(s.handleHealth)))
	// Hijacked by the upgrader, so not instrumented.
	mux.HandleFunc("GET /ws", s.handleWS)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return withCORS(mux)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := s.signals.GetSignal(r.Context(), q.Get("symbol"), q.Get("interval"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ports.ErrInvalidInterval) {
			status = http.StatusBadRequest
		} else {
			s.logger.Error(r.Context(), err, "Signal request failed", ports.Fields{"query": r.URL.RawQuery})
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := q.Get("symbol")
	interval := q.Get("interval")
	if interval != "" && !domain.Interval(interval).IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q, supported: %v", ports.ErrInvalidInterval, interval, domain.SupportedIntervals()))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Warn(r.Context(), "WebSocket upgrade failed", ports.Fields{"error": err.Error()})
		return
	}

	err = s.publisher.Serve(r.Context(), conn, symbol, interval)
	if err != nil && !errors.Is(err, ports.ErrDelivery) {
		s.logger.Warn(r.Context(), "WebSocket session ended with error", ports.Fields{"error": err.Error()})
	}
}

type positionSizeResponse struct {
	RiskAmount   string `json:"riskAmount"`
	PositionSize string `json:"positionSize"`
}

func (s *Server) handlePositionSize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		req  risk.PositionRequest
		errs []string
	)
	parse := func(key string, dst *decimal.Decimal) {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			errs = append(errs, key+" is required")
			return
		}
		dv, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid number %q", key, v))
			return
		}
		*dst = dv
	}
	parse("capital", &req.Capital)
	parse("risk", &req.RiskPercent)
	parse("price", &req.EntryPrice)
	parse("sl", &req.StopLoss)
	if len(errs) > 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", ports.ErrInvalidRequest, strings.Join(errs, "; ")))
		return
	}

	size, err := s.risk.GetPositionSize(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, positionSizeResponse{
		RiskAmount:   size.RiskAmount.StringFixed(2),
		PositionSize: size.Units.StringFixed(4),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":         "ok",
		"activeSessions": s.publisher.ActiveSessions(),
	}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			body["status"] = "unavailable"
			body["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// --- Helpers ---

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
