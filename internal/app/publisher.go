package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tradingSignalBot/internal/metrics"
	"tradingSignalBot/internal/ports"
)

const (
	DefaultPublishPeriod = 5 * time.Second
	defaultWriteTimeout  = 10 * time.Second
)

// ErrPublisherClosed is returned by Serve once Shutdown has been called.
var ErrPublisherClosed = errors.New("publisher is shut down")

// Conn is the part of a WebSocket connection the publisher needs.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// PublisherConfig controls the publish cadence.
type PublisherConfig struct {
	Period       time.Duration
	WriteTimeout time.Duration
}

// Publisher pushes a fresh signal to every connected client on its own timer.
type Publisher struct {
	cfg     PublisherConfig
	logger  ports.Logger
	source  ports.SignalSource
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	closed   bool
	wg       sync.WaitGroup
}

type session struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{} // closed when the tick goroutine exits
}

// NewPublisher creates a publisher that draws signals from source. m may be nil.
func NewPublisher(cfg PublisherConfig, logger ports.Logger, source ports.SignalSource, m *metrics.Metrics) (*Publisher, error) {
	if logger == nil || source == nil {
		return nil, fmt.Errorf("missing required dependencies for Publisher")
	}
	if cfg.Period == 0 {
		cfg.Period = DefaultPublishPeriod
	}
	if cfg.Period < 0 {
		return nil, fmt.Errorf("publish period must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Publisher{
		cfg:      cfg,
		logger:   logger,
		source:   source,
		metrics:  m,
		sessions: make(map[uuid.UUID]*session),
	}, nil
}

// Serve runs a session for conn until the peer disconnects, a send fails, ctx is done
// or the publisher shuts down. It owns conn and closes it before returning.
// No message is written to conn after Serve returns.
// A failed send ends only this session and is reported as ports.ErrDelivery.
func (p *Publisher) Serve(ctx context.Context, conn Conn, symbol, interval string) error {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := &session{id: uuid.New(), cancel: cancel, done: make(chan struct{})}
	if !p.register(sess) {
		conn.Close()
		return ErrPublisherClosed
	}
	defer p.deregister(sess.id)

	log := p.logger.With(ports.Fields{"session": sess.id.String(), "symbol": symbol, "interval": interval})
	log.Info(sctx, "Publisher session started", ports.Fields{"period": p.cfg.Period.String()})

	var deliveryErr error
	go func() {
		defer close(sess.done)
		deliveryErr = p.run(sctx, conn, symbol, interval, log)
	}()

	// Reader loop: the only way to learn the peer went away.
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	select {
	case err := <-readErr:
		log.Debug(sctx, "Client disconnected", ports.Fields{"reason": err.Error()})
	case <-sess.done:
	case <-sctx.Done():
	}

	cancel()
	<-sess.done
	conn.Close()

	if deliveryErr != nil {
		log.Warn(ctx, "Publisher session ended by failed delivery", ports.Fields{"error": deliveryErr.Error()})
		return deliveryErr
	}
	log.Info(ctx, "Publisher session stopped")
	return nil
}

func (p *Publisher) run(ctx context.Context, conn Conn, symbol, interval string, log ports.Logger) error {
	ticker := time.NewTicker(p.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// A tick racing with cancellation must not send.
			if ctx.Err() != nil {
				return nil
			}
			if err := p.tick(ctx, conn, symbol, interval, log); err != nil {
				return err
			}
		}
	}
}

// tick sends one signal. Source failures are skipped; only write failures are returned.
func (p *Publisher) tick(ctx context.Context, conn Conn, symbol, interval string, log ports.Logger) error {
	resp, err := p.source.GetSignal(ctx, symbol, interval)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn(ctx, "Skipping tick, signal unavailable", ports.Fields{"error": err.Error()})
			p.countDelivery("skipped")
		}
		return nil
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		log.Error(ctx, err, "Failed to encode signal")
		p.countDelivery("skipped")
		return nil
	}

	if err := conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout)); err != nil {
		p.countDelivery("failed")
		return fmt.Errorf("%w: setting write deadline: %w", ports.ErrDelivery, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		p.countDelivery("failed")
		return fmt.Errorf("%w: %w", ports.ErrDelivery, err)
	}
	p.countDelivery("ok")
	log.Debug(ctx, "Signal delivered", ports.Fields{"signal": string(resp.Signal)})
	return nil
}

func (p *Publisher) register(s *session) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.sessions[s.id] = s
	p.wg.Add(1)
	if p.metrics != nil {
		p.metrics.ActiveConnections.Inc()
	}
	return true
}

func (p *Publisher) deregister(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[id]; !ok {
		return
	}
	delete(p.sessions, id)
	p.wg.Done()
	if p.metrics != nil {
		p.metrics.ActiveConnections.Dec()
	}
}

// ActiveSessions returns the number of sessions with a running timer.
func (p *Publisher) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Shutdown stops accepting sessions, cancels the live ones and waits for them to
// finish or for ctx to expire.
func (p *Publisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	for _, s := range p.sessions {
		s.cancel()
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info(ctx, "Publisher shut down")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for publisher sessions: %w", ctx.Err())
	}
}

func (p *Publisher) countDelivery(result string) {
	if p.metrics != nil {
		p.metrics.DeliveriesTotal.WithLabelValues(result).Inc()
	}
}
