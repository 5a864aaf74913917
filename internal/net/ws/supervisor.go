package ws

import (
	"context"
	"sync"
	"time"

	"github.com/hako/durafmt"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/transport"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
	"github.com/dntelisa/SR-S9-Projet-Client/logging"
	loggingLifecycle "github.com/dntelisa/SR-S9-Projet-Client/logging/lifecycle"
)

const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 8 * time.Second
)

type SupervisorConfig struct {
	URL        string
	Binder     transport.Binder
	Options    Options
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Publisher  logging.Publisher
	Logger     telemetry.Logger
}

// Supervisor keeps one connection alive at a time. Each attempt runs under a
// fresh generation from the Binder, and the previous connection is fully
// stopped before the next generation begins.
type Supervisor struct {
	cfg  SupervisorConfig
	kick chan struct{}

	mu   sync.Mutex
	conn *Conn
}

func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = DefaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = max(DefaultMaxBackoff, cfg.MinBackoff)
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard()
	}
	if cfg.Options.Logger == nil {
		cfg.Options.Logger = cfg.Logger
	}
	return &Supervisor{cfg: cfg, kick: make(chan struct{}, 1)}
}

// Run connects and reconnects until ctx ends. It returns ctx.Err().
func (s *Supervisor) Run(ctx context.Context) error {
	attempt := 0
	for {
		gen := s.cfg.Binder.Begin()
		handler := s.cfg.Binder.Bind(gen)

		kicked := false
		conn, err := Dial(ctx, s.cfg.URL, handler, s.cfg.Options)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			handler.Error(err)
		} else {
			attempt = 0
			s.setConn(conn)
			select {
			case <-conn.Done():
			case <-s.kick:
				kicked = true
			case <-ctx.Done():
			}
			conn.Stop()
			s.setConn(nil)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if kicked {
			s.cfg.Logger.Printf("reconnecting to %s on request", s.cfg.URL)
			continue
		}

		attempt++
		delay := Backoff(attempt, s.cfg.MinBackoff, s.cfg.MaxBackoff)
		s.cfg.Logger.Printf("reconnecting to %s in %s (attempt %d)", s.cfg.URL, durafmt.Parse(delay).LimitFirstN(2), attempt)
		loggingLifecycle.ReconnectScheduled(ctx, s.cfg.Publisher, gen, logging.EntityRef{Kind: logging.EntityKindConnection}, loggingLifecycle.ReconnectPayload{
			Attempt:     attempt,
			DelayMillis: delay.Milliseconds(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-s.kick:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Reconnect drops the current connection, or skips the pending backoff, and
// starts a new attempt. It never blocks.
func (s *Supervisor) Reconnect() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Connected reports whether a connection is currently up.
func (s *Supervisor) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Supervisor) setConn(conn *Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// Backoff returns the delay before reconnect attempt n (1-based): min doubled
// per attempt, capped at max.
func Backoff(attempt int, minDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 1 {
		return minDelay
	}
	delay := minDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}
