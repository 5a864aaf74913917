// Package session tracks the connection and round lifecycle of the client and
// decides which inbound events may change the world.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/proto"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/transport"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/world"
	"github.com/dntelisa/SR-S9-Projet-Client/logging"
	loggingLifecycle "github.com/dntelisa/SR-S9-Projet-Client/logging/lifecycle"
	loggingNetwork "github.com/dntelisa/SR-S9-Projet-Client/logging/network"
)

const (
	// DefaultFreezeWindow is how long snapshots are ignored after a game over.
	DefaultFreezeWindow = 4 * time.Second
	// DefaultOpenTimeout bounds WaitOpen.
	DefaultOpenTimeout = time.Second
	// DefaultJoinTimeout bounds WaitJoined.
	DefaultJoinTimeout = time.Second
)

var (
	// ErrNotConnected is returned when sending without a live connection.
	ErrNotConnected = errors.New("session: not connected")
	// ErrTimeout is returned when a wait deadline passes.
	ErrTimeout = errors.New("session: timed out")
)

type ConnectionStatus int32

const (
	Disconnected ConnectionStatus = iota
	Connecting
	Connected
	Joined
	Error
)

func (s ConnectionStatus) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Joined:
		return "joined"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

type GameStatus int

const (
	Active GameStatus = iota
	Over
)

func (s GameStatus) String() string {
	if s == Over {
		return "over"
	}
	return "active"
}

// Status is a point-in-time copy of the lifecycle fields. Fields are read
// independently, so one Status may mix values from adjacent transitions.
type Status struct {
	Connection  ConnectionStatus
	SelfID      string
	LastError   string
	Game        GameStatus
	GameOverAt  time.Time
	FreezeUntil time.Time
	Generation  uint64
}

// FreezeRemaining reports how much of the post-round freeze is left at now.
func (s Status) FreezeRemaining(now time.Time) time.Duration {
	if s.Game != Over || !now.Before(s.FreezeUntil) {
		return 0
	}
	return s.FreezeUntil.Sub(now)
}

type Config struct {
	Name         string
	FreezeWindow time.Duration
	Clock        logging.Clock
	Publisher    logging.Publisher
	Logger       telemetry.Logger
}

type senderSlot struct {
	generation uint64
	sender     transport.Sender
}

// Lifecycle is the connection x game state machine. Transport callbacks are
// serialized by mu; status fields are atomics so the render loop can read
// them without locking.
type Lifecycle struct {
	cfg   Config
	world *world.World
	log   EventLog

	mu         sync.Mutex
	generation atomic.Uint64
	conn       atomic.Int32
	selfID     atomic.Pointer[string]
	lastError  atomic.Pointer[string]
	overAt     atomic.Pointer[time.Time]
	sender     atomic.Pointer[senderSlot]

	signalMu sync.Mutex
	opened   chan struct{}
	joined   chan struct{}
}

func New(cfg Config, w *world.World) *Lifecycle {
	if cfg.FreezeWindow <= 0 {
		cfg.FreezeWindow = DefaultFreezeWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard()
	}
	l := &Lifecycle{
		cfg:    cfg,
		world:  w,
		opened: make(chan struct{}),
		joined: make(chan struct{}),
	}
	l.conn.Store(int32(Disconnected))
	return l
}

// Begin starts a new connection generation. Callbacks bound to any earlier
// generation become no-ops.
func (l *Lifecycle) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	gen := l.generation.Add(1)
	l.conn.Store(int32(Connecting))
	l.selfID.Store(nil)
	l.sender.Store(nil)
	l.resetSignals()
	return gen
}

// Bind returns the transport handler for generation gen.
func (l *Lifecycle) Bind(gen uint64) transport.Handler {
	return &boundHandler{lifecycle: l, generation: gen}
}

type boundHandler struct {
	lifecycle  *Lifecycle
	generation uint64
}

func (h *boundHandler) Opened(sender transport.Sender) {
	h.lifecycle.handleOpened(h.generation, sender)
}
func (h *boundHandler) Message(payload []byte) { h.lifecycle.handleMessage(h.generation, payload) }
func (h *boundHandler) Closed()                { h.lifecycle.handleClosed(h.generation) }
func (h *boundHandler) Error(err error)        { h.lifecycle.handleError(h.generation, err) }

func (l *Lifecycle) current(gen uint64) bool {
	return gen == l.generation.Load()
}

func (l *Lifecycle) actor() logging.EntityRef {
	ref := logging.EntityRef{Kind: logging.EntityKindConnection}
	if id := l.selfID.Load(); id != nil {
		ref = logging.EntityRef{ID: *id, Kind: logging.EntityKindPlayer}
	}
	return ref
}

func (l *Lifecycle) handleOpened(gen uint64, sender transport.Sender) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current(gen) {
		return
	}
	ctx := context.Background()
	l.conn.Store(int32(Connected))
	l.lastError.Store(nil)
	l.sender.Store(&senderSlot{generation: gen, sender: sender})
	l.signal(func() { close(l.opened) })
	loggingLifecycle.ConnectionOpened(ctx, l.cfg.Publisher, gen, l.actor())

	payload, err := proto.EncodeJoin(l.cfg.Name)
	if err == nil {
		err = sender.Send(payload)
	}
	if err != nil {
		l.cfg.Logger.Printf("join request failed: %v", err)
		loggingNetwork.SendFailed(ctx, l.cfg.Publisher, gen, l.actor(), loggingNetwork.SendPayload{Kind: proto.TypeJoin, Error: err.Error()})
		return
	}
	loggingLifecycle.JoinSent(ctx, l.cfg.Publisher, gen, l.actor(), loggingLifecycle.JoinPayload{Name: l.cfg.Name})
}

func (l *Lifecycle) handleMessage(gen uint64, payload []byte) {
	msg, decodeErr := proto.Decode(payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current(gen) {
		return
	}
	ctx := context.Background()
	if decodeErr != nil {
		l.cfg.Logger.Printf("discarding malformed message: %v raw=%q", decodeErr, payload)
		loggingNetwork.DecodeFailed(ctx, l.cfg.Publisher, gen, l.actor(), loggingNetwork.RawPayload{Raw: string(payload), Error: decodeErr.Error()})
		return
	}

	now := l.cfg.Clock.Now()
	switch m := msg.(type) {
	case proto.JoinAck:
		l.joinAcked(ctx, gen, m, now)
	case proto.State:
		l.applyState(ctx, gen, m, now)
	case proto.GameOver:
		l.overAt.Store(&now)
		l.log.Push(now, "game over")
		loggingLifecycle.GameOver(ctx, l.cfg.Publisher, gen, l.actor())
	case proto.Event:
		l.log.Push(now, string(m.Raw))
		loggingNetwork.ServerEvent(ctx, l.cfg.Publisher, gen, l.actor(), loggingNetwork.RawPayload{Type: proto.TypeEvent, Raw: string(m.Raw)})
	case proto.Unknown:
		l.cfg.Logger.Printf("ignoring unknown message type %q", m.Type)
		loggingNetwork.UnknownMessage(ctx, l.cfg.Publisher, gen, l.actor(), loggingNetwork.RawPayload{Type: m.Type, Raw: string(m.Raw)})
	}
}

func (l *Lifecycle) joinAcked(ctx context.Context, gen uint64, ack proto.JoinAck, now time.Time) {
	if status := ConnectionStatus(l.conn.Load()); status != Connected {
		l.cfg.Logger.Printf("ignoring join_ack %q while %s", ack.ID, status)
		return
	}
	id := ack.ID
	l.selfID.Store(&id)
	l.conn.Store(int32(Joined))
	l.signal(func() { close(l.joined) })
	l.log.Push(now, "joined as "+id)
	loggingLifecycle.Joined(ctx, l.cfg.Publisher, gen, l.actor(), loggingLifecycle.JoinPayload{Name: l.cfg.Name, ID: id})
}

func (l *Lifecycle) applyState(ctx context.Context, gen uint64, state proto.State, now time.Time) {
	overAt := l.overAt.Load()
	var frozenFor time.Duration
	if overAt != nil {
		frozenFor = now.Sub(*overAt)
		if frozenFor < l.cfg.FreezeWindow {
			loggingLifecycle.SnapshotSuppressed(ctx, l.cfg.Publisher, gen, l.actor(), loggingLifecycle.FreezePayload{
				ElapsedMillis:   frozenFor.Milliseconds(),
				RemainingMillis: (l.cfg.FreezeWindow - frozenFor).Milliseconds(),
			})
			return
		}
	}

	players := make([]world.Player, 0, len(state.Players))
	for _, p := range state.Players {
		players = append(players, world.Player{ID: p.ID, Name: p.Name, X: p.X, Y: p.Y, Score: p.Score})
	}
	sweets := make([]world.Sweet, 0, len(state.Sweets))
	for _, s := range state.Sweets {
		sweets = append(sweets, world.Sweet{ID: s.ID, X: s.X, Y: s.Y})
	}
	l.world.ApplySnapshot(players, sweets, now)

	if overAt != nil {
		l.overAt.Store(nil)
		l.log.Push(now, "new round")
		loggingLifecycle.RoundResumed(ctx, l.cfg.Publisher, gen, l.actor(), loggingLifecycle.FreezePayload{ElapsedMillis: frozenFor.Milliseconds()})
	}
}

func (l *Lifecycle) handleClosed(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current(gen) {
		return
	}
	actor := l.actor()
	l.disconnect(Disconnected)
	l.log.Push(l.cfg.Clock.Now(), "disconnected")
	loggingLifecycle.ConnectionClosed(context.Background(), l.cfg.Publisher, gen, actor, loggingLifecycle.DisconnectPayload{})
}

func (l *Lifecycle) handleError(gen uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current(gen) {
		return
	}
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	actor := l.actor()
	l.disconnect(Error)
	l.lastError.Store(&reason)
	l.log.Push(l.cfg.Clock.Now(), "connection error: "+reason)
	l.cfg.Logger.Printf("connection error: %s", reason)
	loggingLifecycle.ConnectionError(context.Background(), l.cfg.Publisher, gen, actor, loggingLifecycle.DisconnectPayload{Reason: reason})
}

// disconnect clears the connection identity. The world is left as it was so
// the last known positions stay on screen.
func (l *Lifecycle) disconnect(status ConnectionStatus) {
	l.conn.Store(int32(status))
	l.selfID.Store(nil)
	l.sender.Store(nil)
	l.resetSignals()
}

// SendMove asks the server to move the player. Delivery is not tracked.
func (l *Lifecycle) SendMove(dir proto.Direction) error {
	slot := l.sender.Load()
	if slot == nil {
		return ErrNotConnected
	}
	payload, err := proto.EncodeMove(dir)
	if err != nil {
		return err
	}
	if err := slot.sender.Send(payload); err != nil {
		loggingNetwork.SendFailed(context.Background(), l.cfg.Publisher, slot.generation, l.actor(), loggingNetwork.SendPayload{Kind: proto.TypeMove, Error: err.Error()})
		return fmt.Errorf("send move: %w", err)
	}
	return nil
}

// Status returns the current lifecycle fields.
func (l *Lifecycle) Status() Status {
	st := Status{
		Connection: ConnectionStatus(l.conn.Load()),
		Generation: l.generation.Load(),
	}
	if id := l.selfID.Load(); id != nil {
		st.SelfID = *id
	}
	if reason := l.lastError.Load(); reason != nil {
		st.LastError = *reason
	}
	if overAt := l.overAt.Load(); overAt != nil {
		st.Game = Over
		st.GameOverAt = *overAt
		st.FreezeUntil = st.GameOverAt.Add(l.cfg.FreezeWindow)
	}
	return st
}

// Events returns the event feed, most recent first.
func (l *Lifecycle) Events() []EventLogEntry {
	return l.log.Entries()
}

// WaitOpen blocks until the current connection opens, ctx ends, or timeout
// passes.
func (l *Lifecycle) WaitOpen(ctx context.Context, timeout time.Duration) error {
	l.signalMu.Lock()
	ch := l.opened
	l.signalMu.Unlock()
	return wait(ctx, ch, timeout, "connection open")
}

// WaitJoined blocks until the server acknowledges the join.
func (l *Lifecycle) WaitJoined(ctx context.Context, timeout time.Duration) error {
	l.signalMu.Lock()
	ch := l.joined
	l.signalMu.Unlock()
	return wait(ctx, ch, timeout, "join acknowledgement")
}

func wait(ctx context.Context, ch <-chan struct{}, timeout time.Duration, what string) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w waiting for %s after %s", ErrTimeout, what, timeout)
	}
}

func (l *Lifecycle) signal(fn func()) {
	l.signalMu.Lock()
	defer l.signalMu.Unlock()
	fn()
}

func (l *Lifecycle) resetSignals() {
	l.signalMu.Lock()
	defer l.signalMu.Unlock()
	select {
	case <-l.opened:
		l.opened = make(chan struct{})
	default:
	}
	select {
	case <-l.joined:
		l.joined = make(chan struct{})
	default:
	}
}
