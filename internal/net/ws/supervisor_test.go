package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/transport"
	loggingLifecycle "github.com/dntelisa/SR-S9-Projet-Client/logging/lifecycle"
	"github.com/dntelisa/SR-S9-Projet-Client/logging/sinks"
)

type generationEvent struct {
	generation uint64
	event      string
}

type fakeBinder struct {
	mu         sync.Mutex
	generation uint64
	events     chan generationEvent
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{events: make(chan generationEvent, 128)}
}

func (b *fakeBinder) Begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	b.events <- generationEvent{b.generation, "begin"}
	return b.generation
}

func (b *fakeBinder) Bind(gen uint64) transport.Handler {
	return &generationHandler{binder: b, generation: gen}
}

type generationHandler struct {
	binder     *fakeBinder
	generation uint64
}

func (h *generationHandler) emit(event string) {
	h.binder.events <- generationEvent{h.generation, event}
}

func (h *generationHandler) Opened(transport.Sender) { h.emit("opened") }
func (h *generationHandler) Message([]byte)          { h.emit("message") }
func (h *generationHandler) Closed()                 { h.emit("closed") }
func (h *generationHandler) Error(err error)         { h.emit("error") }

func (b *fakeBinder) waitFor(t *testing.T, gen uint64, event string) []generationEvent {
	t.Helper()
	var seen []generationEvent
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-b.events:
			seen = append(seen, ev)
			if ev.generation == gen && ev.event == event {
				return seen
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s on generation %d; saw %v", event, gen, seen)
			return nil
		}
	}
}

func TestSupervisorReconnectsAfterClose(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		drain(conn)
	})

	binder := newFakeBinder()
	events := sinks.NewMemorySink()
	sup := NewSupervisor(SupervisorConfig{
		URL:        url,
		Binder:     binder,
		MinBackoff: time.Millisecond,
		MaxBackoff: 4 * time.Millisecond,
		Publisher:  events,
	})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- sup.Run(ctx) }()

	binder.waitFor(t, 3, "opened")
	cancel()

	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	scheduled := 0
	for _, typ := range events.Types() {
		if typ == loggingLifecycle.EventReconnectScheduled {
			scheduled++
		}
	}
	if scheduled < 2 {
		t.Fatalf("expected reconnect events, got %v", events.Types())
	}
}

func TestSupervisorReportsDialFailures(t *testing.T) {
	binder := newFakeBinder()
	sup := NewSupervisor(SupervisorConfig{
		URL:        "ws://127.0.0.1:1/ws",
		Binder:     binder,
		MinBackoff: time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	binder.waitFor(t, 1, "error")
	binder.waitFor(t, 2, "begin")
	if sup.Connected() {
		t.Fatalf("expected no live connection")
	}
}

func TestSupervisorReconnectStopsOldConnectionFirst(t *testing.T) {
	url := newServer(t, drain)

	binder := newFakeBinder()
	sup := NewSupervisor(SupervisorConfig{URL: url, Binder: binder, MinBackoff: time.Hour, MaxBackoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- sup.Run(ctx) }()

	binder.waitFor(t, 1, "opened")
	sup.Reconnect()
	seen := binder.waitFor(t, 2, "opened")
	for _, ev := range seen {
		if ev.generation == 1 {
			t.Fatalf("stopped connection delivered %q", ev.event)
		}
	}

	cancel()
	select {
	case <-result:
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if sup.Connected() {
		t.Fatalf("expected connection to be cleared after shutdown")
	}
}
