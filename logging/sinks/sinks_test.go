package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dntelisa/SR-S9-Projet-Client/logging"
)

func TestConsoleSinkFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})
	sink.logger.SetFlags(0)

	err := sink.Write(logging.Event{
		Type:       "lifecycle.joined",
		Generation: 3,
		Actor:      logging.EntityRef{ID: "p1", Kind: logging.EntityKindPlayer},
		Severity:   logging.SeverityInfo,
		Payload:    map[string]string{"id": "p1"},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := strings.TrimSpace(buf.String())
	want := `[lifecycle.joined] gen=3 actor=player:p1 severity=info payload={"id":"p1"}`
	if got != want {
		t.Fatalf("unexpected console line:\n got %s\nwant %s", got, want)
	}
}

func TestConsoleSinkSortsExtraFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})
	sink.logger.SetFlags(0)

	event := logging.Event{
		Type:     "lifecycle.connection_opened",
		Actor:    logging.EntityRef{Kind: logging.EntityKindConnection},
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"name": "tester", "client": "sweets"},
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := strings.TrimSpace(buf.String())
	want := `[lifecycle.connection_opened] gen=0 actor=connection severity=info client=sweets name=tester`
	if got != want {
		t.Fatalf("unexpected console line:\n got %s\nwant %s", got, want)
	}
}

func TestJSONSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if err := sink.Write(logging.Event{Type: "network.server_event", Time: stamp, Severity: logging.SeverityWarn}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if decoded["severity"] != "warn" || decoded["type"] != "network.server_event" {
		t.Fatalf("unexpected wire record: %v", decoded)
	}
	if decoded["time"] != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected time: %v", decoded["time"])
	}
}

func TestMemorySinkReset(t *testing.T) {
	sink := NewMemorySink()
	sink.Publish(context.Background(), logging.Event{Type: "a", Extra: map[string]any{"k": 1}})
	events := sink.Events()
	events[0].Extra["k"] = 2
	if sink.Events()[0].Extra["k"] != 1 {
		t.Fatalf("expected stored events to be isolated from callers")
	}
	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatalf("expected reset to clear events")
	}
}
