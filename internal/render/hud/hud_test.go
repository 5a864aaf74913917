package hud

import (
	"strings"
	"testing"
	"time"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/session"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/world"
)

func TestStatusLine(t *testing.T) {
	cases := []struct {
		status session.Status
		want   string
	}{
		{session.Status{Connection: session.Joined, SelfID: "p-1"}, "joined as p-1"},
		{session.Status{Connection: session.Error, LastError: "refused"}, "connection error: refused"},
		{session.Status{Connection: session.Error}, "connection error"},
		{session.Status{Connection: session.Connecting}, "connecting"},
	}
	for _, tc := range cases {
		if got := StatusLine(tc.status); got != tc.want {
			t.Fatalf("StatusLine(%+v) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestFreezeLine(t *testing.T) {
	over := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	st := session.Status{Game: session.Over, GameOverAt: over, FreezeUntil: over.Add(4 * time.Second)}

	if got := FreezeLine(session.Status{}, over); got != "" {
		t.Fatalf("expected no freeze line while active, got %q", got)
	}
	if got := FreezeLine(st, over.Add(1500*time.Millisecond)); !strings.Contains(got, "3 seconds") {
		t.Fatalf("expected countdown rounded up to 3 seconds, got %q", got)
	}
	if got := FreezeLine(st, over.Add(5*time.Second)); !strings.Contains(got, "waiting") {
		t.Fatalf("expected waiting line after the freeze, got %q", got)
	}
}

func TestScoreLines(t *testing.T) {
	view := world.View{Players: []world.PlayerView{
		{Player: world.Player{ID: "a", Name: "ann", Score: 5}},
		{Player: world.Player{ID: "b", Name: "bob", Score: 1200}},
		{Player: world.Player{ID: "c", Score: 5}},
	}}

	lines := ScoreLines(view, "a", 0)
	want := []string{" 1. bob 1,200", "*2. ann 5", " 3. c 5"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", lines, want)
	}
	if got := ScoreLines(view, "", 1); len(got) != 1 {
		t.Fatalf("expected limit to apply, got %q", got)
	}
	if view.Players[0].ID != "a" {
		t.Fatalf("ScoreLines must not reorder the view")
	}
}

func TestEventLines(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	lines := EventLines([]session.EventLogEntry{
		{At: now, Text: "joined as me"},
		{At: now.Add(-5 * time.Second), Text: "disconnected"},
	}, now)
	if len(lines) != 2 || !strings.HasSuffix(lines[0], ": joined as me") {
		t.Fatalf("unexpected lines %q", lines)
	}
	if !strings.Contains(lines[1], "ago") {
		t.Fatalf("expected relative time, got %q", lines[1])
	}
}
