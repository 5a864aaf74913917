// Package hud builds the text lines shown under the playfield.
package hud

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/session"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/world"
)

// StatusLine describes the connection.
func StatusLine(st session.Status) string {
	switch st.Connection {
	case session.Joined:
		return fmt.Sprintf("joined as %s", st.SelfID)
	case session.Error:
		if st.LastError == "" {
			return "connection error"
		}
		return "connection error: " + st.LastError
	default:
		return st.Connection.String()
	}
}

// FreezeLine is empty unless a round just ended.
func FreezeLine(st session.Status, now time.Time) string {
	if st.Game != session.Over {
		return ""
	}
	remaining := st.FreezeRemaining(now)
	if remaining <= 0 {
		return "round over, waiting for the next round"
	}
	remaining = (remaining + time.Second - 1).Truncate(time.Second)
	return fmt.Sprintf("round over, next round in %s", durafmt.Parse(remaining).LimitFirstN(1))
}

// ScoreLines ranks players by score, highest first, ties by name then id. The
// own player is marked with an asterisk. limit <= 0 means no limit.
func ScoreLines(view world.View, selfID string, limit int) []string {
	players := slices.Clone(view.Players)
	slices.SortFunc(players, func(a, b world.PlayerView) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(displayName(a), displayName(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	lines := make([]string, 0, len(players))
	for i, p := range players {
		marker := " "
		if p.ID == selfID {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s%d. %s %s", marker, i+1, displayName(p), humanize.Comma(int64(p.Score))))
	}
	return lines
}

func displayName(p world.PlayerView) string {
	if p.Name == "" {
		return p.ID
	}
	return p.Name
}

// EventLines renders the event feed with relative timestamps.
func EventLines(entries []session.EventLogEntry, now time.Time) []string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", humanize.RelTime(entry.At, now, "ago", "from now"), entry.Text))
	}
	return lines
}
