package session

import (
	"sync"
	"time"
)

// EventLogCapacity is the number of entries kept by an EventLog.
const EventLogCapacity = 6

// EventLogEntry is one line of the on-screen event feed.
type EventLogEntry struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// EventLog keeps the most recent entries, overwriting the oldest on overflow.
type EventLog struct {
	mu      sync.Mutex
	entries [EventLogCapacity]EventLogEntry
	next    int
	size    int
}

func (l *EventLog) Push(at time.Time, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = EventLogEntry{At: at, Text: text}
	l.next = (l.next + 1) % EventLogCapacity
	if l.size < EventLogCapacity {
		l.size++
	}
}

// Entries returns the log most recent first.
func (l *EventLog) Entries() []EventLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventLogEntry, 0, l.size)
	for i := 1; i <= l.size; i++ {
		idx := (l.next - i + EventLogCapacity) % EventLogCapacity
		out = append(out, l.entries[idx])
	}
	return out
}
