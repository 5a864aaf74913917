package lifecycle

import (
	"context"

	"github.com/dntelisa/SR-S9-Projet-Client/logging"
)

const (
	// EventConnectionOpened is emitted when the transport reports an open connection.
	EventConnectionOpened logging.EventType = "lifecycle.connection_opened"
	// EventJoinSent is emitted after the join request is handed to the transport.
	EventJoinSent logging.EventType = "lifecycle.join_sent"
	// EventJoined is emitted when the server acknowledges the join.
	EventJoined logging.EventType = "lifecycle.joined"
	// EventConnectionClosed is emitted when the transport reports a close.
	EventConnectionClosed logging.EventType = "lifecycle.connection_closed"
	// EventConnectionError is emitted when the transport reports an error.
	EventConnectionError logging.EventType = "lifecycle.connection_error"
	// EventGameOver is emitted when the server ends the round.
	EventGameOver logging.EventType = "lifecycle.game_over"
	// EventRoundResumed is emitted when the first snapshot after a game over is applied.
	EventRoundResumed logging.EventType = "lifecycle.round_resumed"
	// EventSnapshotSuppressed is emitted when a snapshot lands inside the freeze window.
	EventSnapshotSuppressed logging.EventType = "lifecycle.snapshot_suppressed"
	// EventReconnectScheduled is emitted when the supervisor waits before dialing again.
	EventReconnectScheduled logging.EventType = "lifecycle.reconnect_scheduled"
)

// JoinPayload captures the handshake identity.
type JoinPayload struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// DisconnectPayload captures why a connection ended.
type DisconnectPayload struct {
	Reason string `json:"reason,omitempty"`
}

// FreezePayload captures the freeze window state when a snapshot is gated.
type FreezePayload struct {
	ElapsedMillis   int64 `json:"elapsedMs"`
	RemainingMillis int64 `json:"remainingMs"`
}

// ReconnectPayload captures the backoff chosen by the supervisor.
type ReconnectPayload struct {
	Attempt     int   `json:"attempt"`
	DelayMillis int64 `json:"delayMs"`
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryLifecycle
	pub.Publish(ctx, event)
}

// ConnectionOpened publishes a connection open event.
func ConnectionOpened(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:       EventConnectionOpened,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityInfo,
	})
}

// JoinSent publishes a debug event once the join request was written.
func JoinSent(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload JoinPayload) {
	publish(ctx, pub, logging.Event{
		Type:       EventJoinSent,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityDebug,
		Payload:    payload,
	})
}

// Joined publishes the assigned player identity.
func Joined(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload JoinPayload) {
	publish(ctx, pub, logging.Event{
		Type:       EventJoined,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityInfo,
		Payload:    payload,
	})
}

// ConnectionClosed publishes a close event.
func ConnectionClosed(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload DisconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:       EventConnectionClosed,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityInfo,
		Payload:    payload,
	})
}

// ConnectionError publishes a transport failure.
func ConnectionError(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload DisconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:       EventConnectionError,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityWarn,
		Payload:    payload,
	})
}

// GameOver publishes the end of a round.
func GameOver(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:       EventGameOver,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityInfo,
	})
}

// RoundResumed publishes the first accepted snapshot after a game over.
func RoundResumed(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload FreezePayload) {
	publish(ctx, pub, logging.Event{
		Type:       EventRoundResumed,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityInfo,
		Payload:    payload,
	})
}

// SnapshotSuppressed publishes a debug event for a snapshot dropped by the freeze gate.
func SnapshotSuppressed(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload FreezePayload) {
	publish(ctx, pub, logging.Event{
		Type:       EventSnapshotSuppressed,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityDebug,
		Payload:    payload,
	})
}

// ReconnectScheduled publishes the backoff before the next dial.
func ReconnectScheduled(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload ReconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:       EventReconnectScheduled,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityInfo,
		Payload:    payload,
	})
}
