package network

import (
	"context"

	"github.com/dntelisa/SR-S9-Projet-Client/logging"
)

const (
	// EventDecodeFailed is emitted when an inbound payload cannot be decoded.
	EventDecodeFailed logging.EventType = "network.decode_failed"
	// EventUnknownMessage is emitted for messages with an unrecognised type.
	EventUnknownMessage logging.EventType = "network.unknown_message"
	// EventSendFailed is emitted when an outbound message could not be written.
	EventSendFailed logging.EventType = "network.send_failed"
	// EventServerEvent is emitted for free-form server "event" messages.
	EventServerEvent logging.EventType = "network.server_event"
)

// RawPayload carries an inbound payload verbatim for diagnosis.
type RawPayload struct {
	Type  string `json:"type,omitempty"`
	Raw   string `json:"raw"`
	Error string `json:"error,omitempty"`
}

// SendPayload describes a failed outbound message.
type SendPayload struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// DecodeFailed publishes a warning for a payload that was dropped.
func DecodeFailed(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload RawPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:       EventDecodeFailed,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityWarn,
		Category:   logging.CategoryNetwork,
		Payload:    payload,
	})
}

// UnknownMessage publishes a debug event for a message the client does not understand.
func UnknownMessage(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload RawPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:       EventUnknownMessage,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityDebug,
		Category:   logging.CategoryNetwork,
		Payload:    payload,
	})
}

// SendFailed publishes a warning for an outbound message that did not reach the transport.
func SendFailed(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload SendPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:       EventSendFailed,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityWarn,
		Category:   logging.CategoryNetwork,
		Payload:    payload,
	})
}

// ServerEvent publishes a free-form server event.
func ServerEvent(ctx context.Context, pub logging.Publisher, generation uint64, actor logging.EntityRef, payload RawPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:       EventServerEvent,
		Generation: generation,
		Actor:      actor,
		Severity:   logging.SeverityInfo,
		Category:   logging.CategoryNetwork,
		Payload:    payload,
	})
}
