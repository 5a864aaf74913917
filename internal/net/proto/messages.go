package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Server message type identifiers.
const (
	TypeJoinAck  = "join_ack"
	TypeState    = "state"
	TypeEvent    = "event"
	TypeGameOver = "game_over"
)

// Client message type identifiers.
const (
	TypeJoin = "join"
	TypeMove = "move"
)

var (
	// ErrMalformed matches every DecodeError.
	ErrMalformed = errors.New("malformed server message")
	// ErrInvalidDirection is returned for move directions outside the closed set.
	ErrInvalidDirection = errors.New("invalid move direction")
)

// DecodeError describes an inbound payload that could not be turned into a
// ServerMessage. Raw holds the payload verbatim for diagnosis.
type DecodeError struct {
	Raw    []byte
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode server message: %s: %v", e.Reason, e.Err)
	}
	return "decode server message: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}

// ServerMessage is the closed set of inbound messages. The unexported method
// keeps other packages from adding variants.
type ServerMessage interface {
	MessageType() string
	serverMessage()
}

// JoinAck assigns the client its player id.
type JoinAck struct {
	ID string
}

// State is one authoritative snapshot of every known entity.
type State struct {
	Players []PlayerFrame
	Sweets  []SweetFrame
}

// Event is a free-form server notification kept verbatim.
type Event struct {
	Raw json.RawMessage
}

// GameOver ends the current round.
type GameOver struct{}

// Unknown carries messages whose type the client does not understand.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (JoinAck) MessageType() string  { return TypeJoinAck }
func (State) MessageType() string    { return TypeState }
func (Event) MessageType() string    { return TypeEvent }
func (GameOver) MessageType() string { return TypeGameOver }
func (u Unknown) MessageType() string {
	return u.Type
}

func (JoinAck) serverMessage()  {}
func (State) serverMessage()    {}
func (Event) serverMessage()    {}
func (GameOver) serverMessage() {}
func (Unknown) serverMessage()  {}

// PlayerFrame is a player entry inside a state message.
type PlayerFrame struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Score int    `json:"score"`
}

// SweetFrame is a collectible entry inside a state message.
type SweetFrame struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// JoinAckMessage is the wire shape of a join acknowledgement.
type JoinAckMessage struct {
	Type string `json:"type" jsonschema:"enum=join_ack"`
	ID   string `json:"id"`
}

// StateMessage is the wire shape of a snapshot.
type StateMessage struct {
	Type    string        `json:"type" jsonschema:"enum=state"`
	Players []PlayerFrame `json:"players"`
	Sweets  []SweetFrame  `json:"sweets"`
}

// GameOverMessage is the wire shape of a round end.
type GameOverMessage struct {
	Type string `json:"type" jsonschema:"enum=game_over"`
}

// EventMessage is the wire shape of a server event. Fields beyond type are
// unconstrained.
type EventMessage struct {
	Type string `json:"type" jsonschema:"enum=event"`
}

// JoinRequest is sent once the connection opens.
type JoinRequest struct {
	Type string `json:"type" jsonschema:"enum=join"`
	Name string `json:"name"`
}

// MoveRequest asks the server to move the player one cell.
type MoveRequest struct {
	Type string    `json:"type" jsonschema:"enum=move"`
	Dir  Direction `json:"dir" jsonschema:"enum=up,enum=down,enum=left,enum=right"`
}

// Catalog lists every wire message; it only exists to be reflected into a schema.
type Catalog struct {
	JoinAck  JoinAckMessage  `json:"join_ack"`
	State    StateMessage    `json:"state"`
	Event    EventMessage    `json:"event"`
	GameOver GameOverMessage `json:"game_over"`
	Join     JoinRequest     `json:"join"`
	Move     MoveRequest     `json:"move"`
}

// Decode converts a raw websocket payload into a ServerMessage.
func Decode(payload []byte) (ServerMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &DecodeError{Raw: payload, Reason: "invalid json", Err: err}
	}
	if fields == nil {
		return nil, &DecodeError{Raw: payload, Reason: "payload is not an object"}
	}
	rawType, ok := fields["type"]
	if !ok {
		return nil, &DecodeError{Raw: payload, Reason: "missing type"}
	}
	var msgType string
	if err := json.Unmarshal(rawType, &msgType); err != nil {
		return nil, &DecodeError{Raw: payload, Reason: "type is not a string", Err: err}
	}
	if msgType == "" {
		return nil, &DecodeError{Raw: payload, Reason: "missing type"}
	}

	raw := json.RawMessage(append([]byte(nil), payload...))
	switch msgType {
	case TypeJoinAck:
		var msg JoinAckMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, &DecodeError{Raw: payload, Reason: "invalid join_ack", Err: err}
		}
		if msg.ID == "" {
			return nil, &DecodeError{Raw: payload, Reason: "join_ack without id"}
		}
		return JoinAck{ID: msg.ID}, nil
	case TypeState:
		var msg StateMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, &DecodeError{Raw: payload, Reason: "invalid state", Err: err}
		}
		state := State{Players: msg.Players, Sweets: msg.Sweets}
		if state.Players == nil {
			state.Players = []PlayerFrame{}
		}
		if state.Sweets == nil {
			state.Sweets = []SweetFrame{}
		}
		return state, nil
	case TypeEvent:
		return Event{Raw: raw}, nil
	case TypeGameOver:
		return GameOver{}, nil
	default:
		return Unknown{Type: msgType, Raw: raw}, nil
	}
}

// Direction is a single-cell move.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Directions lists every valid direction in a stable order.
var Directions = []Direction{DirUp, DirDown, DirLeft, DirRight}

// ParseDirection validates a textual direction.
func ParseDirection(value string) (Direction, error) {
	switch Direction(value) {
	case DirUp, DirDown, DirLeft, DirRight:
		return Direction(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, value)
	}
}

// EncodeJoin renders the join request.
func EncodeJoin(name string) ([]byte, error) {
	return json.Marshal(JoinRequest{Type: TypeJoin, Name: name})
}

// EncodeMove renders a move request.
func EncodeMove(dir Direction) ([]byte, error) {
	if _, err := ParseDirection(string(dir)); err != nil {
		return nil, err
	}
	return json.Marshal(MoveRequest{Type: TypeMove, Dir: dir})
}
