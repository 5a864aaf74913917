package proto

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	t.Run("join ack", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"join_ack","id":"p-7"}`))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		ack, ok := msg.(JoinAck)
		if !ok || ack.ID != "p-7" {
			t.Fatalf("unexpected message: %#v", msg)
		}
	})

	t.Run("state", func(t *testing.T) {
		payload := `{"type":"state","players":[{"id":"a","name":"Ann","x":2,"y":3,"score":4}],"sweets":[{"id":"s1","x":5,"y":6}]}`
		msg, err := Decode([]byte(payload))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		state, ok := msg.(State)
		if !ok {
			t.Fatalf("expected State, got %T", msg)
		}
		wantPlayers := []PlayerFrame{{ID: "a", Name: "Ann", X: 2, Y: 3, Score: 4}}
		wantSweets := []SweetFrame{{ID: "s1", X: 5, Y: 6}}
		if !reflect.DeepEqual(state.Players, wantPlayers) || !reflect.DeepEqual(state.Sweets, wantSweets) {
			t.Fatalf("unexpected state: %+v", state)
		}
	})

	t.Run("state without entities", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"state"}`))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		state := msg.(State)
		if state.Players == nil || state.Sweets == nil || len(state.Players) != 0 || len(state.Sweets) != 0 {
			t.Fatalf("expected empty non-nil slices, got %+v", state)
		}
	})

	t.Run("event keeps payload verbatim", func(t *testing.T) {
		payload := `{"type":"event","text":"alice ate a sweet"}`
		msg, err := Decode([]byte(payload))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		event, ok := msg.(Event)
		if !ok || string(event.Raw) != payload {
			t.Fatalf("unexpected event: %#v", msg)
		}
	})

	t.Run("game over", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"game_over"}`))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if _, ok := msg.(GameOver); !ok {
			t.Fatalf("expected GameOver, got %T", msg)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"chat","text":"hi"}`))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		unknown, ok := msg.(Unknown)
		if !ok || unknown.Type != "chat" || unknown.MessageType() != "chat" {
			t.Fatalf("unexpected message: %#v", msg)
		}
	})
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":        `{"type":`,
		"array":               `[1,2]`,
		"null":                `null`,
		"missing type":        `{"id":"x"}`,
		"empty type":          `{"type":""}`,
		"non string type":     `{"type":5}`,
		"join ack without id": `{"type":"join_ack"}`,
		"bad coordinates":     `{"type":"state","players":[{"id":"a","x":"left"}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			msg, err := Decode([]byte(payload))
			if err == nil {
				t.Fatalf("expected error, got %#v", msg)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if string(decodeErr.Raw) != payload {
				t.Fatalf("expected raw payload to be kept, got %q", decodeErr.Raw)
			}
		})
	}
}

func TestEncodeJoin(t *testing.T) {
	data, err := EncodeJoin("bob")
	if err != nil {
		t.Fatalf("EncodeJoin: %v", err)
	}
	if string(data) != `{"type":"join","name":"bob"}` {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestEncodeMove(t *testing.T) {
	for _, dir := range Directions {
		data, err := EncodeMove(dir)
		if err != nil {
			t.Fatalf("EncodeMove(%s): %v", dir, err)
		}
		var decoded map[string]string
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded["type"] != TypeMove || decoded["dir"] != string(dir) {
			t.Fatalf("unexpected payload %s", data)
		}
	}

	if _, err := EncodeMove("sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	if dir, err := ParseDirection("left"); err != nil || dir != DirLeft {
		t.Fatalf("ParseDirection(left) = %q, %v", dir, err)
	}
	if _, err := ParseDirection("Up"); err == nil {
		t.Fatalf("expected directions to be case sensitive")
	}
}
