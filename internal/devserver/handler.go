package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/proto"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
)

type clientMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

// Handler upgrades requests and runs one websocket session per connection.
type Handler struct {
	hub      *Hub
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, logger telemetry.Logger) *Handler {
	if logger == nil {
		logger = telemetry.Discard()
	}
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var (
		playerID string
		sub      *subscriber
	)
	defer func() {
		if playerID != "" {
			h.hub.Disconnect(playerID)
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case proto.TypeJoin:
			if playerID != "" {
				continue
			}
			playerID = h.hub.Join(msg.Name)
			var ok bool
			sub, ok = h.hub.Subscribe(playerID, conn)
			if !ok {
				return
			}
			if !h.send(sub, proto.JoinAckMessage{Type: proto.TypeJoinAck, ID: playerID}) {
				return
			}
			if !h.send(sub, h.hub.Snapshot()) {
				return
			}
		case proto.TypeMove:
			if playerID == "" {
				continue
			}
			dir, err := proto.ParseDirection(msg.Dir)
			if err != nil {
				h.logger.Printf("ignoring move from %s: %v", playerID, err)
				continue
			}
			h.hub.Move(playerID, dir)
		default:
			h.logger.Printf("ignoring message type %q", msg.Type)
		}
	}
}

func (h *Handler) send(sub *subscriber, msg any) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal response: %v", err)
		return true
	}
	return sub.write(data) == nil
}
