// Package devserver is a small authoritative game server speaking the client
// protocol. It exists for local play and integration tests.
package devserver

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/proto"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
	"github.com/dntelisa/SR-S9-Projet-Client/logging"
)

const writeWait = 5 * time.Second

type Config struct {
	GridWidth  int
	GridHeight int
	Sweets     int
	TickRate   int
	WinScore   int
	RoundPause time.Duration
	Seed       int64
	Clock      logging.Clock
	Logger     telemetry.Logger
}

func DefaultConfig() Config {
	return Config{
		GridWidth:  20,
		GridHeight: 15,
		Sweets:     5,
		TickRate:   10,
		WinScore:   10,
		RoundPause: 3 * time.Second,
	}
}

// Hub owns all players, sweets and subscribers.
type Hub struct {
	cfg Config

	mu          sync.Mutex
	players     map[string]*proto.PlayerFrame
	sweets      map[string]proto.SweetFrame
	subscribers map[string]*subscriber
	rng         *rand.Rand
	nextSweet   uint64
	roundOverAt time.Time

	nextID atomic.Uint64
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func NewHub(cfg Config) *Hub {
	defaults := DefaultConfig()
	if cfg.GridWidth <= 0 || cfg.GridHeight <= 0 {
		cfg.GridWidth, cfg.GridHeight = defaults.GridWidth, defaults.GridHeight
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaults.TickRate
	}
	if cfg.WinScore <= 0 {
		cfg.WinScore = defaults.WinScore
	}
	if cfg.Sweets < 0 {
		cfg.Sweets = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard()
	}
	h := &Hub{
		cfg:         cfg,
		players:     make(map[string]*proto.PlayerFrame),
		sweets:      make(map[string]proto.SweetFrame),
		subscribers: make(map[string]*subscriber),
		rng:         rand.New(rand.NewSource(cfg.Seed)),
	}
	h.mu.Lock()
	h.fillSweetsLocked()
	h.mu.Unlock()
	return h
}

// Join registers a player on a free cell and returns its id.
func (h *Hub) Join(name string) string {
	id := fmt.Sprintf("player-%d", h.nextID.Add(1))
	h.mu.Lock()
	defer h.mu.Unlock()
	x, y := h.freeCellLocked()
	h.players[id] = &proto.PlayerFrame{ID: id, Name: name, X: x, Y: y}
	h.cfg.Logger.Printf("%s joined as %q", id, name)
	return id
}

// Subscribe attaches the connection that receives broadcasts for playerID.
// A previous connection for the same player is closed.
func (h *Hub) Subscribe(playerID string, conn *websocket.Conn) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.players[playerID]; !ok {
		return nil, false
	}
	if existing, ok := h.subscribers[playerID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[playerID] = sub
	return sub, true
}

// Disconnect removes a player and closes its subscriber.
func (h *Hub) Disconnect(playerID string) {
	h.mu.Lock()
	sub, ok := h.subscribers[playerID]
	delete(h.subscribers, playerID)
	delete(h.players, playerID)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Move shifts a player one cell. Moves are ignored while the round is over.
// Collecting a sweet scores a point; reaching the win score ends the round.
func (h *Hub) Move(playerID string, dir proto.Direction) bool {
	h.mu.Lock()
	player, ok := h.players[playerID]
	if !ok || !h.roundOverAt.IsZero() {
		h.mu.Unlock()
		return false
	}
	switch dir {
	case proto.DirUp:
		player.Y = max(player.Y-1, 0)
	case proto.DirDown:
		player.Y = min(player.Y+1, h.cfg.GridHeight-1)
	case proto.DirLeft:
		player.X = max(player.X-1, 0)
	case proto.DirRight:
		player.X = min(player.X+1, h.cfg.GridWidth-1)
	default:
		h.mu.Unlock()
		return false
	}

	var collected *proto.SweetFrame
	for id, sweet := range h.sweets {
		if sweet.X == player.X && sweet.Y == player.Y {
			delete(h.sweets, id)
			player.Score++
			collected = &sweet
			break
		}
	}
	roundOver := false
	if collected != nil {
		if player.Score >= h.cfg.WinScore {
			h.roundOverAt = h.cfg.Clock.Now()
			roundOver = true
		} else {
			h.fillSweetsLocked()
		}
	}
	playerName := player.Name
	h.mu.Unlock()

	if collected != nil {
		h.broadcastJSON(sweetEvent{Type: proto.TypeEvent, Kind: "sweet_collected", Player: playerID, Name: playerName, Sweet: collected.ID})
	}
	if roundOver {
		h.cfg.Logger.Printf("round won by %s", playerID)
		h.broadcastJSON(proto.GameOverMessage{Type: proto.TypeGameOver})
	}
	return true
}

type sweetEvent struct {
	Type   string `json:"type"`
	Kind   string `json:"kind"`
	Player string `json:"player"`
	Name   string `json:"name"`
	Sweet  string `json:"sweet"`
}

// Tick resets a finished round once its pause has elapsed and broadcasts the
// current state.
func (h *Hub) Tick() {
	h.mu.Lock()
	now := h.cfg.Clock.Now()
	if !h.roundOverAt.IsZero() && now.Sub(h.roundOverAt) >= h.cfg.RoundPause {
		h.resetRoundLocked()
	}
	state := h.snapshotLocked()
	h.mu.Unlock()
	h.broadcastJSON(state)
}

// RunSimulation ticks at the configured rate until stop closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.TickRate))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.Tick()
		}
	}
}

// Snapshot returns the current state message.
func (h *Hub) Snapshot() proto.StateMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// RoundOver reports whether the hub is in the post-round pause.
func (h *Hub) RoundOver() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.roundOverAt.IsZero()
}

func (h *Hub) snapshotLocked() proto.StateMessage {
	players := make([]proto.PlayerFrame, 0, len(h.players))
	for _, p := range h.players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	sweets := make([]proto.SweetFrame, 0, len(h.sweets))
	for _, s := range h.sweets {
		sweets = append(sweets, s)
	}
	sort.Slice(sweets, func(i, j int) bool { return sweets[i].ID < sweets[j].ID })
	return proto.StateMessage{Type: proto.TypeState, Players: players, Sweets: sweets}
}

func (h *Hub) resetRoundLocked() {
	h.roundOverAt = time.Time{}
	clear(h.sweets)
	for _, p := range h.players {
		p.Score = 0
		p.X, p.Y = -1, -1
	}
	for _, p := range h.players {
		p.X, p.Y = h.freeCellLocked()
	}
	h.fillSweetsLocked()
	h.cfg.Logger.Printf("new round with %d players", len(h.players))
}

func (h *Hub) fillSweetsLocked() {
	for len(h.sweets) < h.cfg.Sweets {
		x, y := h.freeCellLocked()
		if x < 0 {
			return
		}
		h.nextSweet++
		id := fmt.Sprintf("sweet-%d", h.nextSweet)
		h.sweets[id] = proto.SweetFrame{ID: id, X: x, Y: y}
	}
}

// freeCellLocked picks a random cell holding neither a player nor a sweet, or
// (-1, -1) when the grid is full.
func (h *Hub) freeCellLocked() (int, int) {
	occupied := make(map[[2]int]bool, len(h.players)+len(h.sweets))
	for _, p := range h.players {
		occupied[[2]int{p.X, p.Y}] = true
	}
	for _, s := range h.sweets {
		occupied[[2]int{s.X, s.Y}] = true
	}
	var free [][2]int
	for y := 0; y < h.cfg.GridHeight; y++ {
		for x := 0; x < h.cfg.GridWidth; x++ {
			if !occupied[[2]int{x, y}] {
				free = append(free, [2]int{x, y})
			}
		}
	}
	if len(free) == 0 {
		return -1, -1
	}
	cell := free[h.rng.Intn(len(free))]
	return cell[0], cell[1]
}

func (h *Hub) broadcastJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.cfg.Logger.Printf("failed to marshal broadcast: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			h.cfg.Logger.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}
