// Package world holds the client's copy of the latest authoritative snapshot
// together with the motion state derived from it.
package world

import (
	"sort"
	"sync"
	"time"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/motion"
)

// Player is the last server-reported state of a player.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Score int    `json:"score"`
}

// Sweet is a collectible. Sweets are drawn where the server puts them.
type Sweet struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// PlayerView pairs a player with the position it should be drawn at.
type PlayerView struct {
	Player
	Displayed motion.Vec `json:"displayed"`
}

// View is an immutable copy of the world handed to renderers.
type View struct {
	Seq        uint64       `json:"seq"`
	SnapshotAt time.Time    `json:"snapshotAt"`
	Players    []PlayerView `json:"players"`
	Sweets     []Sweet      `json:"sweets"`
}

// Player looks up a player in the view.
func (v View) Player(id string) (PlayerView, bool) {
	i := sort.Search(len(v.Players), func(i int) bool { return v.Players[i].ID >= id })
	if i < len(v.Players) && v.Players[i].ID == id {
		return v.Players[i], true
	}
	return PlayerView{}, false
}

// World is the wholesale-replaced entity cache. Players, sweets and motion
// state share one lock so readers never see a half-applied snapshot.
type World struct {
	mu           sync.RWMutex
	players      map[string]Player
	sweets       map[string]Sweet
	motion       *motion.Engine
	lastSnapshot time.Time
	seq          uint64
}

func New(cfg motion.Config) *World {
	return &World{
		players: make(map[string]Player),
		sweets:  make(map[string]Sweet),
		motion:  motion.NewEngine(cfg),
	}
}

// ApplySnapshot replaces the world with the given entities. Continuing players
// start their new move from where they are currently drawn.
func (w *World) ApplySnapshot(players []Player, sweets []Sweet, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	displayed := make(map[string]motion.Vec, len(w.players))
	for id := range w.players {
		if pos, ok := w.motion.Displayed(id, now); ok {
			displayed[id] = pos
		}
	}

	dt := motion.MinSnapshotInterval
	if !w.lastSnapshot.IsZero() {
		dt = now.Sub(w.lastSnapshot)
	}

	clear(w.players)
	clear(w.sweets)
	for _, p := range players {
		w.players[p.ID] = p
	}
	for _, s := range sweets {
		w.sweets[s.ID] = s
	}

	for id, p := range w.players {
		target := motion.At(p.X, p.Y)
		previous, ok := displayed[id]
		if !ok {
			previous = target
		}
		w.motion.OnSnapshot(id, previous, target, dt, now)
	}
	w.motion.Retain(func(id string) bool {
		_, ok := w.players[id]
		return ok
	})

	w.lastSnapshot = now
	w.seq++
}

// Read returns a copy of the world with displayed positions computed at now.
func (w *World) Read(now time.Time) View {
	w.mu.RLock()
	defer w.mu.RUnlock()

	view := View{
		Seq:        w.seq,
		SnapshotAt: w.lastSnapshot,
		Players:    make([]PlayerView, 0, len(w.players)),
		Sweets:     make([]Sweet, 0, len(w.sweets)),
	}
	for id, p := range w.players {
		pos, ok := w.motion.Displayed(id, now)
		if !ok {
			pos = motion.At(p.X, p.Y)
		}
		view.Players = append(view.Players, PlayerView{Player: p, Displayed: pos})
	}
	for _, s := range w.sweets {
		view.Sweets = append(view.Sweets, s)
	}
	sort.Slice(view.Players, func(i, j int) bool { return view.Players[i].ID < view.Players[j].ID })
	sort.Slice(view.Sweets, func(i, j int) bool { return view.Sweets[i].ID < view.Sweets[j].ID })
	return view
}

// Displayed returns the drawn position of a single player.
func (w *World) Displayed(id string, now time.Time) (motion.Vec, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.motion.Displayed(id, now)
}

// MotionState exposes the interpolation record of a player.
func (w *World) MotionState(id string) (motion.State, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.motion.State(id)
}

// Seq counts applied snapshots.
func (w *World) Seq() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.seq
}

// Len reports the number of players and sweets currently known.
func (w *World) Len() (players, sweets int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.players), len(w.sweets)
}
