// Package motion turns discrete grid snapshots into continuous displayed
// positions.
package motion

import (
	"math"
	"time"
)

const (
	// DefaultWindow is how long a move from previous to target takes on screen.
	DefaultWindow = 120 * time.Millisecond
	// DefaultMaxExtrapolation bounds how far past the window extrapolation runs.
	DefaultMaxExtrapolation = 250 * time.Millisecond
	// MinSnapshotInterval floors dt so back-to-back snapshots cannot blow up
	// the velocity estimate.
	MinSnapshotInterval = time.Millisecond
)

// Vec is a position or velocity in grid cells.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// At returns the cell-aligned vector for integer grid coordinates.
func At(x, y int) Vec {
	return Vec{X: float64(x), Y: float64(y)}
}

func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec) Scale(f float64) Vec {
	return Vec{X: v.X * f, Y: v.Y * f}
}

// Lerp interpolates from a to b; t is not clamped.
func Lerp(a, b Vec, t float64) Vec {
	return a.Add(b.Sub(a).Scale(t))
}

// Bounds is the playable grid. A zero dimension disables clamping on that axis.
type Bounds struct {
	Width  int
	Height int
}

// Clamp keeps v inside [0, Width-1] x [0, Height-1].
func (b Bounds) Clamp(v Vec) Vec {
	if b.Width > 0 {
		v.X = clamp(v.X, 0, float64(b.Width-1))
	}
	if b.Height > 0 {
		v.Y = clamp(v.Y, 0, float64(b.Height-1))
	}
	return v
}

// Config tunes the engine. Extrapolation is off by default: entities hold at
// their target once the window has elapsed.
type Config struct {
	Window           time.Duration
	Extrapolate      bool
	MaxExtrapolation time.Duration
	Bounds           Bounds
}

func DefaultConfig() Config {
	return Config{
		Window:           DefaultWindow,
		MaxExtrapolation: DefaultMaxExtrapolation,
	}
}

// State is the per-entity interpolation record.
type State struct {
	Previous   Vec       `json:"previous"`
	Target     Vec       `json:"target"`
	Velocity   Vec       `json:"velocity"`
	SnapshotAt time.Time `json:"snapshotAt"`
}

// Engine tracks State per entity id. It is not safe for concurrent use; the
// owner serializes access.
type Engine struct {
	cfg    Config
	states map[string]*State
}

func NewEngine(cfg Config) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxExtrapolation < 0 {
		cfg.MaxExtrapolation = 0
	}
	return &Engine{cfg: cfg, states: make(map[string]*State)}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// OnSnapshot records a new target for id. dt is the wall-clock time since the
// prior snapshot and is floored to MinSnapshotInterval.
func (e *Engine) OnSnapshot(id string, previous, target Vec, dt time.Duration, now time.Time) {
	if dt < MinSnapshotInterval {
		dt = MinSnapshotInterval
	}
	st, ok := e.states[id]
	if !ok {
		st = &State{}
		e.states[id] = st
	}
	st.Previous = previous
	st.Target = target
	st.Velocity = target.Sub(previous).Scale(1 / dt.Seconds())
	st.SnapshotAt = now
}

// Displayed returns where id should be drawn at now.
func (e *Engine) Displayed(id string, now time.Time) (Vec, bool) {
	st, ok := e.states[id]
	if !ok {
		return Vec{}, false
	}
	return e.cfg.Bounds.Clamp(e.position(st, now)), true
}

func (e *Engine) position(st *State, now time.Time) Vec {
	elapsed := now.Sub(st.SnapshotAt)
	if elapsed <= e.cfg.Window {
		t := clamp(float64(elapsed)/float64(e.cfg.Window), 0, 1)
		return Lerp(st.Previous, st.Target, t)
	}
	if !e.cfg.Extrapolate {
		return st.Target
	}
	extra := min(elapsed-e.cfg.Window, e.cfg.MaxExtrapolation)
	return st.Target.Add(st.Velocity.Scale(extra.Seconds()))
}

// State returns a copy of the record for id.
func (e *Engine) State(id string) (State, bool) {
	st, ok := e.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Retain drops every entity for which keep returns false.
func (e *Engine) Retain(keep func(id string) bool) {
	for id := range e.states {
		if !keep(id) {
			delete(e.states, id)
		}
	}
}

func (e *Engine) Len() int {
	return len(e.states)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
