// Package bot drives the player without a keyboard. A Policy decides the next
// move and how long to wait before it; Run sends the moves.
package bot

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/proto"
)

const (
	DefaultScriptedDelay = 300 * time.Millisecond
	DefaultMinDelay      = 200 * time.Millisecond
	DefaultMaxDelay      = 500 * time.Millisecond
)

// Step is one move and the pause that precedes it.
type Step struct {
	Dir   proto.Direction
	Delay time.Duration
}

// Policy yields moves until it reports false.
type Policy interface {
	Next() (Step, bool)
}

// ScriptedSequence is the fixed walk used by the scripted policy.
var ScriptedSequence = []proto.Direction{
	proto.DirRight, proto.DirRight,
	proto.DirDown, proto.DirDown,
	proto.DirLeft, proto.DirLeft,
	proto.DirUp, proto.DirUp,
	proto.DirRight, proto.DirDown,
}

// Scripted replays a fixed sequence once.
type Scripted struct {
	moves []proto.Direction
	delay time.Duration
	next  int
}

func NewScripted(moves []proto.Direction, delay time.Duration) *Scripted {
	if delay <= 0 {
		delay = DefaultScriptedDelay
	}
	return &Scripted{moves: append([]proto.Direction(nil), moves...), delay: delay}
}

func (s *Scripted) Next() (Step, bool) {
	if s.next >= len(s.moves) {
		return Step{}, false
	}
	dir := s.moves[s.next]
	s.next++
	return Step{Dir: dir, Delay: s.delay}, true
}

// Randomized picks a uniform direction and a uniform delay in
// [minDelay, maxDelay] forever.
type Randomized struct {
	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

// NewRandomized seeds the policy from seed. An empty seed uses the wall clock.
func NewRandomized(seed string, minDelay, maxDelay time.Duration) *Randomized {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	var seedValue int64
	if seed == "" {
		seedValue = time.Now().UnixNano()
	} else {
		seedValue = SeedValue(seed, "bot")
	}
	return &Randomized{rng: rand.New(rand.NewSource(seedValue)), minDelay: minDelay, maxDelay: maxDelay}
}

func (r *Randomized) Next() (Step, bool) {
	dir := proto.Directions[r.rng.Intn(len(proto.Directions))]
	delay := r.minDelay
	if span := r.maxDelay - r.minDelay; span > 0 {
		delay += time.Duration(r.rng.Int63n(int64(span) + 1))
	}
	return Step{Dir: dir, Delay: delay}, true
}

// SeedValue derives a stable non-zero seed from a root seed and a label.
func SeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// PolicyByName builds the named policy: "scripted" or "random".
func PolicyByName(name, seed string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "scripted":
		return NewScripted(ScriptedSequence, DefaultScriptedDelay), nil
	case "random", "":
		return NewRandomized(seed, DefaultMinDelay, DefaultMaxDelay), nil
	default:
		return nil, fmt.Errorf("unknown bot policy %q", name)
	}
}
