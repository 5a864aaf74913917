package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/proto"
)

type recordingMover struct {
	mu    sync.Mutex
	moves []proto.Direction
	fail  map[int]bool
	calls int
}

func (m *recordingMover) SendMove(dir proto.Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail[m.calls] {
		return errors.New("not connected")
	}
	m.moves = append(m.moves, dir)
	return nil
}

func TestScriptedPolicyEnds(t *testing.T) {
	policy := NewScripted(ScriptedSequence, time.Millisecond)
	var got []proto.Direction
	for {
		step, ok := policy.Next()
		if !ok {
			break
		}
		if step.Delay != time.Millisecond {
			t.Fatalf("unexpected delay %v", step.Delay)
		}
		got = append(got, step.Dir)
	}
	if len(got) != 10 {
		t.Fatalf("expected ten moves, got %d", len(got))
	}
	for i := range got {
		if got[i] != ScriptedSequence[i] {
			t.Fatalf("move %d = %s, want %s", i, got[i], ScriptedSequence[i])
		}
	}
	if _, ok := policy.Next(); ok {
		t.Fatalf("expected scripted policy to stay finished")
	}
}

func TestRandomizedPolicyIsSeededAndBounded(t *testing.T) {
	a := NewRandomized("seed", DefaultMinDelay, DefaultMaxDelay)
	b := NewRandomized("seed", DefaultMinDelay, DefaultMaxDelay)
	seen := make(map[proto.Direction]bool)
	for i := 0; i < 500; i++ {
		stepA, okA := a.Next()
		stepB, okB := b.Next()
		if !okA || !okB {
			t.Fatalf("randomized policy must not end")
		}
		if stepA != stepB {
			t.Fatalf("step %d differs between equal seeds: %+v vs %+v", i, stepA, stepB)
		}
		if stepA.Delay < DefaultMinDelay || stepA.Delay > DefaultMaxDelay {
			t.Fatalf("delay %v out of range", stepA.Delay)
		}
		if _, err := proto.ParseDirection(string(stepA.Dir)); err != nil {
			t.Fatalf("invalid direction %q", stepA.Dir)
		}
		seen[stepA.Dir] = true
	}
	if len(seen) != len(proto.Directions) {
		t.Fatalf("expected every direction over 500 steps, saw %v", seen)
	}
}

func TestPolicyByName(t *testing.T) {
	if p, err := PolicyByName("scripted", ""); err != nil {
		t.Fatalf("scripted: %v", err)
	} else if _, ok := p.(*Scripted); !ok {
		t.Fatalf("expected *Scripted, got %T", p)
	}
	if p, err := PolicyByName("Random", "x"); err != nil {
		t.Fatalf("random: %v", err)
	} else if _, ok := p.(*Randomized); !ok {
		t.Fatalf("expected *Randomized, got %T", p)
	}
	if _, err := PolicyByName("zigzag", ""); err == nil {
		t.Fatalf("expected unknown policy error")
	}
}

func TestRunSendsEveryStepAndSkipsFailures(t *testing.T) {
	mover := &recordingMover{fail: map[int]bool{3: true}}
	policy := NewScripted(ScriptedSequence, time.Millisecond)

	result, err := Run(context.Background(), policy, mover, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Sent != 9 || result.Failed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(mover.moves) != 9 || mover.moves[2] != ScriptedSequence[3] {
		t.Fatalf("unexpected moves %v", mover.moves)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	mover := &recordingMover{}
	policy := NewRandomized("cancel", time.Hour, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result, err := Run(ctx, policy, mover, rate.NewLimiter(rate.Inf, 1), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if result.Sent != 0 {
		t.Fatalf("expected no moves, got %+v", result)
	}
}

func TestRunHonoursLimiter(t *testing.T) {
	mover := &recordingMover{}
	policy := NewScripted(ScriptedSequence[:4], time.Nanosecond)
	limiter := rate.NewLimiter(rate.Every(10*time.Millisecond), 1)

	start := time.Now()
	if _, err := Run(context.Background(), policy, mover, limiter, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("expected limiter to pace four moves, took %v", elapsed)
	}
}
