package motion

import (
	"math"
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func assertVec(t *testing.T, got, want Vec) {
	t.Helper()
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDisplayedInterpolatesWithinWindow(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	engine.OnSnapshot("p1", Vec{X: 2, Y: 3}, Vec{X: 5, Y: 3}, 100*time.Millisecond, epoch)

	cases := []struct {
		elapsed time.Duration
		want    Vec
	}{
		{0, Vec{X: 2, Y: 3}},
		{30 * time.Millisecond, Vec{X: 2.75, Y: 3}},
		{60 * time.Millisecond, Vec{X: 3.5, Y: 3}},
		{120 * time.Millisecond, Vec{X: 5, Y: 3}},
		{200 * time.Millisecond, Vec{X: 5, Y: 3}},
		{10 * time.Second, Vec{X: 5, Y: 3}},
	}
	for _, tc := range cases {
		got, ok := engine.Displayed("p1", epoch.Add(tc.elapsed))
		if !ok {
			t.Fatalf("expected p1 to be tracked")
		}
		assertVec(t, got, tc.want)
	}

	exact, _ := engine.Displayed("p1", epoch.Add(200*time.Millisecond))
	if exact != (Vec{X: 5, Y: 3}) {
		t.Fatalf("expected exact hold at target, got %+v", exact)
	}
}

func TestDisplayedBeforeSnapshotHoldsPrevious(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	engine.OnSnapshot("p1", Vec{X: 1, Y: 1}, Vec{X: 4, Y: 1}, time.Second, epoch)
	got, _ := engine.Displayed("p1", epoch.Add(-time.Second))
	assertVec(t, got, Vec{X: 1, Y: 1})
}

func TestOnSnapshotVelocity(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	engine.OnSnapshot("p1", Vec{X: 0, Y: 0}, Vec{X: 3, Y: -1}, 100*time.Millisecond, epoch)

	st, ok := engine.State("p1")
	if !ok {
		t.Fatalf("expected state")
	}
	assertVec(t, st.Velocity, Vec{X: 30, Y: -10})
	if !st.SnapshotAt.Equal(epoch) {
		t.Fatalf("unexpected snapshot time %v", st.SnapshotAt)
	}
}

func TestOnSnapshotFloorsInterval(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	for _, dt := range []time.Duration{0, -time.Second, time.Microsecond} {
		engine.OnSnapshot("p1", Vec{}, Vec{X: 1}, dt, epoch)
		st, _ := engine.State("p1")
		if math.IsInf(st.Velocity.X, 0) || math.IsNaN(st.Velocity.X) {
			t.Fatalf("dt=%v produced non-finite velocity", dt)
		}
		assertVec(t, st.Velocity, Vec{X: 1000})
	}
}

func TestIdenticalSnapshotHasZeroVelocity(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	engine.OnSnapshot("p1", Vec{X: 7, Y: 2}, Vec{X: 7, Y: 2}, 50*time.Millisecond, epoch)
	st, _ := engine.State("p1")
	if st.Velocity != (Vec{}) {
		t.Fatalf("expected zero velocity, got %+v", st.Velocity)
	}
}

func TestExtrapolationIsOptIn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extrapolate = true
	engine := NewEngine(cfg)
	engine.OnSnapshot("p1", Vec{X: 0, Y: 0}, Vec{X: 1, Y: 0}, 100*time.Millisecond, epoch)

	got, _ := engine.Displayed("p1", epoch.Add(220*time.Millisecond))
	assertVec(t, got, Vec{X: 2, Y: 0})

	got, _ = engine.Displayed("p1", epoch.Add(time.Second))
	assertVec(t, got, Vec{X: 3.5, Y: 0})

	within, _ := engine.Displayed("p1", epoch.Add(60*time.Millisecond))
	assertVec(t, within, Vec{X: 0.5, Y: 0})
}

func TestDisplayedClampsToBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bounds = Bounds{Width: 5, Height: 5}
	engine := NewEngine(cfg)
	engine.OnSnapshot("p1", Vec{X: 9, Y: -2}, Vec{X: 9, Y: -2}, time.Second, epoch)

	got, _ := engine.Displayed("p1", epoch.Add(time.Second))
	assertVec(t, got, Vec{X: 4, Y: 0})

	cfg.Extrapolate = true
	engine = NewEngine(cfg)
	engine.OnSnapshot("p2", Vec{X: 3, Y: 2}, Vec{X: 4, Y: 2}, 10*time.Millisecond, epoch)
	got, _ = engine.Displayed("p2", epoch.Add(time.Second))
	assertVec(t, got, Vec{X: 4, Y: 2})
}

func TestRetainDropsMissingEntities(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	engine.OnSnapshot("keep", Vec{}, Vec{}, time.Second, epoch)
	engine.OnSnapshot("drop", Vec{}, Vec{}, time.Second, epoch)

	engine.Retain(func(id string) bool { return id == "keep" })

	if engine.Len() != 1 {
		t.Fatalf("expected 1 entity, got %d", engine.Len())
	}
	if _, ok := engine.Displayed("drop", epoch); ok {
		t.Fatalf("expected dropped entity to be gone")
	}
}

func TestNewEngineDefaultsWindow(t *testing.T) {
	engine := NewEngine(Config{})
	if engine.Config().Window != DefaultWindow {
		t.Fatalf("expected default window, got %v", engine.Config().Window)
	}
}
