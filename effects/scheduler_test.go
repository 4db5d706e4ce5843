package effects

import (
	"sync"
	"testing"
	"time"
)

func TestAfterRunsInDeadlineOrder(t *testing.T) {
	clock := NewManualClock()
	s := New(clock, nil)

	var got []int
	s.After("a", 300*time.Millisecond, func() { got = append(got, 3) })
	s.After("b", 100*time.Millisecond, func() { got = append(got, 1) })
	s.After("a", 200*time.Millisecond, func() { got = append(got, 2) })

	clock.Advance(150 * time.Millisecond)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("after 150ms got %v", got)
	}
	clock.Advance(time.Second)
	if len(got) != 3 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
	if s.Pending("a") != 0 {
		t.Fatalf("pending after run = %d", s.Pending("a"))
	}
}

func TestCancelMakesOwnerInert(t *testing.T) {
	clock := NewManualClock()
	s := New(clock, nil)

	ran := map[string]int{}
	s.After("player/0", 200*time.Millisecond, func() { ran["player/0"]++ })
	s.After("player/0", 400*time.Millisecond, func() { ran["player/0"]++ })
	s.After("player/1", 200*time.Millisecond, func() { ran["player/1"]++ })

	if s.Pending("player/0") != 2 {
		t.Fatalf("pending = %d, want 2", s.Pending("player/0"))
	}
	s.Cancel("player/0")
	s.Cancel("player/0")
	clock.Advance(time.Second)

	if ran["player/0"] != 0 {
		t.Fatalf("cancelled owner ran %d actions", ran["player/0"])
	}
	if ran["player/1"] != 1 {
		t.Fatalf("other owner ran %d actions, want 1", ran["player/1"])
	}
}

func TestCancelledActionAlreadyPostedIsInert(t *testing.T) {
	clock := NewManualClock()
	var queued []func()
	s := New(clock, func(fn func()) { queued = append(queued, fn) })

	ran := false
	s.After("tile/7", 100*time.Millisecond, func() { ran = true })
	clock.Advance(100 * time.Millisecond)
	if len(queued) != 1 {
		t.Fatalf("expected action to be posted, got %d", len(queued))
	}

	s.Cancel("tile/7")
	queued[0]()
	if ran {
		t.Fatalf("action ran after its owner was cancelled")
	}
}

func TestActionsMayScheduleFollowUps(t *testing.T) {
	clock := NewManualClock()
	s := New(clock, nil)

	var steps []int
	var step func(n int)
	step = func(n int) {
		steps = append(steps, n)
		if n > 0 {
			s.After("countdown", time.Second, func() { step(n - 1) })
		}
	}
	step(3)
	clock.Advance(3 * time.Second)
	if len(steps) != 4 || steps[3] != 0 {
		t.Fatalf("steps = %v, want [3 2 1 0]", steps)
	}
}

func TestRealClockFires(t *testing.T) {
	s := New(Real(), nil)
	var wg sync.WaitGroup
	wg.Add(1)
	s.After("x", 5*time.Millisecond, wg.Done)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("real clock action did not fire")
	}
}
