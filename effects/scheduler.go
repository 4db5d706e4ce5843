// Package effects schedules short delayed actions (countdown steps, tile
// pulses, stun windows) whose lifetime is tied to an owner key.
package effects

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Real is the wall clock.
func Real() Clock { return realClock{} }

type token struct {
	canceled atomic.Bool
	timers   map[uint64]Timer
}

// Scheduler runs actions after a delay. Cancelling an owner makes every
// pending action of that owner inert; other owners are untouched.
type Scheduler struct {
	mu     sync.Mutex
	clock  Clock
	post   func(func())
	owners map[string]*token
	nextID uint64
}

// New returns a scheduler. When post is non-nil, due actions are handed to
// it instead of running on the timer goroutine, so an actor can run them
// on its own loop.
func New(clock Clock, post func(func())) *Scheduler {
	if clock == nil {
		clock = Real()
	}
	return &Scheduler{
		clock:  clock,
		post:   post,
		owners: make(map[string]*token),
	}
}

// After schedules fn for owner.
func (s *Scheduler) After(owner string, d time.Duration, fn func()) {
	s.mu.Lock()
	tok, ok := s.owners[owner]
	if !ok {
		tok = &token{timers: make(map[uint64]Timer)}
		s.owners[owner] = tok
	}
	s.nextID++
	id := s.nextID
	tok.timers[id] = nil
	s.mu.Unlock()

	run := func() {
		s.mu.Lock()
		delete(tok.timers, id)
		s.mu.Unlock()
		if tok.canceled.Load() {
			return
		}
		fn()
	}
	t := s.clock.AfterFunc(d, func() {
		if s.post != nil {
			s.post(run)
			return
		}
		run()
	})

	s.mu.Lock()
	if _, waiting := tok.timers[id]; waiting {
		tok.timers[id] = t
	}
	s.mu.Unlock()
}

// Cancel drops every pending action of owner.
func (s *Scheduler) Cancel(owner string) {
	s.mu.Lock()
	tok, ok := s.owners[owner]
	delete(s.owners, owner)
	var timers []Timer
	if ok {
		tok.canceled.Store(true)
		for _, t := range tok.timers {
			if t != nil {
				timers = append(timers, t)
			}
		}
		tok.timers = nil
	}
	s.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

// Pending returns the number of actions of owner not yet run or cancelled.
func (s *Scheduler) Pending(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.owners[owner]
	if !ok {
		return 0
	}
	return len(tok.timers)
}
