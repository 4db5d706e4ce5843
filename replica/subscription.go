package replica

import (
	"sync"
	"sync/atomic"
)

// Subscription is a registered change handler.
type Subscription interface {
	Unsubscribe()
}

type subscription[T comparable] struct {
	id      uint64
	v       *Var[T]
	seen    T
	handler Handler[T]
	closed  atomic.Bool
}

// fire is a no-op once the subscription is released, so a notification
// collected before Unsubscribe never reaches a torn-down observer.
func (s *subscription[T]) fire(prev, cur T) {
	if s.closed.Load() {
		return
	}
	s.handler(prev, cur)
}

func (s *subscription[T]) Unsubscribe() {
	if s.closed.Swap(true) {
		return
	}
	s.v.remove(s.id)
}

// Scope releases a group of subscriptions together, typically everything
// wired for one participant.
type Scope struct {
	mu     sync.Mutex
	subs   []Subscription
	closed bool
}

func NewScope() *Scope {
	return &Scope{}
}

// Add tracks s. Adding to a closed scope releases s immediately.
func (sc *Scope) Add(s Subscription) Subscription {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		s.Unsubscribe()
		return s
	}
	sc.subs = append(sc.subs, s)
	sc.mu.Unlock()
	return s
}

// Close releases every tracked subscription. It is safe to call twice.
func (sc *Scope) Close() {
	sc.mu.Lock()
	subs := sc.subs
	sc.subs = nil
	sc.closed = true
	sc.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (sc *Scope) Closed() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.closed
}

// Watch subscribes h to v and ties the subscription to sc.
func Watch[T comparable](sc *Scope, v *Var[T], h Handler[T]) Subscription {
	return sc.Add(v.Subscribe(h))
}
