package replica

import (
	"fmt"
	"sort"
	"sync"
)

// Handler observes a value transition.
type Handler[T comparable] func(previous, current T)

type VarOption func(*varConfig)

type varConfig struct {
	private bool
}

// Private keeps a variable on the authority: it is readable locally but
// never handed to the replicator nor included in snapshots.
func Private() VarOption {
	return func(c *varConfig) { c.private = true }
}

// Var is a named replicated value.
type Var[T comparable] struct {
	store   *Store
	name    string
	private bool

	mu     sync.Mutex
	value  T
	subs   map[uint64]*subscription[T]
	nextID uint64

	// queue holds notifications not yet delivered. Only the Set that
	// found dispatching false drains it, so a write made from inside a
	// handler is delivered after the transitions that preceded it.
	queue       []pending[T]
	dispatching bool
}

// Register adds a variable to the store.
func Register[T comparable](s *Store, name string, initial T, opts ...VarOption) (*Var[T], error) {
	var cfg varConfig
	for _, o := range opts {
		o(&cfg)
	}
	v := &Var[T]{
		store:   s,
		name:    name,
		private: cfg.private,
		value:   initial,
		subs:    make(map[uint64]*subscription[T]),
	}
	if err := s.register(v); err != nil {
		return nil, err
	}
	return v, nil
}

// MustRegister is Register for fixed names known at construction.
func MustRegister[T comparable](s *Store, name string, initial T, opts ...VarOption) *Var[T] {
	v, err := Register(s, name, initial, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Lookup returns the variable registered under name with type T.
func Lookup[T comparable](s *Store, name string) (*Var[T], bool) {
	s.mu.RLock()
	e, ok := s.vars[name]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	v, ok := e.(*Var[T])
	return v, ok
}

func (v *Var[T]) Name() string  { return v.name }
func (v *Var[T]) Private() bool { return v.private }

func (v *Var[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set applies val and notifies every observer whose last-seen value differs.
// Writing the held value again notifies nobody and is not replicated.
// A Set issued from a handler of the same variable returns before its
// notifications are delivered; they follow the ones already queued.
func (v *Var[T]) Set(by *Authority, val T) error {
	if err := v.store.authorize(by, v.name); err != nil {
		return err
	}

	v.mu.Lock()
	changed := v.value != val
	v.value = val
	ids := make([]uint64, 0, len(v.subs))
	for id := range v.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s := v.subs[id]
		if s.seen == val {
			continue
		}
		v.queue = append(v.queue, pending[T]{sub: s, prev: s.seen, cur: val})
		s.seen = val
	}
	nested := v.dispatching
	v.dispatching = true
	v.mu.Unlock()

	if changed {
		v.store.replicate(v.name, v.private, val)
	}
	if !nested {
		v.drain()
	}
	return nil
}

func (v *Var[T]) drain() {
	defer func() {
		v.mu.Lock()
		v.queue = nil
		v.dispatching = false
		v.mu.Unlock()
	}()
	for {
		v.mu.Lock()
		if len(v.queue) == 0 {
			v.mu.Unlock()
			return
		}
		p := v.queue[0]
		v.queue = v.queue[1:]
		v.mu.Unlock()
		p.sub.fire(p.prev, p.cur)
	}
}

// Subscribe registers h. The observer's last-seen value starts at the
// current value, so h first fires on the next transition.
func (v *Var[T]) Subscribe(h Handler[T]) Subscription {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	s := &subscription[T]{id: v.nextID, v: v, seen: v.value, handler: h}
	v.subs[s.id] = s
	return s
}

func (v *Var[T]) load() any { return v.Get() }

func (v *Var[T]) write(by *Authority, value any) error {
	val, ok := value.(T)
	if !ok {
		var zero T
		return fmt.Errorf("%w: %s wants %T, got %T", ErrTypeMismatch, v.name, zero, value)
	}
	return v.Set(by, val)
}

func (v *Var[T]) remove(id uint64) {
	v.mu.Lock()
	delete(v.subs, id)
	v.mu.Unlock()
}

func (v *Var[T]) observers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

type pending[T comparable] struct {
	sub       *subscription[T]
	prev, cur T
}
