// Package replica holds named values with a single writer of record and
// many observers notified on change.
package replica

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	ErrNotAuthorized = errors.New("replica: write by non-authority")
	ErrUnknownVar    = errors.New("replica: unknown variable")
	ErrTypeMismatch  = errors.New("replica: value type mismatch")
	ErrDuplicateVar  = errors.New("replica: variable already registered")
)

// Authority is the write capability of one Store. Only the token returned
// by NewStore may change the store's values.
type Authority struct {
	name string
}

func (a *Authority) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.name
}

// Value is a replicated name/value pair.
type Value struct {
	Name  string
	Value any
}

type entry interface {
	Name() string
	Private() bool
	load() any
	write(by *Authority, v any) error
}

type Store struct {
	mu      sync.RWMutex
	owner   *Authority
	vars    map[string]entry
	order   []string
	strict  bool
	logger  *log.Logger
	publish func(name string, value any)
}

type Option func(*Store)

// WithStrict makes writes by a non-authority panic instead of returning
// ErrNotAuthorized.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns an empty store and its authority token.
func NewStore(name string, opts ...Option) (*Store, *Authority) {
	auth := &Authority{name: name}
	s := &Store{
		owner:  auth,
		vars:   make(map[string]entry),
		logger: log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, auth
}

// SetReplicator installs the hook called after every effective write to a
// public variable. It runs on the writer's goroutine, before observers.
func (s *Store) SetReplicator(fn func(name string, value any)) {
	s.mu.Lock()
	s.publish = fn
	s.mu.Unlock()
}

// Write sets a variable by name. The value must have the variable's type.
func (s *Store) Write(by *Authority, name string, value any) error {
	s.mu.RLock()
	e, ok := s.vars[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVar, name)
	}
	return e.write(by, value)
}

// Read returns the current value of a variable by name.
func (s *Store) Read(name string) (any, bool) {
	s.mu.RLock()
	e, ok := s.vars[name]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.load(), true
}

// Has reports whether name is registered.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vars[name]
	return ok
}

// Snapshot returns every public variable in registration order.
func (s *Store) Snapshot() []Value {
	s.mu.RLock()
	names := append([]string(nil), s.order...)
	vars := make([]entry, 0, len(names))
	for _, n := range names {
		vars = append(vars, s.vars[n])
	}
	s.mu.RUnlock()

	out := make([]Value, 0, len(vars))
	for _, e := range vars {
		if e.Private() {
			continue
		}
		out = append(out, Value{Name: e.Name(), Value: e.load()})
	}
	return out
}

func (s *Store) register(e entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vars[e.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVar, e.Name())
	}
	s.vars[e.Name()] = e
	s.order = append(s.order, e.Name())
	return nil
}

func (s *Store) authorize(by *Authority, name string) error {
	if by != nil && by == s.owner {
		return nil
	}
	err := fmt.Errorf("%w: %s written by %s", ErrNotAuthorized, name, by)
	if s.strict {
		panic(err)
	}
	s.logger.Printf("%v", err)
	return err
}

func (s *Store) replicate(name string, private bool, value any) {
	if private {
		return
	}
	s.mu.RLock()
	fn := s.publish
	s.mu.RUnlock()
	if fn != nil {
		fn(name, value)
	}
}
