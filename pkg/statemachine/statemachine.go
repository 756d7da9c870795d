package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Action runs side effects during a transition. Returning an error aborts the
// transition and leaves the machine in its current state.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Guard reports whether a transition may proceed.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Hook observes a completed transition.
type Hook[S, E comparable] func(ctx context.Context, from, to S, event E)

// Transition defines a state change triggered by an event.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order before the state changes
}

// Machine is a thread-safe in-memory finite state machine.
// Transitions are indexed as [from][event][]Transition.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	current     S
	transitions map[S]map[E][]Transition[S, E]
	terminal    map[S]struct{}
	hooks       []Hook[S, E]
}

// New creates a machine starting in initial.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
		terminal:    make(map[S]struct{}),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on an invalid option.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsTerminal reports whether the machine has reached a state marked terminal.
func (m *Machine[S, E]) IsTerminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.terminal[m.current]
	return ok
}

// AddTransition registers a transition. Several transitions may share the
// same from/event pair; the first whose guards pass is taken.
func (m *Machine[S, E]) AddTransition(t Transition[S, E]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.terminal[t.From]; ok {
		return NewErrTerminalState(fmt.Sprint(t.From))
	}
	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	return nil
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()

	from := m.current
	t, err := m.match(ctx, event, data)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.To
	hooks := m.hooks
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, from, t.To, event)
	}
	return nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.match(ctx, event, data)
	return err == nil
}

// match must be called with m.mu held.
func (m *Machine[S, E]) match(ctx context.Context, event E, data any) (Transition[S, E], error) {
	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return Transition[S, E]{}, NewErrNoTransitionAvailable(fmt.Sprint(m.current), fmt.Sprint(event))
	}

	for _, t := range candidates {
		if m.allow(ctx, t, event, data) {
			return t, nil
		}
	}
	return Transition[S, E]{}, NewErrTransitionRejected(fmt.Sprint(m.current), fmt.Sprint(event))
}

func (m *Machine[S, E]) allow(ctx context.Context, t Transition[S, E], event E, data any) bool {
	for _, guard := range t.Guards {
		if !guard(ctx, m.current, event, data) {
			return false
		}
	}
	return true
}
