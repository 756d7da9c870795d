// Package statemachine implements a small generic finite state machine.
//
// States and events are any comparable types, usually string constants:
//
//	type State string
//	type Event string
//
//	m := statemachine.MustNew[State, Event]("draft",
//	    statemachine.WithTerminal[State, Event]("published"),
//	    statemachine.WithTransition[State, Event]("draft", "published", "publish"),
//	)
//	err := m.Fire(ctx, "publish", nil)
//
// Several transitions may share a from/event pair; the first one whose guards
// all pass is taken. Actions run in order before the state changes, and a
// failing action aborts the transition. Hooks run after the change, outside
// the lock, so they may read the machine.
//
// Fire errors can be told apart with IsNoTransitionAvailableError and
// IsTransitionRejectedError. The machine is safe for concurrent use.
package statemachine
