package checkout

import (
	"context"

	"github.com/dmitrymomot/billingkit/pkg/statemachine"
)

// State is a checkout flow state.
type State string

const (
	StateIdle                    State = "idle"
	StateSubmitting              State = "submitting"
	StateRedirectExternal        State = "redirect_external"
	StateRedirectError           State = "redirect_error"
	StateRedirectUnauthenticated State = "redirect_unauthenticated"
)

// IsTerminal reports whether the flow ends in s.
func (s State) IsTerminal() bool {
	switch s {
	case StateRedirectExternal, StateRedirectError, StateRedirectUnauthenticated:
		return true
	}
	return false
}

type event string

const (
	eventNoUser         event = "no_user"
	eventSubmit         event = "submit"
	eventSessionCreated event = "session_created"
	eventServerRedirect event = "server_redirect"
	eventMissingSession event = "missing_session"
	eventFailed         event = "failed"
)

// signedIn guards transitions that need an authenticated user as event data.
func signedIn(_ context.Context, _ State, _ event, data any) bool {
	u, _ := data.(*User)
	return u != nil && u.ID != ""
}

func signedOut(ctx context.Context, from State, ev event, data any) bool {
	return !signedIn(ctx, from, ev, data)
}

// navigate moves the user to the *Outcome passed as event data before the
// machine enters the terminal state.
func navigate(nav Navigator) statemachine.Action[State, event] {
	return func(ctx context.Context, _, _ State, _ event, data any) error {
		out, ok := data.(*Outcome)
		if !ok || out == nil || out.Destination == "" {
			return ErrNoDestination
		}
		if out.External {
			nav.Redirect(ctx, out.Destination)
		} else {
			nav.Navigate(ctx, out.Destination)
		}
		return nil
	}
}

func newMachine(nav Navigator, hook statemachine.Hook[State, event]) *statemachine.Machine[State, event] {
	exit := statemachine.WithAction(navigate(nav))
	return statemachine.MustNew(StateIdle,
		statemachine.WithTerminal[State, event](StateRedirectExternal, StateRedirectError, StateRedirectUnauthenticated),
		statemachine.WithTransition(StateIdle, StateRedirectUnauthenticated, eventNoUser,
			statemachine.WithGuard[State, event](signedOut), exit),
		statemachine.WithTransition(StateIdle, StateSubmitting, eventSubmit,
			statemachine.WithGuard[State, event](signedIn)),
		statemachine.WithTransition(StateSubmitting, StateRedirectExternal, eventSessionCreated, exit),
		statemachine.WithTransition(StateSubmitting, StateRedirectError, eventServerRedirect, exit),
		statemachine.WithTransition(StateSubmitting, StateRedirectError, eventMissingSession, exit),
		statemachine.WithTransition(StateSubmitting, StateRedirectError, eventFailed, exit),
		statemachine.WithHook(hook),
	)
}
