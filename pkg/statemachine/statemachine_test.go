package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/statemachine"
)

type state string

type event string

const (
	draft     state = "draft"
	inReview  state = "in_review"
	approved  state = "approved"
	rejected  state = "rejected"
	published state = "published"

	submit  event = "submit"
	approve event = "approve"
	reject  event = "reject"
	publish event = "publish"
)

func TestMachine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("basic transitions", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew[state, event](draft,
			statemachine.WithTransition[state, event](draft, inReview, submit),
			statemachine.WithTransition[state, event](inReview, approved, approve),
		)
		assert.Equal(t, draft, m.Current())
		assert.True(t, m.CanFire(ctx, submit, nil))
		assert.False(t, m.CanFire(ctx, approve, nil))

		require.NoError(t, m.Fire(ctx, submit, nil))
		assert.Equal(t, inReview, m.Current())
		require.NoError(t, m.Fire(ctx, approve, nil))
		assert.Equal(t, approved, m.Current())
	})

	t.Run("no transition", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew[state, event](draft)

		err := m.Fire(ctx, publish, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.EqualError(t, err, "no transition available from state 'draft' for event 'publish'")
		assert.Equal(t, draft, m.Current())
	})

	t.Run("guards choose the first passing transition", func(t *testing.T) {
		t.Parallel()
		isOwner := func(_ context.Context, _ state, _ event, data any) bool {
			return data == "owner"
		}
		isEditor := func(_ context.Context, _ state, _ event, data any) bool {
			return data == "editor"
		}

		build := func() *statemachine.Machine[state, event] {
			return statemachine.MustNew[state, event](inReview,
				statemachine.WithTransition(inReview, approved, approve, statemachine.WithGuard(isOwner)),
				statemachine.WithTransition(inReview, rejected, approve, statemachine.WithGuard(isEditor)),
			)
		}

		m := build()
		require.NoError(t, m.Fire(ctx, approve, "owner"))
		assert.Equal(t, approved, m.Current())

		m = build()
		require.NoError(t, m.Fire(ctx, approve, "editor"))
		assert.Equal(t, rejected, m.Current())

		m = build()
		assert.False(t, m.CanFire(ctx, approve, "guest"))
		err := m.Fire(ctx, approve, "guest")
		assert.True(t, statemachine.IsTransitionRejectedError(err))
		assert.Equal(t, inReview, m.Current())
	})

	t.Run("failing action aborts", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		var ran []string
		m := statemachine.MustNew[state, event](draft,
			statemachine.WithTransition(draft, inReview, submit, statemachine.WithAction(
				func(_ context.Context, from, to state, _ event, _ any) error {
					ran = append(ran, string(from)+"->"+string(to))
					return nil
				},
				func(context.Context, state, state, event, any) error { return boom },
			)),
		)

		err := m.Fire(ctx, submit, nil)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"draft->in_review"}, ran)
		assert.Equal(t, draft, m.Current())
	})

	t.Run("hooks observe completed transitions", func(t *testing.T) {
		t.Parallel()
		var seen []string
		var m *statemachine.Machine[state, event]
		m = statemachine.MustNew[state, event](draft,
			statemachine.WithTransition[state, event](draft, inReview, submit),
			statemachine.WithHook(func(_ context.Context, from, to state, ev event) {
				seen = append(seen, string(from)+"-"+string(ev)+"->"+string(to))
				assert.Equal(t, to, m.Current())
			}),
		)

		require.NoError(t, m.Fire(ctx, submit, nil))
		assert.Error(t, m.Fire(ctx, submit, nil))
		assert.Equal(t, []string{"draft-submit->in_review"}, seen)
	})

	t.Run("terminal states", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew[state, event](draft,
			statemachine.WithTerminal[state, event](published),
			statemachine.WithTransition[state, event](draft, published, publish),
		)
		assert.False(t, m.IsTerminal())
		require.NoError(t, m.Fire(ctx, publish, nil))
		assert.True(t, m.IsTerminal())

		err := m.AddTransition(statemachine.Transition[state, event]{From: published, To: draft, Event: submit})
		assert.True(t, statemachine.IsTerminalStateError(err))

		_, err = statemachine.New[state, event](draft,
			statemachine.WithTransition[state, event](published, draft, submit),
			statemachine.WithTerminal[state, event](published),
		)
		assert.True(t, statemachine.IsTerminalStateError(err))
	})

	t.Run("batch transitions", func(t *testing.T) {
		t.Parallel()
		m, err := statemachine.New[state, event](draft,
			statemachine.WithTerminal[state, event](published),
			statemachine.WithTransitions(
				statemachine.Transition[state, event]{From: draft, To: approved, Event: approve},
				statemachine.Transition[state, event]{From: approved, To: published, Event: publish},
			),
		)
		require.NoError(t, err)
		require.NoError(t, m.Fire(ctx, approve, nil))
		require.NoError(t, m.Fire(ctx, publish, nil))
		assert.Equal(t, published, m.Current())

		assert.Panics(t, func() {
			statemachine.MustNew[state, event](draft,
				statemachine.WithTerminal[state, event](published),
				statemachine.WithTransitions(statemachine.Transition[state, event]{From: published, To: draft, Event: submit}),
			)
		})
	})
}

func TestMachineConcurrentFire(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew[state, event](draft,
		statemachine.WithTransition[state, event](draft, inReview, submit),
	)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Fire(context.Background(), submit, nil) == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, inReview, m.Current())
}
