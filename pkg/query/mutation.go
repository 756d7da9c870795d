package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/billingkit/pkg/async"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// MutationFunc performs a state-changing request.
type MutationFunc[P, R any] func(ctx context.Context, payload P) (R, error)

// Callbacks are invoked once per dispatch: OnSuccess with the result, or
// OnError with the failure. Either may be nil.
type Callbacks[R any] struct {
	OnSuccess func(result R)
	OnError   func(err error)
}

type mutationOptions struct {
	logger  *slog.Logger
	metrics *Metrics
}

// MutationOption configures a Mutation.
type MutationOption func(*mutationOptions)

// MutationLogger sets the logger for dispatch diagnostics.
func MutationLogger(l *slog.Logger) MutationOption {
	return func(o *mutationOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// MutationMetrics records dispatch outcomes on m.
func MutationMetrics(m *Metrics) MutationOption {
	return func(o *mutationOptions) {
		o.metrics = m
	}
}

// Mutation dispatches state-changing requests. Dispatches are never retried
// and never deduplicated: each call runs fn exactly once.
//
// The Mutation tracks the state of its latest settled dispatch, readable with
// IsPending, Data and Error.
type Mutation[P, R any] struct {
	key     Key
	fn      MutationFunc[P, R]
	cb      Callbacks[R]
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.Mutex
	pending int
	last    *MutationResult[R]
}

// NewMutation creates a dispatcher for fn. The key names the mutation in logs
// and metrics.
func NewMutation[P, R any](key Key, fn MutationFunc[P, R], cb Callbacks[R], opts ...MutationOption) *Mutation[P, R] {
	o := &mutationOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	return &Mutation[P, R]{
		key:     key,
		fn:      fn,
		cb:      cb,
		logger:  o.logger.With(logger.Component("mutation"), logger.QueryKey(key)),
		metrics: o.metrics,
	}
}

// Mutate runs fn with payload and blocks until it settles and the matching
// callback has returned. The request runs detached from ctx's cancellation.
//
// A panic in a callback is recovered and reported as ErrCallbackPanic in the
// returned result, joined with the request error if there was one.
func (m *Mutation[P, R]) Mutate(ctx context.Context, payload P) MutationResult[R] {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	res := m.dispatch(ctx, payload)

	outcome := "success"
	if res.Err != nil {
		outcome = "error"
		m.logger.WarnContext(ctx, "mutation failed",
			logger.Duration(time.Since(start)),
			logger.Error(res.Err),
		)
	}
	m.metrics.mutated(m.key.Name(), outcome)

	m.mu.Lock()
	m.pending--
	m.last = &res
	m.mu.Unlock()

	return res
}

// MutateAsync starts Mutate in its own goroutine and returns a Future for
// its outcome. A ctx that is already done prevents the dispatch.
func (m *Mutation[P, R]) MutateAsync(ctx context.Context, payload P) *async.Future[R] {
	return async.Async(ctx, payload, func(ctx context.Context, p P) (R, error) {
		res := m.Mutate(ctx, p)
		return res.Data, res.Err
	})
}

// IsPending reports whether a dispatch is in flight.
func (m *Mutation[P, R]) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Data returns the result of the latest settled dispatch, if it succeeded.
func (m *Mutation[P, R]) Data() (R, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil || m.last.Err != nil {
		var zero R
		return zero, false
	}
	return m.last.Data, true
}

// Error returns the failure of the latest settled dispatch.
func (m *Mutation[P, R]) Error() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil
	}
	return m.last.Err
}

// Reset forgets the latest settled dispatch.
func (m *Mutation[P, R]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = nil
}

func (m *Mutation[P, R]) dispatch(ctx context.Context, payload P) MutationResult[R] {
	if m.fn == nil {
		return m.fail(ErrNilProducer)
	}

	data, err := safeMutate(ctx, m.fn, payload)
	if err != nil {
		return m.fail(err)
	}

	if m.cb.OnSuccess != nil {
		if cbErr := recoverCallback(func() { m.cb.OnSuccess(data) }); cbErr != nil {
			return MutationResult[R]{Data: data, Err: cbErr}
		}
	}
	return MutationResult[R]{Data: data}
}

func (m *Mutation[P, R]) fail(err error) MutationResult[R] {
	if m.cb.OnError != nil {
		if cbErr := recoverCallback(func() { m.cb.OnError(err) }); cbErr != nil {
			err = errors.Join(err, cbErr)
		}
	}
	return MutationResult[R]{Err: err}
}

func safeMutate[P, R any](ctx context.Context, fn MutationFunc[P, R], payload P) (data R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProducerPanic, r)
		}
	}()
	return fn(ctx, payload)
}

func recoverCallback(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCallbackPanic, r)
		}
	}()
	fn()
	return nil
}
