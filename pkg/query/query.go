package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/billingkit/pkg/backoff"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Producer fetches the data of a query. Its context is detached from the
// caller's cancellation: once started, a fetch runs to completion and its
// result is cached even if every caller stopped waiting.
type Producer[T any] func(ctx context.Context) (T, error)

type queryOptions struct {
	enabled    bool
	staleTime  time.Duration
	retry      int
	retryDelay backoff.Strategy
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

// Enabled turns fetching on or off. A disabled query never calls its producer
// and reports the cached state of its key, which is empty for keys never
// fetched.
func Enabled(enabled bool) QueryOption {
	return func(o *queryOptions) {
		o.enabled = enabled
	}
}

// StaleTime overrides the client's stale time for one call.
func StaleTime(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		if d >= 0 {
			o.staleTime = d
		}
	}
}

// Retry re-runs a failing producer up to n more times before reporting the
// error. Retries are immediate unless RetryDelay is set.
func Retry(n int) QueryOption {
	return func(o *queryOptions) {
		if n >= 0 {
			o.retry = n
		}
	}
}

// RetryDelay spaces retries according to s, e.g. backoff.Default().
func RetryDelay(s backoff.Strategy) QueryOption {
	return func(o *queryOptions) {
		o.retryDelay = s
	}
}

// Query returns the data for key, fetching it with producer unless the cache
// holds fresh data. Concurrent calls for the same key share one producer
// invocation and observe the same outcome.
//
// When ctx ends before the fetch does, Query returns the cached snapshot with
// Error set to ErrQueryAbandoned; the fetch itself continues.
func Query[T any](ctx context.Context, c *Client, key Key, producer Producer[T], opts ...QueryOption) Result[T] {
	o := queryOptions{enabled: true, staleTime: c.staleTime, retry: c.retry, retryDelay: c.delay}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.enabled {
		return Observe[T](c, key)
	}
	if producer == nil {
		return Result[T]{Error: ErrNilProducer}
	}

	hash := key.Hash()
	name := key.Name()

	c.mu.Lock()
	e := c.lookup(key, hash)
	if c.fresh(e, o.staleTime) {
		r := snapshot[T](e)
		c.mu.Unlock()
		c.metrics.hit(name)
		return r
	}
	joining := e.fetching > 0
	c.mu.Unlock()

	if joining {
		c.metrics.joined(name)
	}

	detached := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(hash, func() (any, error) {
		return fetch(detached, c, key, hash, producer, o)
	})

	select {
	case res := <-ch:
		e, _ := res.Val.(*entry)
		if e == nil {
			return Result[T]{Error: res.Err}
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return snapshot[T](e)
	case <-ctx.Done():
		r := Observe[T](c, key)
		r.Error = errors.Join(ErrQueryAbandoned, ctx.Err())
		return r
	}
}

// Refetch marks key stale and queries it again.
func Refetch[T any](ctx context.Context, c *Client, key Key, producer Producer[T], opts ...QueryOption) Result[T] {
	hash := key.Hash()
	c.invalidate(func(k Key) bool { return k.Hash() == hash })
	return Query(ctx, c, key, producer, opts...)
}

// Observe returns the cached state of key without fetching.
func Observe[T any](c *Client, key Key) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Peek(key.Hash())
	if !ok {
		return Result[T]{}
	}
	return snapshot[T](e)
}

// SetData stores data for key as if a fetch had just succeeded.
// Any fetch already running for key has its result discarded.
func SetData[T any](c *Client, key Key, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(key, key.Hash())
	e.generation++
	e.data = data
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.updatedAt = c.now()
}

// fetch runs producer for the entry of key and records its outcome, unless a
// newer fetch or write started meanwhile.
func fetch[T any](ctx context.Context, c *Client, key Key, hash string, producer Producer[T], o queryOptions) (*entry, error) {
	name := key.Name()

	c.mu.Lock()
	e := c.lookup(key, hash)
	if c.fresh(e, o.staleTime) {
		// A flight for this key settled between the caller's check and now.
		c.mu.Unlock()
		c.metrics.hit(name)
		return e, nil
	}
	e.generation++
	gen := e.generation
	e.fetching++
	c.mu.Unlock()

	c.metrics.started(name)
	start := time.Now()
	data, err := produce(ctx, producer, o.retry, o.retryDelay)
	c.metrics.finished(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	e.fetching--
	if gen != e.generation {
		c.metrics.droppedStale(name)
		c.logger.DebugContext(ctx, "discarding superseded query result",
			logger.QueryKey(key),
			logger.Error(err),
		)
		return e, nil
	}

	if err != nil {
		e.err = err
		c.metrics.fetched(name, "error")
		c.logger.DebugContext(ctx, "query fetch failed",
			logger.QueryKey(key),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		return e, err
	}

	e.data = data
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.updatedAt = c.now()
	c.metrics.fetched(name, "success")
	c.logger.DebugContext(ctx, "query fetched",
		logger.QueryKey(key),
		logger.Duration(time.Since(start)),
	)
	return e, nil
}

func produce[T any](ctx context.Context, producer Producer[T], retry int, delay backoff.Strategy) (data T, err error) {
	for attempt := 0; attempt <= retry; attempt++ {
		if attempt > 0 && delay != nil {
			if werr := backoff.Wait(ctx, delay.NextInterval(attempt)); werr != nil {
				return data, errors.Join(err, werr)
			}
		}
		data, err = safeProduce(ctx, producer)
		if err == nil {
			return data, nil
		}
	}
	return data, err
}

func safeProduce[T any](ctx context.Context, producer Producer[T]) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProducerPanic, r)
		}
	}()
	return producer(ctx)
}

// snapshot converts e to a typed result. Caller holds c.mu.
func snapshot[T any](e *entry) Result[T] {
	r := Result[T]{
		Error:      e.err,
		IsFetching: e.fetching > 0,
		IsLoading:  e.fetching > 0 && !e.hasData,
		UpdatedAt:  e.updatedAt,
	}
	if !e.hasData {
		return r
	}

	data, ok := e.data.(T)
	if !ok {
		r.Error = errors.Join(r.Error, fmt.Errorf("%w: have %T", ErrTypeMismatch, e.data))
		return r
	}
	r.Data = data
	r.HasData = true
	return r
}
