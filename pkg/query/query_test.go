package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/backoff"
	"github.com/dmitrymomot/billingkit/pkg/query"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func constant[T any](v T, calls *atomic.Int32) query.Producer[T] {
	return func(context.Context) (T, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestQueryFetchesAndCaches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	key := query.Key{"prices"}

	t.Run("zero stale time refetches every call", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient()
		var calls atomic.Int32

		res := query.Query(ctx, client, key, constant([]string{"price_1"}, &calls))
		require.True(t, res.IsSuccess())
		assert.Equal(t, []string{"price_1"}, res.Data)
		assert.False(t, res.IsLoading)
		assert.False(t, res.IsFetching)

		query.Query(ctx, client, key, constant([]string{"price_1"}, &calls))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("fresh data is served from cache", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		client := query.NewClient(query.WithStaleTime(time.Minute), query.WithClock(clock.Now))
		var calls atomic.Int32

		query.Query(ctx, client, key, constant(1, &calls))
		res := query.Query(ctx, client, key, constant(2, &calls))
		assert.Equal(t, 1, res.Data)
		assert.Equal(t, int32(1), calls.Load())

		clock.Advance(time.Minute)
		res = query.Query(ctx, client, key, constant(2, &calls))
		assert.Equal(t, 2, res.Data)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("per call stale time override", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient(query.WithStaleTime(time.Hour))
		var calls atomic.Int32

		query.Query(ctx, client, key, constant(1, &calls))
		query.Query(ctx, client, key, constant(1, &calls), query.StaleTime(0))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("config", func(t *testing.T) {
		t.Parallel()
		client := query.NewClientFromConfig(query.Config{CacheSize: 1, StaleTime: time.Hour})
		var calls atomic.Int32

		query.Query(ctx, client, query.Key{"a"}, constant(1, &calls))
		query.Query(ctx, client, query.Key{"b"}, constant(2, &calls))
		assert.Equal(t, 1, client.Len())

		query.Query(ctx, client, query.Key{"b"}, constant(2, &calls))
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestQueryDeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := query.NewClient(query.WithStaleTime(time.Hour))
	key := query.Key{"products"}

	var calls atomic.Int32
	release := make(chan struct{})
	producer := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "catalog", nil
	}

	const callers = 20
	results := make([]query.Result[string], callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = query.Query(ctx, client, key, producer)
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, res := range results {
		assert.Equal(t, "catalog", res.Data)
		assert.NoError(t, res.Error)
	}
}

func TestQueryLatestFetchWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := query.NewClient()
	key := query.Key{"subscriptions"}

	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(context.Context) (string, error) {
		close(started)
		<-release
		return "old", nil
	}

	done := make(chan query.Result[string])
	go func() {
		done <- query.Query(ctx, client, key, slow)
	}()
	<-started

	var calls atomic.Int32
	res := query.Refetch(ctx, client, key, constant("new", &calls))
	require.NoError(t, res.Error)
	assert.Equal(t, "new", res.Data)

	close(release)
	first := <-done
	assert.Equal(t, "new", first.Data)
	assert.Equal(t, "new", query.Observe[string](client, key).Data)
}

func TestQuerySetDataSupersedesRunningFetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := query.NewClient()
	key := query.Key{"subscription", "sub_1"}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		query.Query(ctx, client, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "fetched", nil
		})
	}()
	<-started

	query.SetData(client, key, "written")
	close(release)
	<-done

	assert.Equal(t, "written", query.Observe[string](client, key).Data)
}

func TestQueryKeepsDataOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := query.NewClient()
	key := query.Key{"prices"}
	boom := errors.New("server rejected")

	var calls atomic.Int32
	query.Query(ctx, client, key, constant("v1", &calls))

	res := query.Query(ctx, client, key, func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, res.Error, boom)
	assert.True(t, res.IsError())
	assert.True(t, res.HasData)
	assert.Equal(t, "v1", res.Data)

	res = query.Query(ctx, client, key, constant("v2", &calls))
	assert.NoError(t, res.Error)
	assert.Equal(t, "v2", res.Data)
}

func TestQueryLoadingFlags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := query.NewClient()
	key := query.Key{"subscriptions"}

	fetchBlocked := func(v string) (query.Producer[string], chan struct{}, chan struct{}) {
		started := make(chan struct{})
		release := make(chan struct{})
		return func(context.Context) (string, error) {
			close(started)
			<-release
			return v, nil
		}, started, release
	}

	producer, started, release := fetchBlocked("first")
	done := make(chan struct{})
	go func() {
		defer close(done)
		query.Query(ctx, client, key, producer)
	}()
	<-started

	res := query.Observe[string](client, key)
	assert.True(t, res.IsLoading)
	assert.True(t, res.IsFetching)
	assert.Equal(t, 1, client.IsFetching(query.Key{"subscriptions"}))
	close(release)
	<-done

	producer, started, release = fetchBlocked("second")
	done = make(chan struct{})
	go func() {
		defer close(done)
		query.Query(ctx, client, key, producer)
	}()
	<-started

	res = query.Observe[string](client, key)
	assert.False(t, res.IsLoading)
	assert.True(t, res.IsFetching)
	assert.Equal(t, "first", res.Data)
	close(release)
	<-done

	res = query.Observe[string](client, key)
	assert.False(t, res.IsFetching)
	assert.Equal(t, "second", res.Data)
	assert.Zero(t, client.IsFetching(nil))
}

func TestQueryDisabled(t *testing.T) {
	t.Parallel()
	client := query.NewClient()
	var calls atomic.Int32

	res := query.Query(context.Background(), client, query.Key{"subscription", ""},
		constant("never", &calls), query.Enabled(false))

	assert.Zero(t, calls.Load())
	assert.False(t, res.IsLoading)
	assert.False(t, res.IsFetching)
	assert.False(t, res.HasData)
	assert.NoError(t, res.Error)
	assert.Empty(t, res.Data)
	assert.Zero(t, client.Len())
}

func TestQueryAbandonedCallerDoesNotCancelFetch(t *testing.T) {
	t.Parallel()
	client := query.NewClient()
	key := query.Key{"products"}

	started := make(chan struct{})
	release := make(chan struct{})
	var sawCancel atomic.Bool
	producer := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan query.Result[string])
	go func() {
		done <- query.Query(ctx, client, key, producer)
	}()
	<-started
	cancel()

	res := <-done
	assert.ErrorIs(t, res.Error, query.ErrQueryAbandoned)
	assert.ErrorIs(t, res.Error, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return query.Observe[string](client, key).Data == "late"
	}, time.Second, time.Millisecond)
	assert.False(t, sawCancel.Load())
}

func TestQueryFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("producer panic", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient()
		res := query.Query(ctx, client, query.Key{"prices"}, func(context.Context) (int, error) {
			panic("bad payload")
		})
		assert.ErrorIs(t, res.Error, query.ErrProducerPanic)
	})

	t.Run("nil producer", func(t *testing.T) {
		t.Parallel()
		res := query.Query[int](ctx, query.NewClient(), query.Key{"prices"}, nil)
		assert.ErrorIs(t, res.Error, query.ErrNilProducer)
	})

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient()
		query.SetData(client, query.Key{"prices"}, 42)
		res := query.Observe[string](client, query.Key{"prices"})
		assert.ErrorIs(t, res.Error, query.ErrTypeMismatch)
		assert.False(t, res.HasData)
	})

	t.Run("retry", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient()
		var calls atomic.Int32
		res := query.Query(ctx, client, query.Key{"prices"}, func(context.Context) (string, error) {
			if calls.Add(1) < 3 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		}, query.Retry(2))

		require.NoError(t, res.Error)
		assert.Equal(t, "ok", res.Data)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("retry delay", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient()
		var attempts []int
		delay := backoff.StrategyFunc(func(attempt int) time.Duration {
			attempts = append(attempts, attempt)
			return time.Millisecond
		})
		res := query.Query(ctx, client, query.Key{"prices"}, func(context.Context) (string, error) {
			return "", errors.New("down")
		}, query.Retry(2), query.RetryDelay(delay))

		assert.EqualError(t, res.Error, "down")
		assert.Equal(t, []int{1, 2}, attempts)
	})

	t.Run("client retry default", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient(query.WithRetry(1, backoff.Fixed{}))
		var calls atomic.Int32
		producer := func(context.Context) (string, error) {
			calls.Add(1)
			return "", errors.New("down")
		}

		query.Query(ctx, client, query.Key{"prices"}, producer)
		assert.Equal(t, int32(2), calls.Load())

		query.Query(ctx, client, query.Key{"products"}, producer, query.Retry(0))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("no retry by default", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient()
		var calls atomic.Int32
		res := query.Query(ctx, client, query.Key{"prices"}, func(context.Context) (string, error) {
			calls.Add(1)
			return "", errors.New("down")
		})
		assert.Error(t, res.Error)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClientEntryManagement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("invalidate by prefix", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient(query.WithStaleTime(time.Hour))
		var calls atomic.Int32

		query.Query(ctx, client, query.Key{"subscription", "a"}, constant(1, &calls))
		query.Query(ctx, client, query.Key{"subscription", "b"}, constant(1, &calls))
		query.Query(ctx, client, query.Key{"prices"}, constant(1, &calls))

		assert.Equal(t, 2, client.Invalidate(query.Key{"subscription"}))

		// Invalidated data stays readable until replaced.
		assert.Equal(t, 1, query.Observe[int](client, query.Key{"subscription", "a"}).Data)

		query.Query(ctx, client, query.Key{"subscription", "a"}, constant(2, &calls))
		query.Query(ctx, client, query.Key{"prices"}, constant(2, &calls))
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("set data then query within stale time", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient(query.WithStaleTime(time.Hour))
		var calls atomic.Int32

		query.SetData(client, query.Key{"subscriptions"}, []string{"sub_1"})
		res := query.Query(ctx, client, query.Key{"subscriptions"}, constant([]string{}, &calls))
		assert.Equal(t, []string{"sub_1"}, res.Data)
		assert.Zero(t, calls.Load())
	})

	t.Run("remove and reset", func(t *testing.T) {
		t.Parallel()
		client := query.NewClient()
		query.SetData(client, query.Key{"a"}, 1)
		query.SetData(client, query.Key{"b"}, 2)

		client.Remove(query.Key{"a"})
		assert.False(t, query.Observe[int](client, query.Key{"a"}).HasData)
		assert.Equal(t, 1, client.Len())

		client.Reset()
		assert.Zero(t, client.Len())
		assert.False(t, query.Observe[int](client, query.Key{"b"}).HasData)
	})
}
