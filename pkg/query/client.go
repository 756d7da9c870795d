package query

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/billingkit/pkg/backoff"
	"github.com/dmitrymomot/billingkit/pkg/cache"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Config holds query cache settings loaded from the environment.
type Config struct {
	CacheSize int           `env:"QUERY_CACHE_SIZE" envDefault:"256"`
	StaleTime time.Duration `env:"QUERY_STALE_TIME" envDefault:"0s"`
	// Retry is the default number of retries per fetch, spaced by backoff.Default.
	Retry int `env:"QUERY_RETRY" envDefault:"0"`
}

const defaultCacheSize = 256

// Client is a process-wide cache of query results keyed by Key.
// It deduplicates concurrent fetches of the same key and keeps the last
// successful data of a key when a later fetch fails.
type Client struct {
	mu        sync.Mutex
	entries   *cache.LRUCache[string, *entry]
	flights   singleflight.Group
	staleTime time.Duration
	retry     int
	delay     backoff.Strategy
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	generation  uint64
	fetching    int
	invalidated bool
}

type clientOptions struct {
	size      int
	staleTime time.Duration
	retry     int
	delay     backoff.Strategy
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

// Option configures a Client.
type Option func(*clientOptions)

// WithCacheSize bounds the number of cached keys. Least recently used keys are
// evicted first.
func WithCacheSize(size int) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithStaleTime sets how long successful data is served without refetching.
// Zero means every Query call refetches.
func WithStaleTime(d time.Duration) Option {
	return func(o *clientOptions) {
		if d >= 0 {
			o.staleTime = d
		}
	}
}

// WithRetry sets the default retry count and delay for every Query.
// A nil delay retries immediately.
func WithRetry(n int, delay backoff.Strategy) Option {
	return func(o *clientOptions) {
		if n >= 0 {
			o.retry = n
			o.delay = delay
		}
	}
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records cache activity on m.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewClient creates an empty query cache.
func NewClient(opts ...Option) *Client {
	o := &clientOptions{
		size:   defaultCacheSize,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Client{
		entries:   cache.NewLRUCache[string, *entry](o.size),
		staleTime: o.staleTime,
		retry:     o.retry,
		delay:     o.delay,
		logger:    o.logger.With(logger.Component("query")),
		metrics:   o.metrics,
		now:       o.now,
	}
}

// NewClientFromConfig creates a client sized and timed by cfg.
// Explicit options override the config.
func NewClientFromConfig(cfg Config, opts ...Option) *Client {
	base := []Option{
		WithCacheSize(cfg.CacheSize),
		WithStaleTime(cfg.StaleTime),
		WithRetry(cfg.Retry, backoff.Default()),
	}
	return NewClient(append(base, opts...)...)
}

// Invalidate marks every cached key starting with prefix as stale, so the next
// Query for it fetches again. Cached data stays readable until replaced.
// It returns the number of keys marked.
func (c *Client) Invalidate(prefix Key) int {
	return c.invalidate(func(k Key) bool { return k.HasPrefix(prefix) })
}

func (c *Client) invalidate(match func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	c.entries.Range(func(hash string, e *entry) bool {
		if match(e.key) {
			e.invalidated = true
			c.flights.Forget(hash)
			n++
		}
		return true
	})
	return n
}

// Remove drops key from the cache. A fetch still running for it completes
// without restoring the entry.
func (c *Client) Remove(key Key) {
	hash := key.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries.Remove(hash); ok {
		e.generation++
	}
	c.flights.Forget(hash)
}

// Reset drops every cached key.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Range(func(hash string, e *entry) bool {
		e.generation++
		c.flights.Forget(hash)
		return true
	})
	c.entries.Clear()
}

// IsFetching returns how many keys starting with prefix have a fetch in flight.
func (c *Client) IsFetching(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	c.entries.Range(func(_ string, e *entry) bool {
		if e.fetching > 0 && e.key.HasPrefix(prefix) {
			n++
		}
		return true
	})
	return n
}

// Len returns the number of cached keys.
func (c *Client) Len() int {
	return c.entries.Len()
}

// lookup returns the entry for key, creating it when absent. Caller holds c.mu.
func (c *Client) lookup(key Key, hash string) *entry {
	e, _ := c.entries.GetOrPut(hash, func() *entry {
		return &entry{key: key}
	})
	return e
}

// fresh reports whether e can answer a query without fetching. Caller holds c.mu.
func (c *Client) fresh(e *entry, staleTime time.Duration) bool {
	if !e.hasData || e.err != nil || e.invalidated || staleTime <= 0 {
		return false
	}
	return c.now().Sub(e.updatedAt) < staleTime
}
