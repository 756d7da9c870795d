package accessor

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/billingkit/pkg/apiclient"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/query"
	"github.com/dmitrymomot/billingkit/pkg/store"
)

// API is the subset of *apiclient.Client the accessors use.
type API interface {
	Get(ctx context.Context, ep apiclient.Endpoint) (*apiclient.Response, error)
	Post(ctx context.Context, ep apiclient.Endpoint, body any) (*apiclient.Response, error)
}

// Accessor binds billing API resources to query keys.
type Accessor struct {
	api     API
	queries *query.Client
	store   *store.Store
	logger  *slog.Logger
	metrics *query.Metrics
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithStore mirrors every successful read into s.
func WithStore(s *store.Store) Option {
	return func(a *Accessor) {
		a.store = s
	}
}

// WithLogger sets the logger for read failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *Accessor) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records mutation dispatches on m.
func WithMetrics(m *query.Metrics) Option {
	return func(a *Accessor) {
		a.metrics = m
	}
}

// New creates accessors reading through queries.
func New(api API, queries *query.Client, opts ...Option) *Accessor {
	a := &Accessor{
		api:     api,
		queries: queries,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("accessor"))
	return a
}

// Queries returns the query client the accessor reads through.
func (a *Accessor) Queries() *query.Client {
	return a.queries
}

func PricesKey() query.Key {
	return query.Key{"prices"}
}

func ProductsKey() query.Key {
	return query.Key{"products"}
}

func SubscriptionKey(id string) query.Key {
	return query.Key{"subscription", id}
}

func SubscriptionsKey() query.Key {
	return query.Key{"subscriptions"}
}
