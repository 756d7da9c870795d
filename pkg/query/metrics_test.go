package query_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/query"
)

func TestMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	metrics, err := query.NewMetrics(reg)
	require.NoError(t, err)

	client := query.NewClient(query.WithMetrics(metrics), query.WithStaleTime(time.Hour))
	ok := func(context.Context) (string, error) { return "ok", nil }
	fail := func(context.Context) (string, error) { return "", errors.New("down") }

	query.Query(ctx, client, query.Key{"prices"}, ok)
	query.Query(ctx, client, query.Key{"prices"}, ok)
	query.Query(ctx, client, query.Key{"products"}, fail)

	m := query.NewMutation(query.Key{"checkout"}, func(context.Context, string) (string, error) {
		return "sess", nil
	}, query.Callbacks[string]{}, query.MutationMetrics(metrics))
	m.Mutate(ctx, "price_1")

	expected := `
# HELP billing_query_fetches_total Producer invocations by query and outcome.
# TYPE billing_query_fetches_total counter
billing_query_fetches_total{outcome="error",query="products"} 1
billing_query_fetches_total{outcome="success",query="prices"} 1
# HELP billing_query_cache_hits_total Queries answered from fresh cached data.
# TYPE billing_query_cache_hits_total counter
billing_query_cache_hits_total{query="prices"} 1
# HELP billing_mutation_dispatches_total Mutation dispatches by mutation and outcome.
# TYPE billing_mutation_dispatches_total counter
billing_mutation_dispatches_total{mutation="checkout",outcome="success"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"billing_query_fetches_total",
		"billing_query_cache_hits_total",
		"billing_mutation_dispatches_total",
	)
	assert.NoError(t, err)
}

func TestMetricsRegisteredTwice(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()

	_, err := query.NewMetrics(reg)
	require.NoError(t, err)
	second, err := query.NewMetrics(reg)
	require.NoError(t, err)
	require.NotNil(t, second)

	client := query.NewClient(query.WithMetrics(second))
	query.Query(context.Background(), client, query.Key{"prices"}, func(context.Context) (int, error) {
		return 1, nil
	})

	count, err := testutil.GatherAndCount(reg, "billing_query_fetches_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()
	client := query.NewClient(query.WithMetrics(nil))
	res := query.Query(context.Background(), client, query.Key{"prices"}, func(context.Context) (int, error) {
		return 1, nil
	})
	assert.Equal(t, 1, res.Data)
}
