package accessor

import (
	"context"
	"errors"

	"github.com/dmitrymomot/billingkit/pkg/apiclient"
	"github.com/dmitrymomot/billingkit/pkg/async"
	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/query"
)

// Prices lists every price.
func (a *Accessor) Prices(ctx context.Context, opts ...query.QueryOption) query.Result[[]billing.Price] {
	res := query.Query(ctx, a.queries, PricesKey(),
		fetch[[]billing.Price](a, "list prices", "Failed to fetch prices", apiclient.Prices.At()),
		opts...)
	if a.store != nil && res.IsSuccess() {
		a.store.SetPrices(res.Data)
	}
	return res
}

// Products lists every product with its prices.
func (a *Accessor) Products(ctx context.Context, opts ...query.QueryOption) query.Result[[]billing.ProductWithPrices] {
	res := query.Query(ctx, a.queries, ProductsKey(),
		fetch[[]billing.ProductWithPrices](a, "list products", "Failed to fetch products", apiclient.Products.At()),
		opts...)
	if a.store != nil && res.IsSuccess() {
		a.store.SetProducts(res.Data)
	}
	return res
}

// Subscription fetches one subscription with its price and product. An empty
// id disables the query: no request is made and Data is nil.
func (a *Accessor) Subscription(ctx context.Context, id string, opts ...query.QueryOption) query.Result[*billing.SubscriptionWithProduct] {
	if id == "" {
		opts = append(opts, query.Enabled(false))
	}
	res := query.Query(ctx, a.queries, SubscriptionKey(id),
		fetch[*billing.SubscriptionWithProduct](a, "get subscription", "Failed to fetch subscription", apiclient.Subscription.At(id)),
		opts...)
	if a.store != nil && res.IsSuccess() {
		if res.Data == nil {
			a.store.SetSubscription(nil)
		} else {
			a.store.SetSubscription(&res.Data.Subscription)
		}
	}
	return res
}

// Subscriptions lists the user's subscriptions.
func (a *Accessor) Subscriptions(ctx context.Context, opts ...query.QueryOption) query.Result[[]billing.Subscription] {
	res := query.Query(ctx, a.queries, SubscriptionsKey(),
		fetch[[]billing.Subscription](a, "list subscriptions", "Failed to fetch subscriptions", apiclient.Subscriptions.At()),
		opts...)
	if a.store != nil && res.IsSuccess() {
		a.store.SetSubscriptions(res.Data)
	}
	return res
}

// Prefetch loads prices, products and subscriptions concurrently. It waits
// for all three and returns the first failure.
func (a *Accessor) Prefetch(ctx context.Context) error {
	run := func(read func(context.Context) error) *async.Future[struct{}] {
		return async.Async(ctx, read, func(ctx context.Context, read func(context.Context) error) (struct{}, error) {
			return struct{}{}, read(ctx)
		})
	}

	_, err := async.WaitAll(
		run(func(ctx context.Context) error { return a.Prices(ctx).Error }),
		run(func(ctx context.Context) error { return a.Products(ctx).Error }),
		run(func(ctx context.Context) error { return a.Subscriptions(ctx).Error }),
	)
	return err
}

// fetch builds the producer for a read of ep decoding into T.
func fetch[T any](a *Accessor, op, fallback string, ep apiclient.Endpoint) query.Producer[T] {
	return func(ctx context.Context) (T, error) {
		var out T

		resp, err := a.api.Get(ctx, ep)
		if err == nil {
			err = resp.Decode(&out)
		}
		if err != nil {
			nerr := normalize(op, fallback, err)
			a.logFailure(ctx, nerr, ep, err)
			var zero T
			return zero, nerr
		}
		return out, nil
	}
}

func (a *Accessor) logFailure(ctx context.Context, nerr *Error, ep apiclient.Endpoint, cause error) {
	attrs := []any{
		"op", nerr.Op,
		"kind", nerr.Kind.String(),
		logger.Resource(ep.String()),
		logger.Error(cause),
	}
	var respErr *apiclient.ResponseError
	if errors.As(cause, &respErr) {
		attrs = append(attrs, logger.StatusCode(respErr.StatusCode), "url", respErr.URL)
		if respErr.RequestID != "" {
			attrs = append(attrs, logger.RequestID(respErr.RequestID))
		}
	}
	a.logger.ErrorContext(ctx, nerr.Message, attrs...)
}
