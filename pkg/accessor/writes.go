package accessor

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/billingkit/pkg/apiclient"
	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/query"
)

// AttachSubscription returns a mutation that stores a subscription with the
// billing API. The server's response body is returned unparsed. Failures are
// the client's raw errors.
func (a *Accessor) AttachSubscription(cb query.Callbacks[json.RawMessage]) *query.Mutation[billing.Subscription, json.RawMessage] {
	return query.NewMutation(query.Key{"subscriptions", "store"},
		func(ctx context.Context, sub billing.Subscription) (json.RawMessage, error) {
			resp, err := a.api.Post(ctx, apiclient.Subscriptions.At("store"), billing.AttachRequest{Subscription: sub})
			if err != nil {
				return nil, err
			}
			return resp.Data, nil
		},
		cb, a.mutationOptions()...)
}

// CreateCheckoutSession returns a mutation that asks the billing API for a
// checkout session.
func (a *Accessor) CreateCheckoutSession(cb query.Callbacks[billing.CheckoutSession]) *query.Mutation[billing.CheckoutRequest, billing.CheckoutSession] {
	return query.NewMutation(query.Key{"checkout"},
		func(ctx context.Context, req billing.CheckoutRequest) (billing.CheckoutSession, error) {
			var session billing.CheckoutSession
			resp, err := a.api.Post(ctx, apiclient.Checkout.At(), req)
			if err != nil {
				return session, err
			}
			err = resp.Decode(&session)
			return session, err
		},
		cb, a.mutationOptions()...)
}

// CreatePortalSession returns a mutation that asks the billing API for a
// customer portal URL. The server answers with an error redirect path instead
// when the user has no billing account.
func (a *Accessor) CreatePortalSession(cb query.Callbacks[string]) *query.Mutation[billing.PortalRequest, string] {
	return query.NewMutation(query.Key{"portal"},
		func(ctx context.Context, req billing.PortalRequest) (string, error) {
			resp, err := a.api.Post(ctx, apiclient.Portal.At(), req)
			if err != nil {
				return "", err
			}
			var url string
			err = resp.Decode(&url)
			return url, err
		},
		cb, a.mutationOptions()...)
}

func (a *Accessor) mutationOptions() []query.MutationOption {
	return []query.MutationOption{
		query.MutationLogger(a.logger),
		query.MutationMetrics(a.metrics),
	}
}
