// Package accessor reads and writes billing data through the query cache.
//
// Each read binds one API resource to a fixed query key:
//
//	Prices         ["prices"]              GET PRICES
//	Products       ["products"]            GET PRODUCTS
//	Subscription   ["subscription", id]    GET SUBSCRIPTION/{id}, disabled for ""
//	Subscriptions  ["subscriptions"]       GET SUBSCRIPTIONS
//
// Read failures are logged and reported as *Error, whose message is the
// server's detail text or a fixed fallback such as "Failed to fetch prices".
// errors.Is tells the three kinds apart: ErrServerRejected, ErrNoResponse and
// ErrRequestSetup.
//
// Writes are query.Mutation values: AttachSubscription, CreateCheckoutSession
// and CreatePortalSession. They report the client's errors unchanged. Cache
// invalidation after a write belongs in the caller's OnSuccess callback:
//
//	attach := acc.AttachSubscription(query.Callbacks[json.RawMessage]{
//	    OnSuccess: func(json.RawMessage) {
//	        acc.Queries().Invalidate(accessor.SubscriptionsKey())
//	    },
//	})
package accessor
