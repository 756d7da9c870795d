// Package apiclient is the HTTP client for the billing API.
//
// Resources are addressed by logical name (PRICES, PRODUCTS, SUBSCRIPTION,
// SUBSCRIPTIONS, CHECKOUT, PORTAL) and resolved to paths by a Resolver. The
// default PathResolver joins the configured API prefix with per-resource
// paths, all loaded from BILLING_* environment variables.
//
//	client, err := apiclient.New(cfg, apiclient.WithLogger(log))
//	resp, err := client.Get(ctx, apiclient.Subscription.At(id))
//	var sub billing.Subscription
//	err = resp.Decode(&sub)
//
// Failures come in three distinguishable kinds: *RequestError when the request
// could not be built, *NoResponseError when it was sent but no response
// arrived, and *ResponseError for non-2xx statuses. ResponseError.Detail
// carries the server's "detail" message when present.
//
// Every request carries an X-Request-ID header taken from the context, or a
// generated one, through requestid.Transport.
package apiclient
