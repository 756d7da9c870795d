// Package billing defines the billing domain model shared by the data
// accessors, the checkout flow and the subscription store: prices, products,
// subscriptions and their joined views, plus the checkout wire types.
//
// All entities are owned by the remote billing system. Local values are
// transient copies; nothing in this package performs I/O.
//
// # Entitlement
//
// Whether a user has paid access is decided by SubscriptionStatus alone:
//
//	if sub.HasAccess() {
//		// trialing or active
//	}
//
// # Wire format
//
// JSON tags match the billing API field names verbatim, and nullable fields
// are pointers, so a fetched entity re-serializes without losing or renaming
// fields. Timestamps are kept as the raw strings the API sent; use
// Timestamp.Time to parse them.
//
// # Display helpers
//
// Price.Display formats minor-unit amounts with golang.org/x/text:
//
//	price.Display(language.English) // "$ 10.00/month"
package billing
