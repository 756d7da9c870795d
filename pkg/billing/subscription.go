package billing

// SubscriptionStatus mirrors the payment processor's subscription lifecycle.
type SubscriptionStatus string

const (
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusPaused            SubscriptionStatus = "paused"
)

// IsValid reports whether the status is one the billing system can report.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusCanceled, StatusIncomplete,
		StatusIncompleteExpired, StatusPastDue, StatusUnpaid, StatusPaused:
		return true
	}
	return false
}

// HasAccess reports whether the status grants paid access.
// Status is the only input to entitlement: period dates, cancel flags and
// quantities must not be used to infer it.
func (s SubscriptionStatus) HasAccess() bool {
	return s == StatusActive || s == StatusTrialing
}

// Subscription is a user's subscription as reported by the billing system.
// Timestamps are kept as sent by the server; see Timestamp.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	Status             SubscriptionStatus `json:"status"`
	PriceID            *string            `json:"price_id"`
	Quantity           *int               `json:"quantity"`
	Created            Timestamp          `json:"created"`
	CurrentPeriodStart Timestamp          `json:"current_period_start"`
	CurrentPeriodEnd   Timestamp          `json:"current_period_end"`
	TrialStart         *Timestamp         `json:"trial_start"`
	TrialEnd           *Timestamp         `json:"trial_end"`
	CancelAt           *Timestamp         `json:"cancel_at"`
	CanceledAt         *Timestamp         `json:"canceled_at"`
	EndedAt            *Timestamp         `json:"ended_at"`
	CancelAtPeriodEnd  *bool              `json:"cancel_at_period_end"`
	Metadata           map[string]any     `json:"metadata"`
}

// HasAccess reports whether the subscription grants paid access.
func (s *Subscription) HasAccess() bool {
	if s == nil {
		return false
	}
	return s.Status.HasAccess()
}

// SubscriptionWithProduct is a Subscription with its price (and that price's
// product) joined in for display. Both references are lookup-only.
type SubscriptionWithProduct struct {
	Subscription
	Prices *PriceWithProduct `json:"prices"`
}

// ProductName returns the name of the subscribed product, if it was joined in.
func (s *SubscriptionWithProduct) ProductName() string {
	if s == nil || s.Prices == nil || s.Prices.Products == nil {
		return ""
	}
	return s.Prices.Products.Name
}
