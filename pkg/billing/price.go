package billing

// PriceType distinguishes one-off charges from recurring ones.
type PriceType string

const (
	PriceTypeOneTime   PriceType = "one_time"
	PriceTypeRecurring PriceType = "recurring"
)

// Interval is the billing period unit of a recurring price.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// IsValid reports whether the interval is one of the known units.
func (i Interval) IsValid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// Price is a billing price owned by the remote billing system.
// UnitAmount is expressed in the smallest currency unit (cents for USD).
// Interval, IntervalCount and TrialPeriodDays are null for one-time prices.
type Price struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            PriceType `json:"type"`
	Price           *float64  `json:"price"`
	Interval        *Interval `json:"interval"`
	UnitAmount      int64     `json:"unit_amount"`
	Currency        string    `json:"currency"`
	IntervalCount   *int      `json:"interval_count"`
	TrialPeriodDays *int      `json:"trial_period_days"`
}

// IsRecurring reports whether the price bills periodically.
func (p Price) IsRecurring() bool {
	return p.Type == PriceTypeRecurring
}

// BillingInterval returns the interval only when it carries meaning,
// i.e. for recurring prices.
func (p Price) BillingInterval() (Interval, bool) {
	if !p.IsRecurring() || p.Interval == nil || !p.Interval.IsValid() {
		return "", false
	}
	return *p.Interval, true
}

// Count returns the number of intervals between charges, at least 1.
func (p Price) Count() int {
	if p.IntervalCount == nil || *p.IntervalCount < 1 {
		return 1
	}
	return *p.IntervalCount
}

// HasTrial reports whether subscribing to the price starts with a trial.
func (p Price) HasTrial() bool {
	return p.TrialPeriodDays != nil && *p.TrialPeriodDays > 0
}
