package billing

import (
	"encoding/json"
	"slices"
)

// Product is a sellable item with its prices.
// Active is a tri-state: nil means the remote system did not report it.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Active      *bool          `json:"active"`
	Image       *string        `json:"image"`
	Metadata    map[string]any `json:"metadata"`
	Prices      []Price        `json:"prices"`
}

// IsActive reports whether the product is known to be active.
func (p Product) IsActive() bool {
	return p.Active != nil && *p.Active
}

// ProductWithPrices is a Product whose Prices are guaranteed to be populated.
// A missing or null prices field decodes into an empty slice.
type ProductWithPrices struct {
	Product
}

func (p *ProductWithPrices) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.Product); err != nil {
		return err
	}
	if p.Prices == nil {
		p.Prices = []Price{}
	}
	return nil
}

// PriceFor returns the first price billed at the given interval.
func (p ProductWithPrices) PriceFor(interval Interval) (Price, bool) {
	for _, price := range p.Prices {
		if iv, ok := price.BillingInterval(); ok && iv == interval {
			return price, true
		}
	}
	return Price{}, false
}

// Intervals returns the distinct billing intervals offered across products,
// in first-seen order. Ordering carries no meaning; sort at display time.
func Intervals(products []ProductWithPrices) []Interval {
	intervals := make([]Interval, 0, 4)
	for _, product := range products {
		for _, price := range product.Prices {
			iv, ok := price.BillingInterval()
			if !ok || slices.Contains(intervals, iv) {
				continue
			}
			intervals = append(intervals, iv)
		}
	}
	return intervals
}

// PriceWithProduct is a Price carrying a lookup-only reference to its product.
type PriceWithProduct struct {
	Price
	Products *Product `json:"products"`
}
