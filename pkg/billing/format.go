package billing

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount converts UnitAmount from minor units to a decimal amount using the
// currency's standard scale (2 for USD, 0 for JPY).
func (p Price) Amount() (float64, error) {
	unit, err := currency.ParseISO(p.Currency)
	if err != nil {
		return 0, fmt.Errorf("billing: price %s: %w", p.ID, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return float64(p.UnitAmount) / math.Pow10(scale), nil
}

// Display renders the price for humans in the given locale, e.g. "$ 10.00/month"
// or "$ 30.00/3 months". Unknown currencies fall back to the raw minor amount.
func (p Price) Display(tag language.Tag) string {
	var b strings.Builder

	amount, err := p.Amount()
	if err != nil {
		fmt.Fprintf(&b, "%d %s", p.UnitAmount, strings.ToUpper(p.Currency))
	} else {
		unit, _ := currency.ParseISO(p.Currency)
		message.NewPrinter(tag).Fprint(&b, currency.Symbol(unit.Amount(amount)))
	}

	interval, ok := p.BillingInterval()
	if !ok {
		return b.String()
	}
	if n := p.Count(); n > 1 {
		fmt.Fprintf(&b, "/%d %ss", n, interval)
	} else {
		fmt.Fprintf(&b, "/%s", interval)
	}
	return b.String()
}
