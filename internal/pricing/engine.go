package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotal returns cost plus profitPercent of cost, rounded half-up to two
// decimal places.
func ComputeTotal(cost, profitPercent float64) float64 {
	c := decimal.NewFromFloat(cost)
	margin := c.Mul(decimal.NewFromFloat(profitPercent)).Div(hundred)
	total, _ := c.Add(margin).Round(2).Float64()
	return total
}

// ApplyRoundOff snaps price to the nearest allowed sticker price at or above
// it. Rules are evaluated in the order given and the first bracket containing
// price wins. When price exceeds every sticker price of that bracket the
// bracket maximum is returned. Without a matching bracket, or when the
// matching bracket has no prices, price is returned unchanged. Prices need not
// be sorted; unsorted brackets are sorted on a copy.
func ApplyRoundOff(price float64, rules []RoundOffRule) float64 {
	rounded, _ := roundOff(price, rules)
	return rounded
}

func roundOff(price float64, rules []RoundOffRule) (float64, bool) {
	for _, rule := range rules {
		if !rule.Contains(price) {
			continue
		}
		for _, candidate := range rule.sortedPrices() {
			if price <= candidate {
				return candidate, true
			}
		}
		if top, ok := rule.Max(); ok {
			return top, true
		}
		return price, false
	}
	return price, false
}

// Price computes the total for cost and margin and snaps it to the rules.
func Price(cost, profitPercent float64, rules []RoundOffRule) Quote {
	computed := ComputeTotal(cost, profitPercent)
	return Quote{
		Cost:          cost,
		ProfitPercent: profitPercent,
		ComputedPrice: computed,
		RoundedPrice:  ApplyRoundOff(computed, rules),
	}
}
