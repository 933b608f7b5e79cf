package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stickerRules() []RoundOffRule {
	return []RoundOffRule{{FromRange: 0, ToRange: 500, Prices: []float64{99, 199, 299}}}
}

func TestComputeTotal(t *testing.T) {
	cases := []struct {
		name   string
		cost   float64
		profit float64
		want   float64
	}{
		{name: "twenty percent", cost: 80, profit: 20, want: 96},
		{name: "bracket overflow", cost: 250, profit: 20, want: 300},
		{name: "zero margin", cost: 45.5, profit: 0, want: 45.5},
		{name: "half up", cost: 10.05, profit: 50, want: 15.08},
		{name: "two decimals", cost: 33.33, profit: 33.33, want: 44.44},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeTotal(tc.cost, tc.profit))
		})
	}
}

func TestComputeTotalMonotonic(t *testing.T) {
	prev := ComputeTotal(100, 0)
	for profit := 1.0; profit <= 200; profit += 7 {
		next := ComputeTotal(100, profit)
		require.GreaterOrEqual(t, next, prev, "profit %.0f", profit)
		prev = next
	}
	prev = ComputeTotal(1, 15)
	for cost := 2.0; cost <= 1000; cost += 13 {
		next := ComputeTotal(cost, 15)
		require.GreaterOrEqual(t, next, prev, "cost %.0f", cost)
		prev = next
	}
}

func TestApplyRoundOffWithoutRules(t *testing.T) {
	for _, price := range []float64{0, 1.5, 96, 10000} {
		assert.Equal(t, price, ApplyRoundOff(price, nil))
		assert.Equal(t, price, ApplyRoundOff(price, []RoundOffRule{}))
	}
}

func TestApplyRoundOffScenarios(t *testing.T) {
	rules := stickerRules()
	assert.Equal(t, 99.0, ApplyRoundOff(ComputeTotal(80, 20), rules))
	assert.Equal(t, 299.0, ApplyRoundOff(ComputeTotal(250, 20), rules))
	assert.Equal(t, 199.0, ApplyRoundOff(199, rules), "exact sticker price is kept")
	assert.Equal(t, 199.0, ApplyRoundOff(99.01, rules))
	assert.Equal(t, 600.0, ApplyRoundOff(600, rules), "outside every bracket")
}

func TestApplyRoundOffNeverLowersPriceBelowBracketMax(t *testing.T) {
	rules := []RoundOffRule{
		{FromRange: 0, ToRange: 99, Prices: []float64{49, 79, 99}},
		{FromRange: 99.01, ToRange: 249, Prices: []float64{149, 199, 249}},
	}
	for price := 0.5; price <= 249; price += 3.25 {
		got := ApplyRoundOff(price, rules)
		require.GreaterOrEqual(t, got, price, "price %.2f", price)
	}
}

func TestApplyRoundOffFirstMatchWins(t *testing.T) {
	rules := []RoundOffRule{
		{FromRange: 0, ToRange: 1000, Prices: []float64{500}},
		{FromRange: 0, ToRange: 200, Prices: []float64{150}},
	}
	assert.Equal(t, 500.0, ApplyRoundOff(120, rules))

	rules[0], rules[1] = rules[1], rules[0]
	assert.Equal(t, 150.0, ApplyRoundOff(120, rules))
}

func TestApplyRoundOffUnboundedAndEmptyBrackets(t *testing.T) {
	unbounded := []RoundOffRule{{FromRange: 1000, Prices: []float64{1499, 1999}}}
	assert.Equal(t, 1499.0, ApplyRoundOff(1200, unbounded))
	assert.Equal(t, 1999.0, ApplyRoundOff(50000, unbounded))
	assert.Equal(t, 999.0, ApplyRoundOff(999, unbounded))

	empty := []RoundOffRule{
		{FromRange: 0, ToRange: 100},
		{FromRange: 0, ToRange: 100, Prices: []float64{90}},
	}
	assert.Equal(t, 42.0, ApplyRoundOff(42, empty))
}

func TestApplyRoundOffUnsortedPrices(t *testing.T) {
	rules := []RoundOffRule{{FromRange: 0, ToRange: 500, Prices: []float64{299, 99, 199}}}

	assert.Equal(t, 99.0, ApplyRoundOff(96, rules))
	assert.Equal(t, 299.0, ApplyRoundOff(300, rules))
	assert.Equal(t, 199.0, ApplyRoundOff(150, rules))
	assert.Equal(t, []float64{299, 99, 199}, rules[0].Prices, "caller slice untouched")
}

func TestPrice(t *testing.T) {
	q := Price(80, 20, stickerRules())
	assert.Equal(t, Quote{Cost: 80, ProfitPercent: 20, ComputedPrice: 96, RoundedPrice: 99}, q)
}
