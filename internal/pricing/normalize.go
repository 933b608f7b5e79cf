package pricing

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

var recordValidator = validator.New()

// NormalizeRules converts raw rule records into sorted, de-duplicated rules.
// Record order is preserved because it decides which bracket wins when
// ranges overlap.
func NormalizeRules(records []RuleRecord) ([]RoundOffRule, error) {
	rules := make([]RoundOffRule, 0, len(records))
	for i, rec := range records {
		if err := recordValidator.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidRule, i, err)
		}
		from := rec.FromRange.Float()
		to := rec.ToRange.Float()
		if from < 0 || to < 0 {
			return nil, fmt.Errorf("%w: record %d: negative range", ErrInvalidRule, i)
		}
		if to != 0 && to < from {
			return nil, fmt.Errorf("%w: record %d: range %.2f-%.2f inverted", ErrInvalidRule, i, from, to)
		}
		prices := make([]float64, 0, len(rec.Prices))
		for j, p := range rec.Prices {
			if !p.Valid {
				return nil, fmt.Errorf("%w: record %d: price %d is not a number", ErrInvalidRule, i, j)
			}
			prices = append(prices, p.Value)
		}
		rules = append(rules, RoundOffRule{FromRange: from, ToRange: to, Prices: sortUnique(prices)})
	}
	return rules, nil
}

func sortUnique(prices []float64) []float64 {
	sort.Float64s(prices)
	out := prices[:0]
	for i, p := range prices {
		if i > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
