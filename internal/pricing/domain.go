package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoundOffRule maps a price bracket to the sticker prices allowed inside it.
// Prices are kept sorted ascending and free of duplicates.
type RoundOffRule struct {
	FromRange float64   `json:"from_range"`
	ToRange   float64   `json:"to_range"`
	Prices    []float64 `json:"prices"`
}

// Contains reports whether price falls inside the bracket. A zero ToRange
// leaves the bracket unbounded above.
func (r RoundOffRule) Contains(price float64) bool {
	to := r.ToRange
	if to == 0 {
		to = math.Inf(1)
	}
	return r.FromRange <= price && price <= to
}

// Max returns the highest sticker price of the bracket.
func (r RoundOffRule) Max() (float64, bool) {
	if len(r.Prices) == 0 {
		return 0, false
	}
	return slices.Max(r.Prices), true
}

// sortedPrices returns the prices ascending, copying only when the stored
// order is not already sorted.
func (r RoundOffRule) sortedPrices() []float64 {
	if slices.IsSorted(r.Prices) {
		return r.Prices
	}
	return slices.Sorted(slices.Values(r.Prices))
}

// RuleRecord is the loosely typed shape delivered by rule sources before
// normalisation.
type RuleRecord struct {
	FromRange Number   `json:"fromRange" yaml:"from_range"`
	ToRange   Number   `json:"toRange" yaml:"to_range"`
	Prices    []Number `json:"prices" yaml:"prices" validate:"required,min=1"`
}

// Quote is the priced result for a cost and margin pair.
type Quote struct {
	Cost          float64 `json:"cost"`
	ProfitPercent float64 `json:"profit_percent"`
	ComputedPrice float64 `json:"computed_price"`
	RoundedPrice  float64 `json:"rounded_price"`
}

var (
	// ErrInvalidRule indicates a rule record that cannot be normalised.
	ErrInvalidRule = errors.New("pricing: invalid round-off rule")
	// ErrNoSource indicates the service has no rule source configured.
	ErrNoSource = errors.New("pricing: rule source not configured")
)

// Number accepts JSON numbers, numeric strings and empty values. Backends
// send prices both ways.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return n.parse(s)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for scalar nodes.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return ErrInvalidRule
	}
	return n.parse(node.Value)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*n = Number{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = Number{}
		return nil
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

// Float returns the value or zero when absent.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}
