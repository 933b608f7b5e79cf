package receiving

import (
	"fmt"
	"strings"
)

// ValidationResult reports the first failed check, if any.
type ValidationResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Err converts a failed result to a *ValidationError.
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return &ValidationError{Message: r.Message}
}

type check func(BatchContext) string

var batchChecks = []check{
	func(b BatchContext) string {
		if strings.TrimSpace(b.ProductID) == "" {
			return "Please select a product"
		}
		return ""
	},
	func(b BatchContext) string {
		if strings.TrimSpace(b.Defaults.LineNo) == "" {
			return "Please enter a line number"
		}
		return ""
	},
	func(b BatchContext) string {
		if !(b.Defaults.Cost > 0) {
			return "Cost must be greater than 0"
		}
		return ""
	},
	func(b BatchContext) string {
		if !(b.Defaults.ProfitPercent >= 0) {
			return "Profit percent cannot be negative"
		}
		return ""
	},
	selected("pattern", func(s Selections) string { return s.PatternID }),
	selected("variant", func(s Selections) string { return s.VariantID }),
	selected("color", func(s Selections) string { return s.ColorID }),
	selected("size", func(s Selections) string { return s.SizeID }),
	func(b BatchContext) string {
		if len(b.Rows) == 0 {
			return "Enter a quantity to generate at least one row"
		}
		return ""
	},
	func(b BatchContext) string {
		if !b.QuantityInMeters {
			return ""
		}
		for _, row := range b.Rows {
			if row.MeterQuantity == nil || !(*row.MeterQuantity > 0) {
				return fmt.Sprintf("Enter the meter quantity for row %d", row.SequenceNumber)
			}
		}
		return ""
	},
	func(b BatchContext) string {
		if c := b.ReceivedQuantityCeiling; c != nil && b.RequestedQuantity > *c {
			return fmt.Sprintf("Quantity %d exceeds the received quantity of %d", b.RequestedQuantity, *c)
		}
		return ""
	},
}

func selected(name string, pick func(Selections) string) check {
	return func(b BatchContext) string {
		if strings.TrimSpace(pick(b.Selections)) == "" {
			return "Please select a " + name
		}
		return ""
	}
}

// ValidateBeforeSave runs the batch checks in order and stops at the first
// failure. It does not modify b.
func ValidateBeforeSave(b BatchContext) ValidationResult {
	for _, c := range batchChecks {
		if msg := c(b); msg != "" {
			return ValidationResult{Message: msg}
		}
	}
	return ValidationResult{OK: true}
}
