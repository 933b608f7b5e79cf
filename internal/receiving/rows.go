package receiving

import (
	"math"
	"strconv"
	"strings"

	"github.com/odyssey-erp/receiving/internal/pricing"
)

// Field names an editable row column.
type Field string

const (
	FieldLineNo        Field = "line_no"
	FieldRefNo         Field = "ref_no"
	FieldCost          Field = "cost"
	FieldProfitPercent Field = "profit_percent"
	FieldMeterQuantity Field = "meter_quantity"
)

// Column positions of the row grid, used for cursor navigation.
const (
	ColSequence = iota
	ColLineNo
	ColRefNo
	ColCost
	ColProfitPercent
	ColComputedPrice
	ColRoundedPrice
	ColMeterQuantity
)

// EditableColumns returns the tab order of editable columns.
func EditableColumns(meterFlag bool) []int {
	cols := []int{ColLineNo, ColRefNo, ColCost, ColProfitPercent}
	if meterFlag {
		cols = append(cols, ColMeterQuantity)
	}
	return cols
}

// EffectiveQuantity clamps quantity to ceiling. A nil ceiling is unbounded.
func EffectiveQuantity(quantity int, ceiling *int) int {
	n := quantity
	if ceiling != nil && *ceiling < n {
		n = *ceiling
	}
	if n < 0 {
		return 0
	}
	return n
}

// GenerateRows expands quantity into priced rows that inherit defaults. The
// row count is min(quantity, ceiling); quantity <= 0 yields no rows.
func GenerateRows(quantity int, ceiling *int, defaults RowDefaults, meterFlag bool, rules []pricing.RoundOffRule) []LineRow {
	if quantity <= 0 {
		return []LineRow{}
	}
	n := EffectiveQuantity(quantity, ceiling)
	computed := pricing.ComputeTotal(defaults.Cost, defaults.ProfitPercent)
	rounded := pricing.ApplyRoundOff(computed, rules)

	rows := make([]LineRow, n)
	for i := range rows {
		rows[i] = LineRow{
			SequenceNumber: i + 1,
			LineNo:         defaults.LineNo,
			RefNo:          defaults.RefNo,
			Cost:           defaults.Cost,
			ProfitPercent:  defaults.ProfitPercent,
			ComputedPrice:  computed,
			RoundedPrice:   rounded,
		}
		if meterFlag {
			zero := 0.0
			rows[i].MeterQuantity = &zero
		}
	}
	return rows
}

// UpdateRow returns a copy of rows where only the row at index has field set
// to value. Cost and profit edits re-price that row alone.
func UpdateRow(rows []LineRow, index int, field Field, value string, rules []pricing.RoundOffRule) ([]LineRow, error) {
	if index < 0 || index >= len(rows) {
		return rows, ErrRowIndex
	}
	out := append([]LineRow(nil), rows...)
	row := out[index]
	switch field {
	case FieldLineNo:
		row.LineNo = value
	case FieldRefNo:
		row.RefNo = value
	case FieldCost:
		row.Cost = coerceNumber(value)
		reprice(&row, rules)
	case FieldProfitPercent:
		row.ProfitPercent = coerceNumber(value)
		reprice(&row, rules)
	case FieldMeterQuantity:
		q := coerceNumber(value)
		row.MeterQuantity = &q
	default:
		return rows, ErrUnknownField
	}
	out[index] = row
	return out, nil
}

// DeleteRow removes the row at index and renumbers the rest 1..N.
func DeleteRow(rows []LineRow, index int) ([]LineRow, error) {
	if index < 0 || index >= len(rows) {
		return rows, ErrRowIndex
	}
	out := make([]LineRow, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	out = append(out, rows[index+1:]...)
	for i := range out {
		out[i].SequenceNumber = i + 1
	}
	return out, nil
}

func reprice(row *LineRow, rules []pricing.RoundOffRule) {
	row.ComputedPrice = pricing.ComputeTotal(row.Cost, row.ProfitPercent)
	row.RoundedPrice = pricing.ApplyRoundOff(row.ComputedPrice, rules)
}

// coerceNumber parses user input; anything unparsable becomes 0.
func coerceNumber(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
