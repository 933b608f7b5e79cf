package receiving

import (
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/receiving/internal/confirm"
	"github.com/odyssey-erp/receiving/internal/gridnav"
	"github.com/odyssey-erp/receiving/internal/pricing"
)

var (
	// ErrNotFound indicates the worksheet expired or was never opened.
	ErrNotFound = errors.New("receiving: worksheet not found")
	// ErrRowIndex indicates a row index outside the current batch.
	ErrRowIndex = errors.New("receiving: row index out of range")
	// ErrItemIndex indicates an item index outside the committed list.
	ErrItemIndex = errors.New("receiving: item index out of range")
	// ErrUnknownField indicates an edit to a column that cannot be edited.
	ErrUnknownField = errors.New("receiving: unknown row field")
	// ErrAwaitingConfirmation blocks edits while a batch waits for proceed or cancel.
	ErrAwaitingConfirmation = errors.New("receiving: batch awaiting quantity confirmation")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("receiving: validation failed")
)

// ValidationError carries the user facing message of a failed check.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UserMessage exposes the message for problem responses.
func (e *ValidationError) UserMessage() string { return e.Message }

// LabelKind names one of the attribute lists a batch selects from.
type LabelKind string

const (
	LabelPattern LabelKind = "patterns"
	LabelVariant LabelKind = "variants"
	LabelColor   LabelKind = "colors"
	LabelSize    LabelKind = "sizes"
)

// LabelKinds lists every kind loaded when a worksheet opens.
var LabelKinds = []LabelKind{LabelPattern, LabelVariant, LabelColor, LabelSize}

// Label is an {id, name} pair from a master list.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LabelSet holds the lists loaded for one worksheet.
type LabelSet struct {
	Patterns []Label `json:"patterns"`
	Variants []Label `json:"variants"`
	Colors   []Label `json:"colors"`
	Sizes    []Label `json:"sizes"`
}

// Set replaces the list for kind.
func (s *LabelSet) Set(kind LabelKind, labels []Label) {
	switch kind {
	case LabelPattern:
		s.Patterns = labels
	case LabelVariant:
		s.Variants = labels
	case LabelColor:
		s.Colors = labels
	case LabelSize:
		s.Sizes = labels
	}
}

// List returns the list for kind.
func (s LabelSet) List(kind LabelKind) []Label {
	switch kind {
	case LabelPattern:
		return s.Patterns
	case LabelVariant:
		return s.Variants
	case LabelColor:
		return s.Colors
	case LabelSize:
		return s.Sizes
	}
	return nil
}

// Resolve finds the label with id in the list for kind.
func (s LabelSet) Resolve(kind LabelKind, id string) (Label, error) {
	for _, l := range s.List(kind) {
		if l.ID == id {
			return l, nil
		}
	}
	return Label{}, &ValidationError{Message: fmt.Sprintf("Unknown %s selection %q", singular(kind), id)}
}

func singular(kind LabelKind) string {
	switch kind {
	case LabelPattern:
		return "pattern"
	case LabelVariant:
		return "variant"
	case LabelColor:
		return "color"
	case LabelSize:
		return "size"
	}
	return string(kind)
}

// Selections are the attribute ids chosen for a batch.
type Selections struct {
	PatternID string `json:"pattern_id"`
	VariantID string `json:"variant_id"`
	ColorID   string `json:"color_id"`
	SizeID    string `json:"size_id"`
}

// LineRow is one unit of received quantity with its own price.
type LineRow struct {
	SequenceNumber int      `json:"sequence_number"`
	LineNo         string   `json:"line_no"`
	RefNo          string   `json:"ref_no"`
	Cost           float64  `json:"cost"`
	ProfitPercent  float64  `json:"profit_percent"`
	ComputedPrice  float64  `json:"computed_price"`
	RoundedPrice   float64  `json:"rounded_price"`
	MeterQuantity  *float64 `json:"meter_quantity"`
}

// RowDefaults are the form values every generated row inherits.
type RowDefaults struct {
	LineNo        string  `json:"line_no"`
	RefNo         string  `json:"ref_no"`
	Cost          float64 `json:"cost"`
	ProfitPercent float64 `json:"profit_percent"`
}

// BatchContext is the batch form: product, defaults, selections, quantity
// and the rows generated from them.
type BatchContext struct {
	ProductID               string      `json:"product_id"`
	ProductName             string      `json:"product_name"`
	Defaults                RowDefaults `json:"defaults"`
	Selections              Selections  `json:"selections"`
	QuantityInMeters        bool        `json:"quantity_in_meters"`
	RequestedQuantity       int         `json:"requested_quantity"`
	ReceivedQuantityCeiling *int        `json:"received_quantity_ceiling"`
	Rows                    []LineRow   `json:"rows"`
}

// Header identifies the purchase order a worksheet receives against.
type Header struct {
	PurchaseOrderID  string `json:"purchase_order_id" validate:"required"`
	SupplierID       string `json:"supplier_id" validate:"required"`
	BranchID         string `json:"branch_id" validate:"required"`
	ReceivedQuantity *int   `json:"received_quantity,omitempty" validate:"omitempty,gte=0"`
}

// Worksheet is the server held state of one goods receipt dialog.
type Worksheet struct {
	ID        string                     `json:"id"`
	Header    Header                     `json:"header"`
	Rules     []pricing.RoundOffRule     `json:"rules"`
	Labels    LabelSet                   `json:"labels"`
	Batch     BatchContext               `json:"batch"`
	Items     []BatchContext             `json:"items"`
	Gate      confirm.Gate[BatchContext] `json:"gate"`
	Cursor    gridnav.Grid               `json:"cursor"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// SaveItem is one received unit in the GRN save payload.
type SaveItem struct {
	ProductID        string   `json:"product_id"`
	ProductName      string   `json:"product_name"`
	SequenceNumber   int      `json:"sequence_number"`
	LineNo           string   `json:"line_no"`
	RefNo            string   `json:"ref_no"`
	Pattern          Label    `json:"pattern"`
	Variant          Label    `json:"variant"`
	Color            Label    `json:"color"`
	Size             Label    `json:"size"`
	QuantityInMeters bool     `json:"quantity_in_meters"`
	MeterQuantity    *float64 `json:"meter_quantity"`
	Cost             float64  `json:"cost"`
	ProfitPercent    float64  `json:"profit_percent"`
	Total            float64  `json:"total"`
	Price            float64  `json:"price"`
}

// SavePayload is the body posted to the backend to create a GRN.
type SavePayload struct {
	PurchaseOrderID string     `json:"purchase_order_id"`
	SupplierID      string     `json:"supplier_id"`
	BranchID        string     `json:"branch_id"`
	Items           []SaveItem `json:"items"`
}

// SaveResult is what the backend returns for a created GRN.
type SaveResult struct {
	ID     string `json:"id"`
	Number string `json:"grn_no"`
}
