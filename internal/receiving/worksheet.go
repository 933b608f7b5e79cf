package receiving

import (
	"time"

	"github.com/odyssey-erp/receiving/internal/confirm"
	"github.com/odyssey-erp/receiving/internal/gridnav"
	"github.com/odyssey-erp/receiving/internal/pricing"
)

// BatchUpdate carries the batch form fields a client changed. Nil fields are
// left untouched.
type BatchUpdate struct {
	ProductID        *string  `json:"product_id"`
	ProductName      *string  `json:"product_name"`
	LineNo           *string  `json:"line_no"`
	RefNo            *string  `json:"ref_no"`
	Cost             *float64 `json:"cost" validate:"omitempty,gte=0"`
	ProfitPercent    *float64 `json:"profit_percent"`
	QuantityInMeters *bool    `json:"quantity_in_meters"`
	Quantity         *int     `json:"quantity" validate:"omitempty,gte=0"`
	PatternID        *string  `json:"pattern_id"`
	VariantID        *string  `json:"variant_id"`
	ColorID          *string  `json:"color_id"`
	SizeID           *string  `json:"size_id"`
}

// NewWorksheet builds an empty worksheet for header.
func NewWorksheet(id string, header Header, rules []pricing.RoundOffRule, labels LabelSet, now time.Time) Worksheet {
	w := Worksheet{
		ID:        id,
		Header:    header,
		Rules:     rules,
		Labels:    labels,
		Items:     []BatchContext{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.Batch = w.emptyBatch()
	w.Cursor = gridnav.New(0, EditableColumns(false)...)
	return w
}

func (w *Worksheet) emptyBatch() BatchContext {
	return BatchContext{
		ReceivedQuantityCeiling: w.Header.ReceivedQuantity,
		Rows:                    []LineRow{},
	}
}

// Configure applies u to the batch form. Rows are regenerated wholesale when
// the quantity, a row default other than ref no, or the meter flag changes.
func (w *Worksheet) Configure(u BatchUpdate) (bool, error) {
	if w.Gate.IsPending() {
		return false, ErrAwaitingConfirmation
	}
	b := &w.Batch
	setString(&b.ProductID, u.ProductID)
	setString(&b.ProductName, u.ProductName)
	setString(&b.Defaults.RefNo, u.RefNo)
	setString(&b.Selections.PatternID, u.PatternID)
	setString(&b.Selections.VariantID, u.VariantID)
	setString(&b.Selections.ColorID, u.ColorID)
	setString(&b.Selections.SizeID, u.SizeID)

	regenerate := false
	if u.LineNo != nil && *u.LineNo != b.Defaults.LineNo {
		b.Defaults.LineNo = *u.LineNo
		regenerate = true
	}
	if u.Cost != nil && *u.Cost != b.Defaults.Cost {
		b.Defaults.Cost = *u.Cost
		regenerate = true
	}
	if u.ProfitPercent != nil && *u.ProfitPercent != b.Defaults.ProfitPercent {
		b.Defaults.ProfitPercent = *u.ProfitPercent
		regenerate = true
	}
	if u.QuantityInMeters != nil && *u.QuantityInMeters != b.QuantityInMeters {
		b.QuantityInMeters = *u.QuantityInMeters
		regenerate = true
	}
	if u.Quantity != nil && *u.Quantity != b.RequestedQuantity {
		b.RequestedQuantity = *u.Quantity
		regenerate = true
	}
	if regenerate {
		w.regenerate()
	}
	return regenerate, nil
}

func (w *Worksheet) regenerate() {
	b := &w.Batch
	b.Rows = GenerateRows(b.RequestedQuantity, b.ReceivedQuantityCeiling, b.Defaults, b.QuantityInMeters, w.Rules)
	w.Cursor.Reset(len(b.Rows), EditableColumns(b.QuantityInMeters)...)
}

// UpdateRow edits one cell of the batch rows.
func (w *Worksheet) UpdateRow(index int, field Field, value string) error {
	if w.Gate.IsPending() {
		return ErrAwaitingConfirmation
	}
	rows, err := UpdateRow(w.Batch.Rows, index, field, value, w.Rules)
	if err != nil {
		return err
	}
	w.Batch.Rows = rows
	return nil
}

// DeleteRow removes a batch row. The requested quantity follows the row
// count so the batch keeps exactly one row per requested unit.
func (w *Worksheet) DeleteRow(index int) error {
	if w.Gate.IsPending() {
		return ErrAwaitingConfirmation
	}
	rows, err := DeleteRow(w.Batch.Rows, index)
	if err != nil {
		return err
	}
	w.Batch.Rows = rows
	w.Batch.RequestedQuantity = len(rows)
	w.Cursor.RemoveRow(index)
	return nil
}

// Validate runs the pre-commit checks on the current batch.
func (w *Worksheet) Validate() ValidationResult {
	return ValidateBeforeSave(w.Batch)
}

// CommittedQuantity counts rows across committed items.
func (w *Worksheet) CommittedQuantity() int {
	n := 0
	for _, item := range w.Items {
		n += len(item.Rows)
	}
	return n
}

// AddBatch validates the batch and offers it to the quantity gate. A batch
// that would push committed rows past the received quantity is parked
// pending confirmation.
func (w *Worksheet) AddBatch() (confirm.State, error) {
	if w.Gate.IsPending() {
		return w.Gate.State, ErrAwaitingConfirmation
	}
	if err := w.Validate().Err(); err != nil {
		return confirm.StateIdle, err
	}
	return w.Gate.Offer(w.CommittedQuantity(), len(w.Batch.Rows), w.Header.ReceivedQuantity, w.Batch, w.commit)
}

// Proceed commits the parked batch.
func (w *Worksheet) Proceed() (confirm.State, error) {
	return w.Gate.Proceed(w.commit)
}

// Cancel drops the parked batch. The batch form keeps its values.
func (w *Worksheet) Cancel() (confirm.State, error) {
	return w.Gate.Cancel()
}

func (w *Worksheet) commit(b BatchContext) {
	w.Items = append(w.Items, b)
	w.Batch = w.emptyBatch()
	w.Cursor.Reset(0, EditableColumns(false)...)
}

// RemoveItem deletes a committed item.
func (w *Worksheet) RemoveItem(index int) error {
	if w.Gate.IsPending() {
		return ErrAwaitingConfirmation
	}
	if index < 0 || index >= len(w.Items) {
		return ErrItemIndex
	}
	w.Items = append(w.Items[:index], w.Items[index+1:]...)
	return nil
}

// SavePayload resolves selections against the loaded label lists and
// flattens every committed row into a save item.
func (w *Worksheet) SavePayload() (SavePayload, error) {
	if w.Gate.IsPending() {
		return SavePayload{}, ErrAwaitingConfirmation
	}
	if len(w.Items) == 0 {
		return SavePayload{}, &ValidationError{Message: "Add at least one item before saving"}
	}
	payload := SavePayload{
		PurchaseOrderID: w.Header.PurchaseOrderID,
		SupplierID:      w.Header.SupplierID,
		BranchID:        w.Header.BranchID,
		Items:           make([]SaveItem, 0, w.CommittedQuantity()),
	}
	for _, item := range w.Items {
		labels, err := w.resolve(item.Selections)
		if err != nil {
			return SavePayload{}, err
		}
		for _, row := range item.Rows {
			payload.Items = append(payload.Items, SaveItem{
				ProductID:        item.ProductID,
				ProductName:      item.ProductName,
				SequenceNumber:   row.SequenceNumber,
				LineNo:           row.LineNo,
				RefNo:            row.RefNo,
				Pattern:          labels[0],
				Variant:          labels[1],
				Color:            labels[2],
				Size:             labels[3],
				QuantityInMeters: item.QuantityInMeters,
				MeterQuantity:    row.MeterQuantity,
				Cost:             row.Cost,
				ProfitPercent:    row.ProfitPercent,
				Total:            row.ComputedPrice,
				Price:            row.RoundedPrice,
			})
		}
	}
	return payload, nil
}

func (w *Worksheet) resolve(s Selections) ([4]Label, error) {
	var out [4]Label
	ids := [4]string{s.PatternID, s.VariantID, s.ColorID, s.SizeID}
	for i, kind := range LabelKinds {
		l, err := w.Labels.Resolve(kind, ids[i])
		if err != nil {
			return out, err
		}
		out[i] = l
	}
	return out, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
