// Package inward records supplier bills received in bundles against a
// purchase order. Bills whose running quantity would pass the ordered
// quantity wait for explicit confirmation.
package inward

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/receiving/internal/confirm"
)

var (
	// ErrNotFound indicates the inward entry expired or was never opened.
	ErrNotFound = errors.New("inward: entry not found")
	// ErrBillIndex indicates a bill index outside the list.
	ErrBillIndex = errors.New("inward: bill index out of range")
	// ErrAwaitingConfirmation blocks changes while a bill waits for proceed or cancel.
	ErrAwaitingConfirmation = errors.New("inward: bill awaiting quantity confirmation")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("inward: validation failed")
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

const billDateLayout = "2006-01-02"

// Bill is one supplier bill delivered in bundles.
type Bill struct {
	BillNo      string  `json:"bill_no"`
	BillDate    string  `json:"bill_date"`
	BundleCount int     `json:"bundle_count"`
	Quantity    int     `json:"quantity"`
	Amount      float64 `json:"amount"`
}

// Header identifies the purchase order bills are received against.
type Header struct {
	PurchaseOrderID string `json:"purchase_order_id" validate:"required"`
	SupplierID      string `json:"supplier_id" validate:"required"`
	BranchID        string `json:"branch_id" validate:"required"`
	OrderedQuantity *int   `json:"ordered_quantity,omitempty" validate:"omitempty,gte=0"`
}

// Inward is the server held state of one bundle inward screen.
type Inward struct {
	ID        string             `json:"id"`
	Header    Header             `json:"header"`
	Bills     []Bill             `json:"bills"`
	Gate      confirm.Gate[Bill] `json:"gate"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// SavePayload is the body posted to the backend to record the inward.
type SavePayload struct {
	PurchaseOrderID string  `json:"purchase_order_id"`
	SupplierID      string  `json:"supplier_id"`
	BranchID        string  `json:"branch_id"`
	TotalBundles    int     `json:"total_bundles"`
	TotalQuantity   int     `json:"total_quantity"`
	TotalAmount     float64 `json:"total_amount"`
	Bills           []Bill  `json:"bills"`
}

// SaveResult is what the backend returns for a recorded inward.
type SaveResult struct {
	ID     string `json:"id"`
	Number string `json:"inward_no"`
}

// New builds an empty inward for header.
func New(id string, header Header, now time.Time) Inward {
	return Inward{ID: id, Header: header, Bills: []Bill{}, CreatedAt: now, UpdatedAt: now}
}

// ValidateBill checks a bill in field order and reports the first problem.
func (in *Inward) ValidateBill(b Bill) error {
	switch {
	case strings.TrimSpace(b.BillNo) == "":
		return &ValidationError{Message: "Please enter the bill number"}
	case strings.TrimSpace(b.BillDate) == "":
		return &ValidationError{Message: "Please enter the bill date"}
	case b.BundleCount <= 0:
		return &ValidationError{Message: "Bundle count must be greater than 0"}
	case b.Quantity <= 0:
		return &ValidationError{Message: "Quantity must be greater than 0"}
	case b.Amount < 0:
		return &ValidationError{Message: "Amount cannot be negative"}
	}
	if _, err := time.Parse(billDateLayout, b.BillDate); err != nil {
		return &ValidationError{Message: "Bill date must be in YYYY-MM-DD format"}
	}
	for _, existing := range in.Bills {
		if strings.EqualFold(existing.BillNo, b.BillNo) {
			return &ValidationError{Message: fmt.Sprintf("Bill %s has already been added", b.BillNo)}
		}
	}
	return nil
}

// TotalQuantity sums the quantity of added bills.
func (in *Inward) TotalQuantity() int {
	n := 0
	for _, b := range in.Bills {
		n += b.Quantity
	}
	return n
}

// AddBill validates b and offers it to the quantity gate.
func (in *Inward) AddBill(b Bill) (confirm.State, error) {
	if in.Gate.IsPending() {
		return in.Gate.State, ErrAwaitingConfirmation
	}
	b.BillNo = strings.TrimSpace(b.BillNo)
	if err := in.ValidateBill(b); err != nil {
		return confirm.StateIdle, err
	}
	return in.Gate.Offer(in.TotalQuantity(), b.Quantity, in.Header.OrderedQuantity, b, in.addBill)
}

// Proceed adds the parked bill.
func (in *Inward) Proceed() (confirm.State, error) {
	return in.Gate.Proceed(in.addBill)
}

// Cancel drops the parked bill.
func (in *Inward) Cancel() (confirm.State, error) {
	return in.Gate.Cancel()
}

func (in *Inward) addBill(b Bill) {
	in.Bills = append(in.Bills, b)
}

// RemoveBill deletes an added bill.
func (in *Inward) RemoveBill(index int) error {
	if in.Gate.IsPending() {
		return ErrAwaitingConfirmation
	}
	if index < 0 || index >= len(in.Bills) {
		return ErrBillIndex
	}
	in.Bills = append(in.Bills[:index], in.Bills[index+1:]...)
	return nil
}

// SavePayload totals the bills for submission.
func (in *Inward) SavePayload() (SavePayload, error) {
	if in.Gate.IsPending() {
		return SavePayload{}, ErrAwaitingConfirmation
	}
	if len(in.Bills) == 0 {
		return SavePayload{}, &ValidationError{Message: "Add at least one bill before saving"}
	}
	p := SavePayload{
		PurchaseOrderID: in.Header.PurchaseOrderID,
		SupplierID:      in.Header.SupplierID,
		BranchID:        in.Header.BranchID,
		Bills:           in.Bills,
	}
	amount := decimal.Zero
	for _, b := range in.Bills {
		p.TotalBundles += b.BundleCount
		p.TotalQuantity += b.Quantity
		amount = amount.Add(decimal.NewFromFloat(b.Amount))
	}
	p.TotalAmount = amount.Round(2).InexactFloat64()
	return p, nil
}
