package inward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/receiving/internal/confirm"
)

func ordered(n int) *int { return &n }

func bill(no string, qty int) Bill {
	return Bill{BillNo: no, BillDate: "2026-03-01", BundleCount: 1, Quantity: qty, Amount: 100.10}
}

func newTestInward(orderedQty *int) Inward {
	return New("in-1", Header{PurchaseOrderID: "po-1", SupplierID: "s", BranchID: "b", OrderedQuantity: orderedQty}, time.Now())
}

func TestAddBillAtOrderedQuantityCommits(t *testing.T) {
	in := newTestInward(ordered(10))
	state, err := in.AddBill(bill("B1", 10))
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCommitted, state)
	assert.Len(t, in.Bills, 1)
}

func TestAddBillOverOrderedQuantity(t *testing.T) {
	in := newTestInward(ordered(10))
	_, err := in.AddBill(bill("B1", 4))
	require.NoError(t, err)

	state, err := in.AddBill(bill("B2", 7))
	require.NoError(t, err)
	assert.Equal(t, confirm.StatePendingConfirmation, state)
	assert.Len(t, in.Bills, 1)

	_, err = in.AddBill(bill("B3", 1))
	require.ErrorIs(t, err, ErrAwaitingConfirmation)
	require.ErrorIs(t, in.RemoveBill(0), ErrAwaitingConfirmation)

	state, err = in.Cancel()
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCancelled, state)
	assert.Len(t, in.Bills, 1, "cancel leaves bills unchanged")

	_, err = in.AddBill(bill("B2", 7))
	require.NoError(t, err)
	state, err = in.Proceed()
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCommitted, state)
	assert.Len(t, in.Bills, 2)
	assert.Equal(t, 11, in.TotalQuantity())
}

func TestAddBillWithoutOrderedQuantityNeverAsks(t *testing.T) {
	in := newTestInward(nil)
	state, err := in.AddBill(bill("B1", 1000))
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCommitted, state)
}

func TestValidateBill(t *testing.T) {
	in := newTestInward(nil)
	_, err := in.AddBill(bill("B1", 1))
	require.NoError(t, err)

	cases := map[string]Bill{
		"Please enter the bill number":           {BillDate: "2026-03-01", BundleCount: 1, Quantity: 1},
		"Please enter the bill date":             {BillNo: "X", BundleCount: 1, Quantity: 1},
		"Bundle count must be greater than 0":    {BillNo: "X", BillDate: "2026-03-01", Quantity: 1},
		"Quantity must be greater than 0":        {BillNo: "X", BillDate: "2026-03-01", BundleCount: 1},
		"Amount cannot be negative":              {BillNo: "X", BillDate: "2026-03-01", BundleCount: 1, Quantity: 1, Amount: -1},
		"Bill date must be in YYYY-MM-DD format": {BillNo: "X", BillDate: "01/03/2026", BundleCount: 1, Quantity: 1},
		"Bill b1 has already been added":         {BillNo: " b1 ", BillDate: "2026-03-01", BundleCount: 1, Quantity: 1},
	}
	for want, b := range cases {
		state, err := in.AddBill(b)
		require.ErrorIs(t, err, ErrValidation, want)
		assert.EqualError(t, err, want)
		assert.Equal(t, confirm.StateIdle, state)
	}
	assert.Len(t, in.Bills, 1)
}

func TestSavePayloadTotals(t *testing.T) {
	in := newTestInward(nil)
	_, err := in.SavePayload()
	require.ErrorIs(t, err, ErrValidation)

	_, err = in.AddBill(Bill{BillNo: "B1", BillDate: "2026-03-01", BundleCount: 2, Quantity: 5, Amount: 0.1})
	require.NoError(t, err)
	_, err = in.AddBill(Bill{BillNo: "B2", BillDate: "2026-03-02", BundleCount: 3, Quantity: 6, Amount: 0.2})
	require.NoError(t, err)

	p, err := in.SavePayload()
	require.NoError(t, err)
	assert.Equal(t, 5, p.TotalBundles)
	assert.Equal(t, 11, p.TotalQuantity)
	assert.Equal(t, 0.3, p.TotalAmount)
	assert.Len(t, p.Bills, 2)
}
