package inward

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/receiving/internal/confirm"
	"github.com/odyssey-erp/receiving/internal/platform/store"
)

type stubSubmitter struct {
	err      error
	keys     []string
	payloads []SavePayload

	entered chan struct{}
	release chan struct{}
}

func (s *stubSubmitter) SaveBundleInward(_ context.Context, payload SavePayload, key string) (SaveResult, error) {
	if s.release != nil {
		close(s.entered)
		<-s.release
	}
	s.keys = append(s.keys, key)
	s.payloads = append(s.payloads, payload)
	if s.err != nil {
		return SaveResult{}, s.err
	}
	return SaveResult{ID: "inw-1", Number: "BI-0001"}, nil
}

type gateCounter map[confirm.State]int

func (g gateCounter) ObserveGate(gate string, state confirm.State) {
	if gate == GateName {
		g[state]++
	}
}

func newTestService(t *testing.T) (*Service, *stubSubmitter, gateCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sub := &stubSubmitter{}
	gates := gateCounter{}
	svc := NewService(store.New[Inward](client, "test:inward", time.Hour), sub, gates, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, sub, gates
}

func TestServiceBillFlow(t *testing.T) {
	svc, sub, gates := newTestService(t)
	ctx := context.Background()

	in, err := svc.Open(ctx, Header{PurchaseOrderID: "po-1", SupplierID: "s", BranchID: "b", OrderedQuantity: ordered(10)})
	require.NoError(t, err)

	state, _, err := svc.AddBill(ctx, in.ID, bill("B1", 6))
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCommitted, state)

	state, _, err = svc.AddBill(ctx, in.ID, bill("B2", 5))
	require.NoError(t, err)
	assert.Equal(t, confirm.StatePendingConfirmation, state)

	_, err = svc.Save(ctx, in.ID)
	require.ErrorIs(t, err, ErrAwaitingConfirmation)
	assert.Empty(t, sub.keys)

	state, in, err = svc.Proceed(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCommitted, state)
	assert.Len(t, in.Bills, 2)

	sub.err = errors.New("backend down")
	_, err = svc.Save(ctx, in.ID)
	require.Error(t, err)
	_, err = svc.Get(ctx, in.ID)
	require.NoError(t, err, "kept after failed save")

	sub.err = nil
	res, err := svc.Save(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "BI-0001", res.Number)
	assert.Equal(t, []string{in.ID, in.ID}, sub.keys)
	assert.Equal(t, 11, sub.payloads[1].TotalQuantity)

	_, err = svc.Get(ctx, in.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, gates[confirm.StateCommitted])
	assert.Equal(t, 1, gates[confirm.StatePendingConfirmation])
}

func TestHandlerBillRoutes(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/inward", h.MountRoutes)

	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	in, err := svc.Open(context.Background(), Header{PurchaseOrderID: "po", SupplierID: "s", BranchID: "b", OrderedQuantity: ordered(5)})
	require.NoError(t, err)
	base := "/inward/" + in.ID

	rec := call(http.MethodPost, base+"/bills", `{"bill_no":"B1","bill_date":"2026-03-01","bundle_count":1,"quantity":6,"amount":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), string(confirm.StatePendingConfirmation))

	rec = call(http.MethodDelete, base+"/bills/0", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(http.MethodPost, base+"/confirmation/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(confirm.StateCancelled))

	rec = call(http.MethodPost, base+"/bills", `{"bill_no":"","quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter the bill number")

	rec = call(http.MethodPost, base+"/bills", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(http.MethodPost, base+"/save", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(http.MethodGet, "/inward/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServiceAddBillDuringSaveFails(t *testing.T) {
	svc, sub, _ := newTestService(t)
	ctx := context.Background()
	in, err := svc.Open(ctx, Header{PurchaseOrderID: "po-1", SupplierID: "s", BranchID: "b"})
	require.NoError(t, err)
	_, _, err = svc.AddBill(ctx, in.ID, bill("B1", 4))
	require.NoError(t, err)

	sub.entered = make(chan struct{})
	sub.release = make(chan struct{})
	saveErr := make(chan error, 1)
	go func() {
		_, err := svc.Save(ctx, in.ID)
		saveErr <- err
	}()
	<-sub.entered

	addErr := make(chan error, 1)
	go func() {
		_, _, err := svc.AddBill(ctx, in.ID, bill("B2", 2))
		addErr <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(sub.release)

	require.NoError(t, <-saveErr)
	require.ErrorIs(t, <-addErr, ErrNotFound)
	require.Len(t, sub.payloads, 1)
	assert.Equal(t, 4, sub.payloads[0].TotalQuantity)
}
