package receiving

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/receiving/internal/confirm"
	"github.com/odyssey-erp/receiving/internal/gridnav"
	"github.com/odyssey-erp/receiving/internal/platform/httpx"
	"github.com/odyssey-erp/receiving/internal/platform/store"
)

// Handler exposes worksheets over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the receiving handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers worksheet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleOpen)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleDiscard)
		r.Patch("/batch", h.handleConfigure)
		r.Post("/batch/validate", h.handleValidate)
		r.Post("/batch/add", h.handleAddBatch)
		r.Patch("/rows/{index}", h.handleUpdateRow)
		r.Delete("/rows/{index}", h.handleDeleteRow)
		r.Post("/confirmation/proceed", h.handleProceed)
		r.Post("/confirmation/cancel", h.handleCancel)
		r.Delete("/items/{index}", h.handleRemoveItem)
		r.Post("/cursor", h.handleCursor)
		r.Get("/export.xlsx", h.handleExport)
		r.Post("/save", h.handleSave)
	})
}

type rowEdit struct {
	Field Field           `json:"field" validate:"required,oneof=line_no ref_no cost profit_percent meter_quantity"`
	Value json.RawMessage `json:"value"`
}

// text accepts both JSON strings and bare numbers as the edited value.
func (e rowEdit) text() string {
	var s string
	if err := json.Unmarshal(e.Value, &s); err == nil {
		return s
	}
	if string(e.Value) == "null" {
		return ""
	}
	return string(e.Value)
}

type gateResponse struct {
	State     confirm.State `json:"state"`
	Worksheet Worksheet     `json:"worksheet"`
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var header Header
	if err := httpx.DecodeAndValidate(r, &header); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ws, err := h.service.Open(r.Context(), header)
	if err != nil {
		h.fail(w, "open worksheet", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ws)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ws, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get worksheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "discard worksheet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var u BatchUpdate
	if err := httpx.DecodeAndValidate(r, &u); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ws, err := h.service.ConfigureBatch(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		h.fail(w, "configure batch", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ValidateBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "validate batch", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleAddBatch(w http.ResponseWriter, r *http.Request) {
	state, ws, err := h.service.AddBatch(r.Context(), chi.URLParam(r, "id"))
	h.respondGate(w, "add batch", state, ws, err)
}

func (h *Handler) handleProceed(w http.ResponseWriter, r *http.Request) {
	state, ws, err := h.service.Proceed(r.Context(), chi.URLParam(r, "id"))
	h.respondGate(w, "proceed batch", state, ws, err)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	state, ws, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	h.respondGate(w, "cancel batch", state, ws, err)
}

func (h *Handler) respondGate(w http.ResponseWriter, op string, state confirm.State, ws Worksheet, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gateResponse{State: state, Worksheet: ws})
}

func (h *Handler) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var edit rowEdit
	if err := httpx.DecodeAndValidate(r, &edit); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ws, err := h.service.UpdateRow(r.Context(), chi.URLParam(r, "id"), index, edit.Field, edit.text())
	if err != nil {
		h.fail(w, "update row", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws)
}

func (h *Handler) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	ws, err := h.service.DeleteRow(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, "delete row", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	ws, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, "remove item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws)
}

func (h *Handler) handleCursor(w http.ResponseWriter, r *http.Request) {
	var move CursorMove
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &move); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	pos, err := h.service.MoveCursor(r.Context(), chi.URLParam(r, "id"), move)
	if err != nil {
		h.fail(w, "move cursor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), id, &buf); err != nil {
		h.fail(w, "export worksheet", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=grn-"+id+".xlsx")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write export", slog.String("worksheet_id", id), slog.Any("error", err))
	}
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "save grn", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "index must be an integer")
		return 0, false
	}
	return index, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Worksheet not found or expired")
	case errors.Is(err, ErrAwaitingConfirmation), errors.Is(err, confirm.ErrPending):
		httpx.Problem(w, http.StatusConflict, "Confirmation Required", "Proceed or cancel the pending batch first")
	case errors.Is(err, confirm.ErrNothingPending):
		httpx.Problem(w, http.StatusConflict, "Conflict", "No batch is waiting for confirmation")
	case errors.Is(err, store.ErrBusy):
		httpx.Problem(w, http.StatusConflict, "Conflict", "Worksheet is being updated, retry shortly")
	case errors.Is(err, ErrRowIndex), errors.Is(err, ErrItemIndex), errors.Is(err, ErrUnknownField), errors.Is(err, gridnav.ErrOutOfRange):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
