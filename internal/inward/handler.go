package inward

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/receiving/internal/confirm"
	"github.com/odyssey-erp/receiving/internal/platform/httpx"
	"github.com/odyssey-erp/receiving/internal/platform/store"
)

// Handler exposes bundle inward entries over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the inward handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inward routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleOpen)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleDiscard)
		r.Post("/bills", h.handleAddBill)
		r.Delete("/bills/{index}", h.handleRemoveBill)
		r.Post("/confirmation/proceed", h.handleProceed)
		r.Post("/confirmation/cancel", h.handleCancel)
		r.Post("/save", h.handleSave)
	})
}

type gateResponse struct {
	State  confirm.State `json:"state"`
	Inward Inward        `json:"inward"`
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var header Header
	if err := httpx.DecodeAndValidate(r, &header); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.service.Open(r.Context(), header)
	if err != nil {
		h.fail(w, "open inward", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, in)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	in, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get inward", err)
		return
	}
	httpx.JSON(w, http.StatusOK, in)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "discard inward", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddBill(w http.ResponseWriter, r *http.Request) {
	var bill Bill
	if err := httpx.DecodeJSON(r, &bill); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed bill")
		return
	}
	state, in, err := h.service.AddBill(r.Context(), chi.URLParam(r, "id"), bill)
	h.respondGate(w, "add bill", state, in, err)
}

func (h *Handler) handleProceed(w http.ResponseWriter, r *http.Request) {
	state, in, err := h.service.Proceed(r.Context(), chi.URLParam(r, "id"))
	h.respondGate(w, "proceed bill", state, in, err)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	state, in, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	h.respondGate(w, "cancel bill", state, in, err)
}

func (h *Handler) respondGate(w http.ResponseWriter, op string, state confirm.State, in Inward, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gateResponse{State: state, Inward: in})
}

func (h *Handler) handleRemoveBill(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "index must be an integer")
		return
	}
	in, err := h.service.RemoveBill(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, "remove bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, in)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "save bundle inward", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Inward entry not found or expired")
	case errors.Is(err, ErrAwaitingConfirmation), errors.Is(err, confirm.ErrPending):
		httpx.Problem(w, http.StatusConflict, "Confirmation Required", "Proceed or cancel the pending bill first")
	case errors.Is(err, confirm.ErrNothingPending):
		httpx.Problem(w, http.StatusConflict, "Conflict", "No bill is waiting for confirmation")
	case errors.Is(err, store.ErrBusy):
		httpx.Problem(w, http.StatusConflict, "Conflict", "Inward entry is being updated, retry shortly")
	case errors.Is(err, ErrBillIndex), errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
