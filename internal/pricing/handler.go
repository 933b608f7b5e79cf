package pricing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/receiving/internal/platform/httpx"
)

// RefreshEnqueuer schedules an asynchronous rule refresh.
type RefreshEnqueuer interface {
	EnqueueRulesRefresh(ctx context.Context) error
}

// Handler exposes the pricing service over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	queue   RefreshEnqueuer
}

// NewHandler constructs the pricing handler. queue may be nil, in which case
// refreshes run inline.
func NewHandler(logger *slog.Logger, service *Service, queue RefreshEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, queue: queue}
}

// MountRoutes registers pricing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/round-off-rules", h.handleListRules)
	r.Post("/round-off-rules/refresh", h.handleRefresh)
	r.Post("/quote", h.handleQuote)
}

type quoteRequest struct {
	Cost          float64 `json:"cost" validate:"gt=0"`
	ProfitPercent float64 `json:"profit_percent" validate:"gte=0"`
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.Rules(r.Context())
	if err != nil {
		h.fail(w, "load round-off rules", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.queue != nil {
		if err := h.queue.EnqueueRulesRefresh(r.Context()); err != nil {
			h.logger.Error("enqueue rules refresh", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]any{"queued": true})
		return
	}
	count, err := h.service.Refresh(r.Context())
	if err != nil {
		h.fail(w, "refresh round-off rules", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": count})
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Quote(r.Context(), req.Cost, req.ProfitPercent)
	if err != nil {
		h.fail(w, "quote price", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	if errors.Is(err, ErrInvalidRule) {
		httpx.Problem(w, http.StatusBadGateway, "Invalid Round-Off Rules", err.Error())
		return
	}
	httpx.RespondError(w, err)
}
