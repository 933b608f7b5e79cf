package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/receiving/internal/inward"
	"github.com/odyssey-erp/receiving/internal/observability"
	"github.com/odyssey-erp/receiving/internal/platform/httpx"
	"github.com/odyssey-erp/receiving/internal/pricing"
	"github.com/odyssey-erp/receiving/internal/receiving"
	"github.com/odyssey-erp/receiving/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	PricingHandler   *pricing.Handler
	ReceivingHandler *receiving.Handler
	InwardHandler    *inward.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.PricingHandler != nil {
		r.Route("/pricing", params.PricingHandler.MountRoutes)
	}
	if params.ReceivingHandler != nil {
		r.Route("/receiving/worksheets", params.ReceivingHandler.MountRoutes)
	}
	if params.InwardHandler != nil {
		r.Route("/inward", params.InwardHandler.MountRoutes)
	}
	return r
}
