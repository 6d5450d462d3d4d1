package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldline/fieldline/internal/batch"
	"github.com/fieldline/fieldline/internal/observability"
	"github.com/fieldline/fieldline/internal/reporting"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	BatchHandler     *batch.Handler
	ReportingHandler *reporting.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Fieldline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.BatchHandler != nil {
		r.Route("/internal/cron", func(r chi.Router) {
			params.BatchHandler.MountRoutes(r)
		})
	}

	if params.ReportingHandler != nil {
		r.Route("/api/v1/analytics", func(r chi.Router) {
			params.ReportingHandler.MountRoutes(r)
		})
	}

	return r
}
