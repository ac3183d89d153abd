package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/worklog/internal/auth"
	"github.com/odyssey-erp/worklog/internal/billing/dailyreports"
	"github.com/odyssey-erp/worklog/internal/billing/invoices"
	"github.com/odyssey-erp/worklog/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Verifier           *auth.Verifier
	InvoiceHandler     *invoices.Handler
	DailyReportHandler *dailyreports.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with worklog defaults.
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

	r.Route("/billing", func(r chi.Router) {
		r.Use(auth.Middleware(params.Verifier, params.Logger))
		r.Use(auth.RequireAdmin)
		if params.InvoiceHandler != nil {
			r.Route("/invoices", params.InvoiceHandler.MountRoutes)
		}
		if params.DailyReportHandler != nil {
			r.Route("/daily-reports", params.DailyReportHandler.MountRoutes)
		}
	})

	return r
}
