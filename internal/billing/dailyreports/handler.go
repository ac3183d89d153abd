package dailyreports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/worklog/internal/platform/httpx"
	"github.com/odyssey-erp/worklog/internal/shared"
)

// Handler exposes the daily report aggregation endpoint.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers daily report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.CallerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, h.logger, shared.ErrUnauthorized)
		return
	}
	query := parseListQuery(r.URL.Query())
	if err := h.validator.Struct(query); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	aggregates, page, err := h.service.ForInvoice(r.Context(), caller, query.toFilter())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	data := make([]aggregateResponse, len(aggregates))
	for i, a := range aggregates {
		data[i] = newAggregateResponse(a)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "meta": page})
}
