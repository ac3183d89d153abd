package invoices

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/worklog/internal/platform/httpx"
	"github.com/odyssey-erp/worklog/internal/shared"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

// Handler exposes the invoice REST endpoints.
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

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Patch("/", h.update)
		r.Put("/items", h.replaceItems)
		r.Put("/daily-reports", h.linkDailyReports)
		r.Delete("/daily-reports", h.unlinkDailyReports)
		r.Post("/daily-reports/import", h.importDailyReports)
		r.Post("/issue", h.issue)
		r.Post("/cancel", h.cancel)
		r.Post("/copy", h.copy)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	query := parseListQuery(r.URL.Query())
	if err := h.validator.Struct(query); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	invoices, page, err := h.service.List(r.Context(), caller, query.toFilter())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	data := make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		data[i] = newInvoiceResponse(inv)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "meta": page})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	key, ok := h.idempotencyKey(w, r)
	if !ok {
		return
	}
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	detail, err := h.service.Create(r.Context(), caller, req.toInput(key))
	h.respondDetail(w, http.StatusCreated, detail, err)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Get(r.Context(), caller, id)
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}
	detail, err := h.service.Update(r.Context(), caller, id, req.toInput())
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) replaceItems(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req itemsRequest
	if !h.decode(w, r, &req) {
		return
	}
	detail, err := h.service.ReplaceItems(r.Context(), caller, id, toItemInputs(req.Items))
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) linkDailyReports(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req dailyReportsRequest
	if !h.decode(w, r, &req) {
		return
	}
	detail, err := h.service.LinkDailyReports(r.Context(), caller, id, req.DailyReportIDs)
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) unlinkDailyReports(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	detail, err := h.service.UnlinkDailyReports(r.Context(), caller, id)
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) importDailyReports(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req dailyReportsRequest
	if !h.decode(w, r, &req) {
		return
	}
	detail, err := h.service.ImportDailyReports(r.Context(), caller, id, req.DailyReportIDs)
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Issue(r.Context(), caller, id)
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Cancel(r.Context(), caller, id)
	h.respondDetail(w, http.StatusOK, detail, err)
}

func (h *Handler) copy(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	key, ok := h.idempotencyKey(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Copy(r.Context(), caller, id, key)
	h.respondDetail(w, http.StatusCreated, detail, err)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (shared.Caller, bool) {
	caller, ok := shared.CallerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, h.logger, shared.ErrUnauthorized)
		return shared.Caller{}, false
	}
	return caller, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (shared.Caller, int64, bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return shared.Caller{}, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid invoice ID", "")
		return shared.Caller{}, 0, false
	}
	return caller, id, true
}

func (h *Handler) idempotencyKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if len(key) > maxIdempotencyKeyLen {
		httpx.RespondError(w, h.logger, &httpx.RequestError{Fields: []shared.FieldError{{
			Field:   idempotencyHeader,
			Message: "must be at most " + strconv.Itoa(maxIdempotencyKeyLen) + " characters",
		}}})
		return "", false
	}
	return key, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(w, r, target); err != nil {
		httpx.RespondError(w, h.logger, err)
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, h.logger, err)
		return false
	}
	return true
}

func (h *Handler) respondDetail(w http.ResponseWriter, status int, detail *Detail, err error) {
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, status, map[string]any{"data": newDetailResponse(detail)})
}
