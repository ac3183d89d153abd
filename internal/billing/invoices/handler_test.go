package invoices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/worklog/internal/shared"
)

type problemBody struct {
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Errors []shared.FieldError `json:"errors"`
}

type detailBody struct {
	Data struct {
		ID            int64          `json:"id"`
		Status        Status         `json:"status"`
		InvoiceNumber *string        `json:"invoice_number"`
		TaxRate       string         `json:"tax_rate"`
		Subtotal      int64          `json:"subtotal"`
		TaxAmount     int64          `json:"tax_amount"`
		TotalAmount   int64          `json:"total_amount"`
		BillingDate   string         `json:"billing_date"`
		Items         []itemResponse `json:"items"`
	} `json:"data"`
}

func newTestRouter(svc *Service, withCaller bool) http.Handler {
	r := chi.NewRouter()
	if withCaller {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(shared.ContextWithCaller(req.Context(), testCaller)))
			})
		})
	}
	r.Route("/billing/invoices", NewHandler(nil, svc).MountRoutes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const createBody = `{
	"customer_id": 11,
	"customer_name": "Acme",
	"billing_date": "2025-05-01",
	"title": "May works",
	"tax_rate": "10",
	"items": [
		{"item_type": "header", "name": "Week 18"},
		{"item_type": "product", "name": "Cable", "quantity": "2", "unit_price": 500}
	]
}`

func TestHandlerCreateIssueFlow(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()), true)

	rec := do(t, router, http.MethodPost, "/billing/invoices/", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created detailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, StatusDraft, created.Data.Status)
	assert.Nil(t, created.Data.InvoiceNumber)
	assert.Equal(t, int64(1000), created.Data.Subtotal)
	assert.Equal(t, int64(100), created.Data.TaxAmount)
	assert.Equal(t, "2025-05-01", created.Data.BillingDate)
	assert.Equal(t, "10", created.Data.TaxRate)
	require.Len(t, created.Data.Items, 2)
	assert.Nil(t, created.Data.Items[0].Amount)

	path := "/billing/invoices/" + itoa(created.Data.ID)
	rec = do(t, router, http.MethodPost, path+"/issue", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var issued detailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	assert.Equal(t, StatusIssued, issued.Data.Status)
	require.NotNil(t, issued.Data.InvoiceNumber)
	assert.Equal(t, "INV-2025-001", *issued.Data.InvoiceNumber)

	rec = do(t, router, http.MethodPost, path+"/issue", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/billing/invoices/?status=issued", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []invoiceResponse `json:"data"`
		Meta shared.Pagination `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Meta.Total)
}

func TestHandlerIssueWithoutItemsReportsTotalAmount(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()), true)

	rec := do(t, router, http.MethodPost, "/billing/invoices/", `{"customer_id": 11, "billing_date": "2025-05-01", "tax_rate": "10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created detailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodPost, "/billing/invoices/"+itoa(created.Data.ID)+"/issue", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	var problem problemBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "total_amount", problem.Errors[0].Field)
}

func TestHandlerValidationErrors(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()), true)

	rec := do(t, router, http.MethodPost, "/billing/invoices/", `{
		"billing_date": "05/01/2025",
		"tax_rate": "10",
		"items": [{"item_type": "service", "name": "x"}]
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var problem problemBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	fields := make([]string, 0, len(problem.Errors))
	for _, e := range problem.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"customer_id", "billing_date", "items[0].item_type"}, fields)

	rec = do(t, router, http.MethodPost, "/billing/invoices/", `{
		"customer_id": 11,
		"billing_date": "2025-05-01",
		"tax_rate": "10",
		"items": [{"item_type": "product", "name": "Cable", "quantity": "0", "unit_price": 5}]
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "items[0].quantity", problem.Errors[0].Field)

	rec = do(t, router, http.MethodPost, "/billing/invoices/", `{"customer_id": 11, "unknown": true}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerCanceledInvoiceIsLocked(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()), true)

	rec := do(t, router, http.MethodPost, "/billing/invoices/", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created detailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := "/billing/invoices/" + itoa(created.Data.ID)

	rec = do(t, router, http.MethodPost, path+"/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPatch, path, `{"title": "new"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPut, path+"/items", `{"items": []}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, path+"/cancel", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, path+"/copy", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var copied detailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &copied))
	assert.Equal(t, StatusDraft, copied.Data.Status)
	assert.NotEqual(t, created.Data.ID, copied.Data.ID)
}

func TestHandlerIdempotencyKey(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()), true)

	rec := do(t, router, http.MethodPost, "/billing/invoices/", createBody, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, router, http.MethodPost, "/billing/invoices/", createBody, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/billing/invoices/", createBody, idempotencyHeader, strings.Repeat("x", 300))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerTryAgainOnExhaustedRetries(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(newTestService(repo), true)

	rec := do(t, router, http.MethodPost, "/billing/invoices/", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created detailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	repo.conflicts = 10
	rec = do(t, router, http.MethodPost, "/billing/invoices/"+itoa(created.Data.ID)+"/issue", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	rec := do(t, newTestRouter(svc, false), http.MethodGet, "/billing/invoices/", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	router := newTestRouter(svc, true)
	rec = do(t, router, http.MethodGet, "/billing/invoices/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/billing/invoices/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/billing/invoices/?status=paid", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
