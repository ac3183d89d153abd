package dailyreports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/worklog/internal/shared"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithCaller(req.Context(), admin)))
		})
	})
	r.Route("/billing/daily-reports", NewHandler(nil, NewService(repo)).MountRoutes)
	return r
}

func TestHandlerListsAggregates(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(1, 10, Aggregate{ReportID: 1, ReportDate: day(1), LaborCost: 1200})
	repo.add(1, 10, Aggregate{ReportID: 2, ReportDate: day(2), LaborCost: 800})
	repo.link(5, 2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/billing/daily-reports/?customer_id=10&exclude_invoice_id=5", nil)
	newTestRouter(repo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []aggregateResponse `json:"data"`
		Meta shared.Pagination   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, int64(1), body.Data[0].ReportID)
	require.Equal(t, "2025-03-01", body.Data[0].ReportDate)
	require.Equal(t, int64(1200), body.Data[0].TotalAmount)
	require.Equal(t, 1, body.Meta.Total)
}

func TestHandlerRejectsBadQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/billing/daily-reports/?from=03-01-2025", nil)
	newTestRouter(newMemoryRepo()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Errors []shared.FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fields := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		fields = append(fields, e.Field)
	}
	require.ElementsMatch(t, []string{"customer_id", "from"}, fields)
}
