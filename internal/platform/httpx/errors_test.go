package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/worklog/internal/shared"
)

type fieldFailure struct {
	fields []shared.FieldError
}

func (f fieldFailure) Error() string                    { return "item name is required" }
func (f fieldFailure) Is(target error) bool             { return target == shared.ErrInvalidInput }
func (f fieldFailure) FieldErrors() []shared.FieldError { return f.fields }

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("invoice %w", shared.ErrNotFound), status: http.StatusNotFound},
		{err: fmt.Errorf("%w: already canceled", shared.ErrConflict), status: http.StatusConflict},
		{err: fmt.Errorf("%w: retry", shared.ErrUnavailable), status: http.StatusServiceUnavailable},
		{err: shared.ErrForbidden, status: http.StatusForbidden},
		{err: shared.ErrUnauthorized, status: http.StatusUnauthorized},
		{err: errors.New("db down"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, nil, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestRespondErrorIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, nil, fieldFailure{fields: []shared.FieldError{{Field: "items[0].name", Message: "is required"}}})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	require.Equal(t, "items[0].name", body.Errors[0].Field)
}

func TestRespondErrorInvalidField(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, nil, shared.InvalidField("customer_id", "is required"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []shared.FieldError{{Field: "customer_id", Message: "is required"}}, body.Errors)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	err := DecodeJSON(httptest.NewRecorder(), req, &target)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}
