package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorvault/vendorvault/internal/batch"
	"github.com/vendorvault/vendorvault/internal/engine"
	"github.com/vendorvault/vendorvault/internal/faults"
)

func TestWriteFaultStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{faults.NotFound("product"), http.StatusNotFound},
		{faults.Conflict("stock request is fulfilled"), http.StatusConflict},
		{faults.Invalid("quantity must be positive"), http.StatusBadRequest},
		{errors.New("pool exhausted"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeFault(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, "error %v", tc.err)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestWriteFaultInternalErrorsAreOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	writeFault(rec, errors.New("connect to db-host:5432 failed"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
	assert.NotContains(t, rec.Body.String(), "db-host")
}

func TestWriteFaultValidationCarriesRowErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeFault(rec, &engine.ValidationError{Rows: []batch.RowError{
		{Line: 3, Raw: "account=a@x.com", Reason: "account secret is required"},
	}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error  string           `json:"error"`
		Errors []batch.RowError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, 3, body.Errors[0].Line)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
