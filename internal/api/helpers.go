package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vendorvault/vendorvault/internal/engine"
	"github.com/vendorvault/vendorvault/internal/faults"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeFault maps engine fault kinds onto HTTP statuses. Validation
// failures carry their row errors so the vendor can fix the upload.
func writeFault(w http.ResponseWriter, err error) {
	var validation *engine.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "no valid credential rows",
			"errors": validation.Rows,
		})
	case errors.Is(err, faults.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, faults.ErrStateConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, faults.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
