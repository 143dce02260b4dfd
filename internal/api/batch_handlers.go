package api

import (
	"net/http"
	"strings"

	"github.com/vendorvault/vendorvault/internal/batch"
	"github.com/vendorvault/vendorvault/internal/engine"
)

// uploadRequest represents a vendor credential upload. Manual entries and
// CSV content are mutually exclusive by mode.
type uploadRequest struct {
	Mode           string              `json:"mode"`
	Entries        []batch.ManualEntry `json:"entries,omitempty"`
	CSV            string              `json:"csv,omitempty"`
	AdminRequestID *string             `json:"admin_request_id,omitempty"`
}

func (s *Server) handleUploadBatch(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := getUserClaims(r.Context())
	in := engine.UploadInput{
		ProductID:      r.PathValue("id"),
		VendorID:       claims.VendorID,
		Mode:           req.Mode,
		Manual:         req.Entries,
		AdminRequestID: req.AdminRequestID,
		Actor:          requestActor(r),
	}
	if req.Mode == engine.ModeCSV {
		in.CSV = strings.NewReader(req.CSV)
	}

	result, err := s.engine.UploadBatch(r.Context(), in)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleListBatches returns masked batch metadata. Vendors see their own
// products only; admins additionally see profile assignment detail.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	product, err := s.db.GetProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	admin := isAdmin(r.Context())
	claims := getUserClaims(r.Context())
	if !admin && product.VendorID != claims.VendorID {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	summaries, err := s.engine.Vault().ListMetadata(r.Context(), productID, admin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list batches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"batches": summaries})
}

func (s *Server) handleRevealBatch(w http.ResponseWriter, r *http.Request) {
	revealed, err := s.engine.RevealBatch(r.Context(), r.PathValue("id"), requestActor(r))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revealed)
}

type approveBatchRequest struct {
	Comment string `json:"comment,omitempty"`
}

func (s *Server) handleApproveBatch(w http.ResponseWriter, r *http.Request) {
	var req approveBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.engine.ApproveBatch(r.Context(), r.PathValue("id"), requestActor(r), req.Comment); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

type rejectBatchRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleRejectBatch(w http.ResponseWriter, r *http.Request) {
	var req rejectBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.engine.RejectBatch(r.Context(), r.PathValue("id"), requestActor(r), req.Reason); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
