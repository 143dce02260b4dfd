package api

import (
	"net/http"
	"time"
)

type createStockRequestRequest struct {
	VendorID  string     `json:"vendor_id"`
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Notes     string     `json:"notes,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

func (s *Server) handleCreateStockRequest(w http.ResponseWriter, r *http.Request) {
	var req createStockRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VendorID == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "vendor_id and product_id are required")
		return
	}

	request, err := s.engine.CreateStockRequest(r.Context(), requestActor(r),
		req.VendorID, req.ProductID, req.Quantity, req.Notes, req.Deadline)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// handleListStockRequests lists requests. Vendors only see their own.
func (s *Server) handleListStockRequests(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	vendorID := ""
	if !isAdmin(r.Context()) {
		vendorID = claims.VendorID
	} else if v := r.URL.Query().Get("vendor_id"); v != "" {
		vendorID = v
	}

	requests, err := s.db.ListStockRequests(r.Context(), vendorID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list stock requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// handleGetStockRequest returns a request with the batches contributed
// against it.
func (s *Server) handleGetStockRequest(w http.ResponseWriter, r *http.Request) {
	request, err := s.db.GetStockRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "stock request not found")
		return
	}

	claims := getUserClaims(r.Context())
	if !isAdmin(r.Context()) && request.VendorID != claims.VendorID {
		writeError(w, http.StatusNotFound, "stock request not found")
		return
	}

	batches, err := s.db.ListBatchesByRequest(r.Context(), request.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list request batches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request": request,
		"batches": batches,
	})
}

func (s *Server) handleCancelStockRequest(w http.ResponseWriter, r *http.Request) {
	request, err := s.engine.CancelStockRequest(r.Context(), r.PathValue("id"), requestActor(r))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// handleDeclineStockRequest lets the vendor turn down an open request
// addressed to them.
func (s *Server) handleDeclineStockRequest(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	current, err := s.db.GetStockRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "stock request not found")
		return
	}
	if current.VendorID != claims.VendorID {
		writeError(w, http.StatusNotFound, "stock request not found")
		return
	}

	request, err := s.engine.RejectStockRequest(r.Context(), current.ID, requestActor(r))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}
