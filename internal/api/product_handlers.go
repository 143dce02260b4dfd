package api

import (
	"net/http"

	"github.com/vendorvault/vendorvault/internal/batch"
)

type createProductRequest struct {
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
	Provider    string `json:"provider"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Provider == "" {
		writeError(w, http.StatusBadRequest, "name and provider are required")
		return
	}
	if !batch.ValidServiceType(req.ServiceType) {
		writeError(w, http.StatusBadRequest, "unknown service_type")
		return
	}

	claims := getUserClaims(r.Context())
	product, err := s.db.CreateProduct(r.Context(), claims.VendorID, req.Name, req.ServiceType, req.Provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// handleListProducts lists products. Vendors only see their own.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	vendorID := ""
	if claims.Role != "admin" {
		vendorID = claims.VendorID
	} else if v := r.URL.Query().Get("vendor_id"); v != "" {
		vendorID = v
	}

	products, err := s.db.ListProducts(r.Context(), vendorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.db.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	claims := getUserClaims(r.Context())
	if !isAdmin(r.Context()) && product.VendorID != claims.VendorID {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	// The units block puts the sellable stock counter next to what the
	// vault actually holds, so drift is visible at a glance.
	units, err := s.engine.Reconciler().Summarize(r.Context(), product)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to summarize stock")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product": product,
		"units":   units,
	})
}

type reviewProductRequest struct {
	Decision string `json:"decision"` // approved or rejected
}

func (s *Server) handleReviewProduct(w http.ResponseWriter, r *http.Request) {
	var req reviewProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Decision != "approved" && req.Decision != "rejected" {
		writeError(w, http.StatusBadRequest, "decision must be approved or rejected")
		return
	}

	id := r.PathValue("id")
	if err := s.db.SetProductReviewStatus(r.Context(), id, req.Decision); err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := s.db.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}
