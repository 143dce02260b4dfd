// Package api exposes the fulfillment engine over HTTP. Handlers stay
// thin: decode, call the engine or store, map faults onto statuses.
package api

import (
	"net/http"

	"github.com/vendorvault/vendorvault/internal/auth"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/engine"
)

// Server holds all dependencies for the HTTP API.
type Server struct {
	db      *db.DB
	auth    *auth.Auth
	engine  *engine.Engine
	limiter *rateLimiter
	mux     *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(database *db.DB, authSvc *auth.Auth, eng *engine.Engine) *Server {
	s := &Server{
		db:      database,
		auth:    authSvc,
		engine:  eng,
		limiter: newRateLimiter(20, 40),
		mux:     http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return securityHeadersMiddleware(
		requestIDMiddleware(
			rateLimitMiddleware(s.limiter)(
				s.loggingMiddleware(s.mux))))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Auth endpoints (no auth required)
	s.mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Auth-required endpoints
	s.mux.Handle("GET /api/v1/auth/me", s.authMiddleware(http.HandlerFunc(s.handleMe)))

	// Products
	s.mux.Handle("POST /api/v1/products", s.authMiddleware(s.vendorOnly(http.HandlerFunc(s.handleCreateProduct))))
	s.mux.Handle("GET /api/v1/products", s.authMiddleware(http.HandlerFunc(s.handleListProducts)))
	s.mux.Handle("GET /api/v1/products/{id}", s.authMiddleware(http.HandlerFunc(s.handleGetProduct)))
	s.mux.Handle("POST /api/v1/products/{id}/review", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleReviewProduct))))

	// Credential batches
	s.mux.Handle("POST /api/v1/products/{id}/batches", s.authMiddleware(s.vendorOnly(http.HandlerFunc(s.handleUploadBatch))))
	s.mux.Handle("GET /api/v1/products/{id}/batches", s.authMiddleware(http.HandlerFunc(s.handleListBatches)))
	s.mux.Handle("POST /api/v1/batches/{id}/reveal", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleRevealBatch))))
	s.mux.Handle("POST /api/v1/batches/{id}/approve", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleApproveBatch))))
	s.mux.Handle("POST /api/v1/batches/{id}/reject", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleRejectBatch))))

	// Profiles
	s.mux.Handle("POST /api/v1/profiles/{id}/assign", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleAssignProfile))))
	s.mux.Handle("POST /api/v1/profiles/{id}/unassign", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleUnassignProfile))))

	// Stock requests
	s.mux.Handle("POST /api/v1/stock-requests", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleCreateStockRequest))))
	s.mux.Handle("GET /api/v1/stock-requests", s.authMiddleware(http.HandlerFunc(s.handleListStockRequests)))
	s.mux.Handle("GET /api/v1/stock-requests/{id}", s.authMiddleware(http.HandlerFunc(s.handleGetStockRequest)))
	s.mux.Handle("POST /api/v1/stock-requests/{id}/cancel", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleCancelStockRequest))))
	s.mux.Handle("POST /api/v1/stock-requests/{id}/decline", s.authMiddleware(s.vendorOnly(http.HandlerFunc(s.handleDeclineStockRequest))))

	// Audit
	s.mux.Handle("GET /api/v1/audit", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleListAuditEntries))))
	s.mux.Handle("GET /api/v1/audit/verify", s.authMiddleware(s.adminOnly(http.HandlerFunc(s.handleVerifyAuditChain))))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
