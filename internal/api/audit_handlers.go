package api

import (
	"net/http"
	"strconv"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/db"
)

// handleListAuditEntries queries the ledger with optional filters.
func (s *Server) handleListAuditEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, err := s.db.ListAuditEntries(r.Context(), db.AuditQuery{
		SubjectID: q.Get("subject_id"),
		ActorID:   q.Get("actor_id"),
		ActorRole: q.Get("actor_role"),
		Action:    q.Get("action"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query audit ledger")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// handleVerifyAuditChain recomputes every hash link in the ledger and
// reports the first break, if any.
func (s *Server) handleVerifyAuditChain(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.ListAuditChain(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read audit ledger")
		return
	}

	if err := audit.Verify(entries); err != nil {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"ok":      false,
			"entries": len(entries),
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"entries": len(entries),
	})
}
