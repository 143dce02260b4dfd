package api

import (
	"net/http"
)

type assignProfileRequest struct {
	Owner string `json:"owner"`
}

func (s *Server) handleAssignProfile(w http.ResponseWriter, r *http.Request) {
	var req assignProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	profile, err := s.engine.Vault().AssignProfile(r.Context(), r.PathValue("id"), req.Owner, requestActor(r))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUnassignProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.engine.Vault().UnassignProfile(r.Context(), r.PathValue("id"), requestActor(r))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
