package http

import (
	"net/http"

	"finwise/internal/core"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(p).Write(w)
}

// handleUpdateProfile replaces the caller's profile. The user id always comes
// from the session, never from the body.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p core.Profile
	if err := DecodeJSON(w, r, &p); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p.Name = sanitizeInput(p.Name)
	p.Occupation = sanitizeInput(p.Occupation)
	p.City = sanitizeInput(p.City)
	p.State = sanitizeInput(p.State)

	saved, err := s.svc.Profiles.Update(r.Context(), userID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(saved).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.svc.Dashboard.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(stats).Write(w)
}
