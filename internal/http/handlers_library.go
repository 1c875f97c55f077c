package http

import (
	"net/http"

	"finwise/internal/services"
)

func (s *Server) handleWisdomLibrary(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := s.svc.Library.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(overview).Write(w)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Library.Books(r.Context(), ParseBookFilter(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(list).Write(w)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := ParseBookID(r.PathValue("id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	detail, err := s.svc.Library.Book(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(detail).Write(w)
}

func (s *Server) handleReadingHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := s.svc.Library.History(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(history).Write(w)
}

func (s *Server) handleUpdateReading(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.ReadingUpdate
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.BookID <= 0 {
		BadRequestError("book_id is required").Write(w)
		return
	}
	req.Status = sanitizeInput(req.Status)
	req.Review = sanitizeInput(req.Review)

	entry, err := s.svc.Library.UpdateHistory(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(entry).Write(w)
}

func (s *Server) handleReadingPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := s.svc.Library.Preferences(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(prefs).Write(w)
}

// handleUpdateReadingPreferences applies a partial update; omitted fields
// keep their stored values.
func (s *Server) handleUpdateReadingPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.PreferenceUpdate
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	prefs, err := s.svc.Library.UpdatePreferences(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(prefs).Write(w)
}
