package http

import (
	"net/http"
	"strings"
)

type benefitStateRequest struct {
	Benefit string `json:"benefit"`
	Applied bool   `json:"applied"`
	Claimed bool   `json:"claimed"`
}

func (s *Server) handleListBenefits(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := ParseBenefitFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	sum, err := s.svc.Benefits.Summary(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(sum).Write(w)
}

func (s *Server) handleBenefitState(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req benefitStateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	name := strings.TrimSpace(sanitizeInput(req.Benefit))
	if name == "" {
		BadRequestError("benefit is required").Write(w)
		return
	}

	st, err := s.svc.Benefits.SetState(r.Context(), userID, name, req.Applied, req.Claimed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(st).Write(w)
}
