package http

import (
	"bytes"
	"net/http"

	"finwise/internal/log"
	"finwise/internal/report"
)

func (s *Server) handleTaxSavings(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	considered, err := ParseIndices(r.URL.Query().Get("considered"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rep, err := s.svc.Tax.Summary(r.Context(), userID, considered)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(rep).Write(w)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.Reports.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(list).Write(w)
}

// handleGenerateReport renders one report as JSON or as a CSV/XLSX download.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format, err := ParseFormat(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	table, err := s.svc.Reports.Generate(r.Context(), userID, r.PathValue("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if format == report.FormatJSON {
		NewJSONResponse().JSON(table).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, table); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Attachment(report.ContentTypes[format], table.Filename(format), buf.Bytes()).
		Write(w)
}

type exportResponse struct {
	Report string `json:"report"`
	Range  string `json:"range"`
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reportType := r.PathValue("type")
	ref, err := s.svc.Reports.Export(r.Context(), userID, reportType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Report export requested",
		log.FieldUserID, userID,
		log.FieldReport, reportType)
	NewJSONResponse().JSON(exportResponse{Report: reportType, Range: ref}).Write(w)
}
