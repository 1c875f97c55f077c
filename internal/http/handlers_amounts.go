package http

import (
	"fmt"
	"net/http"

	"finwise/internal/core"
)

// maxBatch caps the literals accepted by one parse request.
const maxBatch = 500

type parseAmountsRequest struct {
	Amounts []core.Literal `json:"amounts"`
	// Strict rejects the batch on the first unreadable amount.
	Strict bool `json:"strict"`
}

type parsedAmount struct {
	Input     core.Literal `json:"input"`
	Rupees    int64        `json:"rupees"`
	Compact   string       `json:"compact"`
	Formatted string       `json:"formatted"`
}

type parseAmountsResponse struct {
	UnitMatch    string         `json:"unit_match"`
	Results      []parsedAmount `json:"results"`
	Total        int64          `json:"total"`
	TotalCompact string         `json:"total_compact"`
}

// handleParseAmounts parses a batch of amount literals and sums them.
func (s *Server) handleParseAmounts(w http.ResponseWriter, r *http.Request) {
	var req parseAmountsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if len(req.Amounts) > maxBatch {
		BadRequestError(fmt.Sprintf("at most %d amounts per request", maxBatch)).Write(w)
		return
	}

	parser := s.svc.Parser
	resp := parseAmountsResponse{
		UnitMatch: parser.UnitMatch().String(),
		Results:   make([]parsedAmount, 0, len(req.Amounts)),
	}
	records := make([]core.Record, 0, len(req.Amounts))
	for i, lit := range req.Amounts {
		var n int64
		if req.Strict {
			v, err := parser.ParseStrict(lit)
			if err != nil {
				writeError(w, r, fmt.Errorf("amount %d: %w", i, err))
				return
			}
			n = v
		} else {
			n = parser.Parse(lit)
		}
		resp.Results = append(resp.Results, parsedAmount{
			Input:     lit,
			Rupees:    n,
			Compact:   core.FormatCompact(n),
			Formatted: core.FormatRupees(n),
		})
		records = append(records, core.Record{Amount: core.IntAmount(n)})
	}

	// Records are already rupees; the package-level Aggregate saturates the
	// sum without firing the parse hook a second time.
	res := core.Aggregate(records, core.Constant("batch"))
	resp.Total = res.Total
	resp.TotalCompact = core.FormatCompact(res.Total)
	NewJSONResponse().JSON(resp).Write(w)
}
