// This file implements utilities for parsing and validating HTTP request
// data: JSON bodies, list-valued query parameters and input sanitization.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finwise/internal/report"
	"finwise/internal/services"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// DecodeJSON reads a single JSON value from the request body into dst.
// Unknown fields are rejected so typos surface as 400s.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// ParseIndices reads a comma-separated list of non-negative integers such as
// "0,2". Blank entries are skipped.
func ParseIndices(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid index %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseBenefitFilter extracts the status and q query parameters.
func ParseBenefitFilter(query url.Values) (services.BenefitFilter, error) {
	f := services.BenefitFilter{
		Status: strings.ToLower(sanitizeInput(query.Get("status"))),
		Query:  sanitizeInput(query.Get("q")),
	}
	switch f.Status {
	case "", services.StatusAll, services.StatusEligible, services.StatusPending, services.StatusClaimed:
		return f, nil
	default:
		return f, fmt.Errorf("invalid status %q", f.Status)
	}
}

// ParseBookFilter reads the book list query parameters.
func ParseBookFilter(query url.Values) services.BookFilter {
	return services.BookFilter{
		Search:          sanitizeInput(query.Get("search")),
		Genre:           sanitizeInput(query.Get("genre")),
		Difficulty:      sanitizeInput(query.Get("difficulty")),
		InvestmentLevel: sanitizeInput(query.Get("investment_level")),
	}
}

// ParseBookID parses a positive book id from a path segment.
func ParseBookID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", raw)
	}
	return id, nil
}

// ParseFormat reads the export format, defaulting to JSON.
func ParseFormat(query url.Values) (string, error) {
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		return report.FormatJSON, nil
	}
	if _, ok := report.ContentTypes[format]; !ok {
		return "", fmt.Errorf("unsupported format %q", format)
	}
	return format, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
