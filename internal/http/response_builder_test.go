package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finwise/internal/core"
	"finwise/internal/ports"
	"finwise/internal/services"
	"finwise/internal/session"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"n":1}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().JSON(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestJSONResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Attachment("text/csv", "report.csv", []byte("a,b\n")).Write(w)

	if got := w.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="report.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "a,b\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("x"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("x"), http.StatusNotFound},
		{"internal", InternalServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.code {
				t.Errorf("Status code = %d, want %d", w.Code, tt.code)
			}
			if got := strings.TrimSpace(w.Body.String()); got != `{"error":"x"}` {
				t.Errorf("Body = %q", got)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrUnauthenticated, http.StatusUnauthorized},
		{core.ErrEmptyUserID, http.StatusBadRequest},
		{services.ErrExportDisabled, http.StatusBadRequest},
		{fmt.Errorf("%w: age out of range", core.ErrInvalidProfile), http.StatusUnprocessableEntity},
		{fmt.Errorf("amount 0: %w", core.ErrUnparsed), http.StatusUnprocessableEntity},
		{services.ErrBenefitNotFound, http.StatusNotFound},
		{services.ErrUnknownReport, http.StatusNotFound},
		{ports.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: 9", services.ErrBookNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: unknown status", core.ErrInvalidReading), http.StatusUnprocessableEntity},
		{core.ErrInvalidPreference, http.StatusUnprocessableEntity},
		{core.ErrInvalidBook, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("sqlite: disk I/O error"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "sqlite") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}

func TestWriteErrorStatusAndBody(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"not found", ports.ErrNotFound, http.StatusNotFound, ports.ErrNotFound.Error()},
		{"unprocessable", fmt.Errorf("amount 2: %w", core.ErrUnparsed), http.StatusUnprocessableEntity, "amount 2: " + core.ErrUnparsed.Error()},
		{"bad request", services.ErrExportDisabled, http.StatusBadRequest, services.ErrExportDisabled.Error()},
		{"unauthenticated", session.ErrUnauthenticated, http.StatusUnauthorized, session.ErrUnauthenticated.Error()},
		{"internal", errors.New("disk full"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, httptest.NewRequest(http.MethodGet, "/api/x", nil), tt.err)
			if w.Code != tt.code {
				t.Errorf("Status code = %d, want %d", w.Code, tt.code)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.body {
				t.Errorf("error = %q, want %q", body.Error, tt.body)
			}
		})
	}
}
