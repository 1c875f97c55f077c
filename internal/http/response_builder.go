// Package http serves the finwise JSON API.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors to status codes.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/ports"
	"finwise/internal/services"
	"finwise/internal/session"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	raw        []byte
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Attachment sends content as a file download instead of JSON.
func (b *JSONResponseBuilder) Attachment(contentType, filename string, content []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	b.raw = content
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.raw != nil {
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
		return
	}

	// Encode first so a marshalling failure still yields a clean 500.
	var buf bytes.Buffer
	if b.payload != nil {
		if err := json.NewEncoder(&buf).Encode(b.payload); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if buf.Len() > 0 {
		_, _ = w.Write(buf.Bytes())
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// statusFor maps a service error to the status code it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrEmptyUserID),
		errors.Is(err, services.ErrExportDisabled):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidProfile),
		errors.Is(err, core.ErrUnparsed),
		errors.Is(err, core.ErrInvalidReading),
		errors.Is(err, core.ErrInvalidPreference),
		errors.Is(err, core.ErrInvalidBook):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrBenefitNotFound),
		errors.Is(err, services.ErrUnknownReport),
		errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Internal errors are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var resp *JSONResponseBuilder
	switch code := statusFor(err); code {
	case http.StatusInternalServerError:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		resp = InternalServerError("internal server error")
	case http.StatusNotFound:
		resp = NotFoundError(err.Error())
	case http.StatusUnprocessableEntity:
		resp = UnprocessableEntityError(err.Error())
	case http.StatusBadRequest:
		resp = BadRequestError(err.Error())
	default:
		resp = ErrorResponse(code, err.Error())
	}
	resp.Write(w)
}
