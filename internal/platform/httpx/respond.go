// Package httpx provides JSON response helpers shared by HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies decoded by DecodeJSON.
const MaxBodyBytes = 1 << 20

// Sentinel errors mapped by RespondError.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error              string   `json:"error"`
	AllowedRoles       []string `json:"allowed_roles,omitempty"`
	RequiredPermission string   `json:"required_permission,omitempty"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// RespondError maps sentinel errors onto status codes. Unknown errors become
// a 500 without leaking the error text.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Error(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, ErrForbidden):
		Error(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, ErrNotFound):
		Error(w, http.StatusNotFound, "Not found")
	default:
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// DecodeJSON decodes a size-limited JSON body into target, rejecting
// unknown fields and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.Join(ErrValidation, errors.New("unexpected trailing data"))
	}
	return nil
}
