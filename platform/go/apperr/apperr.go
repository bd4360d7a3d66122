// Package apperr carries the error taxonomy shared by handlers and the
// persistence layer, together with the structured JSON response writer.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors. Business-expected conditions are returned as
// discriminated values, never raised out of the layer that detected them;
// only infrastructure failures propagate as wrapped errors.
var (
	// ErrTenantMissing marks a tenant-required route invoked without any
	// valid tenant evidence. Non-retryable.
	ErrTenantMissing = errors.New("tenant missing")

	// ErrTenantBindingFailed marks a failure to apply the tenant directive
	// to the storage session. Retryable.
	ErrTenantBindingFailed = errors.New("tenant binding failed")

	// ErrSchedulingConflict marks an overlapping booking window.
	// Non-retryable without changing the request.
	ErrSchedulingConflict = errors.New("scheduling conflict")

	// ErrScopeLeak marks a tenant binding that survived scope cleanup. A
	// leaked binding is a security incident, not a normal error; callers
	// must discard the offending connection and log loudly.
	ErrScopeLeak = errors.New("tenant scope leak")
)

// Body is the structured error payload returned to clients.
type Body struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Resource  string `json:"resource,omitempty"`
	Key       string `json:"key,omitempty"`
	Retryable bool   `json:"retryable"`
}

// ConflictError identifies which resource class collided during booking.
type ConflictError struct {
	Resource string // "vehicle" | "technician"
	Key      string
}

func (e *ConflictError) Error() string {
	return "scheduling conflict on " + e.Resource + " " + e.Key
}

// Unwrap lets errors.Is match ErrSchedulingConflict.
func (e *ConflictError) Unwrap() error {
	return ErrSchedulingConflict
}

// Write maps err onto the taxonomy and emits the structured response.
// Unrecognized errors are classified as infrastructure failures (503).
func Write(w http.ResponseWriter, err error) {
	var conflict *ConflictError

	switch {
	case errors.Is(err, ErrTenantMissing):
		writeJSON(w, http.StatusBadRequest, Body{
			Code:    "tenant_missing",
			Message: "a valid tenant is required for this route",
		})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, Body{
			Code:     "scheduling_conflict",
			Message:  "requested booking window overlaps an existing appointment",
			Resource: conflict.Resource,
			Key:      conflict.Key,
		})
	case errors.Is(err, ErrSchedulingConflict):
		writeJSON(w, http.StatusConflict, Body{
			Code:    "scheduling_conflict",
			Message: "requested booking window overlaps an existing appointment",
		})
	case errors.Is(err, ErrTenantBindingFailed):
		writeJSON(w, http.StatusServiceUnavailable, Body{
			Code:      "tenant_binding_failed",
			Message:   "could not bind tenant context, retry later",
			Retryable: true,
		})
	default:
		writeJSON(w, http.StatusServiceUnavailable, Body{
			Code:      "unavailable",
			Message:   "service temporarily unavailable",
			Retryable: true,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
