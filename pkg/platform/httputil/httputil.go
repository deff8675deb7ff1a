// Package httputil centralizes JSON response envelopes and domain-error
// translation so every handler returns consistent payloads.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "certflow/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into an HTTP response. Unknown errors
// become 500 with no detail leaked.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		resp.Message = de.Message
	}
	WriteJSON(w, ToHTTPStatus(code), resp)
}

// ToHTTPStatus maps domain error codes to HTTP statuses.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusForbidden
	case dErrors.CodeInvalidTransition, dErrors.CodeGuardViolation, dErrors.CodeInvariantViolation,
		dErrors.CodeConflict, dErrors.CodeDuplicatePayment:
		return http.StatusConflict
	case dErrors.CodeImmutableRecord:
		return http.StatusForbidden
	case dErrors.CodeUnknownState:
		return http.StatusInternalServerError
	case dErrors.CodeNoAuditorAvailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
