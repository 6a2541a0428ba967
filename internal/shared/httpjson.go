package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError maps a classified error onto an HTTP status and JSON body.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var e *Error
	if !errors.As(err, &e) {
		if errors.Is(err, ErrNotFound) {
			RespondJSON(w, http.StatusNotFound, ErrorResponse{Kind: KindNotFound, Message: "not found"})
			return
		}
		if logger != nil {
			logger.Error("unhandled error", slog.Any("error", err))
		}
		RespondJSON(w, http.StatusInternalServerError, ErrorResponse{Kind: KindExternalService, Message: "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case KindValidation:
		status = http.StatusUnprocessableEntity
	case KindAuthz:
		status = http.StatusForbidden
	case KindCredential:
		status = http.StatusUnauthorized
	case KindNotFound:
		status = http.StatusNotFound
	case KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	case KindExternalService:
		status = http.StatusBadGateway
	case KindRateLimited:
		status = http.StatusTooManyRequests
	case KindQuotaExceeded:
		status = http.StatusPaymentRequired
	}
	if status >= 500 && logger != nil {
		logger.Error("request failed", slog.String("kind", string(e.Kind)), slog.Any("error", err))
	}
	RespondJSON(w, status, ErrorResponse{Kind: e.Kind, Message: e.Message, Field: e.Field})
}

// DecodeJSON reads the request body into dst, rejecting unknown payloads with
// a validation error.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &Error{Kind: KindValidation, Message: "malformed json body", Err: err}
	}
	return nil
}
