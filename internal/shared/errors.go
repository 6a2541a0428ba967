package shared

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrNoAssignment indicates an identity without a current role.
	ErrNoAssignment = errors.New("no role assignment")
)

// Kind classifies an error so callers can choose behaviour without
// string-matching messages.
type Kind string

const (
	// KindValidation marks a rejected request before any store mutation.
	KindValidation Kind = "validation"
	// KindAuthz marks a capability denied for the caller's current role.
	KindAuthz Kind = "authz"
	// KindCredential marks a wrong PIN during role verification.
	KindCredential Kind = "credential"
	// KindNotFound marks a missing resource.
	KindNotFound Kind = "not_found"
	// KindStoreUnavailable marks a transient persistence failure, retryable
	// by the caller.
	KindStoreUnavailable Kind = "store_unavailable"
	// KindExternalService marks an upstream dependency failure.
	KindExternalService Kind = "external_service"
	// KindRateLimited marks an upstream rejecting for rate, retryable after
	// a pause.
	KindRateLimited Kind = "rate_limited"
	// KindQuotaExceeded marks an exhausted upstream quota, not retryable.
	KindQuotaExceeded Kind = "quota_exceeded"
)

// Error carries a kind plus a human message and optional field detail.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// FieldError builds a validation error with field-level detail.
func FieldError(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// WrapStore classifies a persistence error. Connection-level failures become
// KindStoreUnavailable so callers know a retry may succeed.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindStoreUnavailable, Message: op + ": store timeout", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindStoreUnavailable, Message: op + ": store unreachable", Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 covers connection exceptions, class 57 operator
		// intervention (shutdown, crash recovery).
		if len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57") {
			return &Error{Kind: KindStoreUnavailable, Message: op + ": store unavailable", Err: err}
		}
	}
	if pgconn.Timeout(err) {
		return &Error{Kind: KindStoreUnavailable, Message: op + ": store timeout", Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// KindOf extracts the Kind from err, or empty when unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
