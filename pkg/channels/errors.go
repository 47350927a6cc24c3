package channels

import (
	"errors"
	"fmt"

	"github.com/relayops/channelstore/pkg/auth"
)

// ValidationError reports rejected input: duplicate names, malformed YAML,
// oversize payloads, missing required fields. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// QuotaExceededError is the validation failure for exhausted per-tenant
// limits. It carries enough context for the caller to self-correct.
type QuotaExceededError struct {
	Resource string
	Current  int64
	Limit    int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d of %d used", e.Resource, e.Current, e.Limit)
}

// NotFoundError reports a missing organization, channel, version, or blob.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// BackendError reports a transient storage or database failure. No internal
// retries are performed; the caller owns retry policy.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend failure during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a validation-category failure,
// including quota exhaustion.
func IsValidation(err error) bool {
	var ve *ValidationError
	var qe *QuotaExceededError
	return errors.As(err, &ve) || errors.As(err, &qe)
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// ErrorCategory names the taxonomy bucket of err, for metrics and logging.
func ErrorCategory(err error) string {
	var authErr *auth.AuthError
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case errors.As(err, &authErr):
		return "auth"
	default:
		return "backend"
	}
}
