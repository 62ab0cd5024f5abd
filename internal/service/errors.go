package service

import (
	"errors"
	"fmt"
)

// Sale failures are returned as values so handlers can render a specific,
// actionable message. Business-rule failures are definitive and must not be
// retried; only *TransientError is worth a caller-side retry.
var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrItemNotFound    = errors.New("item not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
)

// InsufficientStockError carries the available quantity so the caller can
// surface "only N left".
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d left", e.Available)
}

// TransientError wraps storage or network failures that left no partial
// state behind. Callers may retry with backoff; the engine itself never
// retries because a blind re-submit of a non-idempotent write could charge
// stock twice.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "temporarily unavailable: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient helps callers distinguish retryable infrastructure failures
// from definitive business rejections.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// ErrorCode maps a sale failure to the wire-level error code.
func ErrorCode(err error) string {
	var insufficient *InsufficientStockError
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return "INVALID_QUANTITY"
	case errors.Is(err, ErrItemNotFound):
		return "ITEM_NOT_FOUND"
	case errors.As(err, &insufficient):
		return "INSUFFICIENT_STOCK"
	case IsTransient(err):
		return "TRANSIENT_FAILURE"
	default:
		return "UNKNOWN"
	}
}
