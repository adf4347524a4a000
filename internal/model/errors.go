package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers malformed or missing required input. Not retryable.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers a missing bundle, creator or content record.
	ErrNotFound = errors.New("not found")
	// ErrAnonymousBuyer is returned when a fulfillment event carries no real
	// buyer identity. Always rejected, logged as a security event.
	ErrAnonymousBuyer = errors.New("anonymous buyer rejected")
	// ErrUnauthorized covers a valid identity acting on someone else's
	// resource, e.g. verifying another buyer's checkout session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPaymentNotCompleted means the provider reports a non-success status.
	// Retryable later once the payment settles.
	ErrPaymentNotCompleted = errors.New("upstream payment not completed")
	// ErrPartialWrite means one of the fan-out sinks failed. The whole
	// operation should be retried; retries are safe because every sink is
	// idempotent on the same key.
	ErrPartialWrite = errors.New("partial write failure")
)

// QuotaError is returned when a tier limit blocks an entire content
// addition. Partial additions do not error; the excess is reported as
// skipped instead.
type QuotaError struct {
	Max     int
	Current int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("content quota exceeded: %d of %d items used", e.Current, e.Max)
}

// IsQuotaExceeded reports whether err is a quota rejection.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}
