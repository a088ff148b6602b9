package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrServiceNotFound        = errors.New("service not found in catalog")
	ErrPriceMismatch          = errors.New("amount does not match the official service price")
	ErrGatewayRejected        = errors.New("billing gateway rejected the request")
	ErrMalformedResponse      = errors.New("billing gateway returned an unparseable response")
	ErrUnknownSettlementState = errors.New("billing gateway returned an unrecognized settlement state")
	ErrMissingBillID          = errors.New("bill identifier is missing")
	ErrSessionNotFound        = errors.New("checkout session not found")
	ErrInvalidToken           = errors.New("session token is invalid")
)

// TransportError reports a non-2xx HTTP response from the billing gateway.
type TransportError struct {
	Status int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("billing gateway transport error: status %d", e.Status)
}

// ValidationError rejects a single checkout form field. Field names the
// offending input so the UI can surface the message next to it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
