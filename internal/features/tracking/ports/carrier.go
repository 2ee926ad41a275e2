package ports

import (
	"context"
	"errors"
	"fmt"

	"whereis/internal/features/tracking/domain"
)

// CarrierAdapter fetches and normalizes tracking data for one carrier.
type CarrierAdapter interface {
	// Carrier returns the carrier this adapter serves.
	Carrier() domain.Carrier
	// RequiredParams lists the extra parameters Fetch needs (e.g. "phone").
	RequiredParams() []string
	// Fetch calls the carrier API. Failures are returned as *CarrierError.
	Fetch(ctx context.Context, trackingNumber string, params map[string]string) (domain.RawPayload, error)
	// Normalize converts a payload returned by Fetch into a chronological timeline.
	Normalize(payload domain.RawPayload, method domain.UpdateMethod) (*domain.Timeline, error)
}

// ErrorCategory classifies carrier failures.
type ErrorCategory string

const (
	// CategoryTimeout is a deadline or cancellation while calling the carrier.
	CategoryTimeout ErrorCategory = "timeout"
	// CategoryAuthentication is a rejected credential or token exchange.
	CategoryAuthentication ErrorCategory = "authentication"
	// CategoryNotFound means the carrier has no data for the tracking number.
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryBadData is a response that could not be decoded or has an unexpected shape.
	CategoryBadData ErrorCategory = "bad_data"
	// CategoryProviderOutage is a transport error or 5xx from the carrier.
	CategoryProviderOutage ErrorCategory = "provider_outage"
)

// CarrierError is returned by carrier adapters.
type CarrierError struct {
	Category ErrorCategory
	Carrier  domain.Carrier
	Message  string
	Err      error
}

// NewCarrierError creates a CarrierError.
func NewCarrierError(carrier domain.Carrier, category ErrorCategory, message string, err error) *CarrierError {
	return &CarrierError{Category: category, Carrier: carrier, Message: message, Err: err}
}

func (e *CarrierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s carrier error (%s): %s: %v", e.Carrier, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s carrier error (%s): %s", e.Carrier, e.Category, e.Message)
}

func (e *CarrierError) Unwrap() error {
	return e.Err
}

// AsCarrierError unwraps err into a *CarrierError.
func AsCarrierError(err error) (*CarrierError, bool) {
	var ce *CarrierError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// CategoryOf returns the category of a carrier error, or "" for other errors.
func CategoryOf(err error) ErrorCategory {
	if ce, ok := AsCarrierError(err); ok {
		return ce.Category
	}
	return ""
}
