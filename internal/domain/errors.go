package domain

import (
	"errors"
	"fmt"
)

// Positioning failures.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrTimeout          = errors.New("location request timed out")
	ErrUnsupported      = errors.New("positioning not supported")
)

// IP fallback failures.
var (
	ErrServiceUnavailable = errors.New("ip location service unavailable")
	ErrNoLocationFound    = errors.New("no location found for network origin")
)

// ErrAddressNotFound is returned when a typed address cannot be geocoded.
var ErrAddressNotFound = errors.New("address not found")

// Search and geocoding backend failures.
var (
	ErrUpstream         = errors.New("upstream service error")
	ErrQuotaExceeded    = errors.New("upstream quota exceeded")
	ErrMisconfiguredKey = errors.New("google maps api key is missing or invalid")
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrSuperseded is returned by a resolution attempt whose result was
	// discarded because a newer attempt started while it was in flight.
	ErrSuperseded = errors.New("resolution superseded by a newer attempt")
)

// APIError carries a non-OK status reported by a Google Maps web service,
// including the service's error_message verbatim.
type APIError struct {
	Service string // "geocode", "places", ...
	Status  string // e.g. "REQUEST_DENIED"
	Message string // upstream error_message, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("google %s API error: %s", e.Service, e.Status)
	}
	return fmt.Sprintf("google %s API error: %s: %s", e.Service, e.Status, e.Message)
}

// Unwrap maps the upstream status onto the error taxonomy.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case "REQUEST_DENIED":
		return ErrMisconfiguredKey
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return ErrQuotaExceeded
	default:
		return ErrUpstream
	}
}
