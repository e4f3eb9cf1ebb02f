package resolver

import (
	"github.com/couchcryptid/nearby-hospitals/internal/domain"
)

// FailureKind separates the user-visible failure states.
type FailureKind string

const (
	// FailureLocationUnavailable is the retryable "can't determine location" state.
	FailureLocationUnavailable FailureKind = "location-unavailable"
	// FailureAddressNotFound is a failed manual entry; the prior location stands.
	FailureAddressNotFound FailureKind = "address-not-found"
	// FailureMisconfigured is the non-retryable missing API key state.
	FailureMisconfigured FailureKind = "misconfigured"
)

// User-facing failure messages.
const (
	msgLocationUnavailable = "Unable to determine your location. Try again or enter your address."
	msgAddressNotFound     = "address not found"
	msgMisconfigured       = "Google Maps API key is missing. Please check your environment variables."
)

// Failure is a classified, user-presentable resolution failure.
type Failure struct {
	Kind              FailureKind
	Message           string
	Err               error
	OffersRetry       bool
	OffersManualEntry bool
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

func unavailableFailure(err error) *Failure {
	return &Failure{
		Kind:              FailureLocationUnavailable,
		Message:           msgLocationUnavailable,
		Err:               err,
		OffersRetry:       true,
		OffersManualEntry: true,
	}
}

func addressFailure(err error) *Failure {
	return &Failure{
		Kind:              FailureAddressNotFound,
		Message:           msgAddressNotFound,
		Err:               err,
		OffersManualEntry: true,
	}
}

func misconfiguredFailure() *Failure {
	return &Failure{
		Kind:    FailureMisconfigured,
		Message: msgMisconfigured,
		Err:     domain.ErrMisconfiguredKey,
	}
}

// Outcome is the result of one resolution attempt: a resolved location, a
// failure, or (for map overrides awaiting confirmation) pending.
type Outcome struct {
	location *domain.ResolvedLocation
	failure  *Failure
	pending  bool
}

// Resolved returns the committed location, if any.
func (o Outcome) Resolved() (domain.ResolvedLocation, bool) {
	if o.location == nil {
		return domain.ResolvedLocation{}, false
	}
	return *o.location, true
}

// Failed returns the failure, if any.
func (o Outcome) Failed() (*Failure, bool) {
	return o.failure, o.failure != nil
}

// Pending reports whether a map override is waiting for confirmation.
func (o Outcome) Pending() bool {
	return o.pending
}
