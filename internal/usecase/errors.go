package usecase

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the lifecycle use cases matches exactly
// one of these through errors.Is; the boundary layer maps kinds to responses.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrOracleUnavailable = errors.New("pricing oracle unavailable")
)

var (
	ErrServiceRequestNotFound = fmt.Errorf("service request %w", ErrNotFound)
	ErrQuoteNotFound          = fmt.Errorf("quote %w", ErrNotFound)

	ErrNotServiceRequestOwner = fmt.Errorf("%w: caller does not own the service request", ErrForbidden)
	ErrNotQuoteOwner          = fmt.Errorf("%w: caller does not own the quote", ErrForbidden)

	ErrServiceRequestNotOpen   = fmt.Errorf("%w: service request is closed or cancelled", ErrConflict)
	ErrServiceRequestHasWinner = fmt.Errorf("%w: service request has an accepted or completed quote", ErrConflict)
	ErrQuoteAlreadyDecided     = fmt.Errorf("%w: quote is no longer awaiting", ErrConflict)
	ErrQuoteNotAccepted        = fmt.Errorf("%w: quote must be accepted before completion", ErrConflict)
	ErrServiceRequestQuoteFull = fmt.Errorf("%w: service request reached its quote limit", ErrConflict)

	ErrInvalidServiceRequestID   = fmt.Errorf("%w: invalid service_request_id", ErrValidation)
	ErrInvalidQuoteID            = fmt.Errorf("%w: invalid quote id", ErrValidation)
	ErrInvalidClientID           = fmt.Errorf("%w: invalid client_id", ErrValidation)
	ErrInvalidProviderID         = fmt.Errorf("%w: invalid provider_id", ErrValidation)
	ErrInvalidCategory           = fmt.Errorf("%w: category is required", ErrValidation)
	ErrInvalidDescription        = fmt.Errorf("%w: description is required", ErrValidation)
	ErrInvalidLocation           = fmt.Errorf("%w: location is required", ErrValidation)
	ErrInvalidProposedValue      = fmt.Errorf("%w: proposed value must be greater than zero", ErrValidation)
	ErrInvalidExecutionDeadline  = fmt.Errorf("%w: execution deadline is required", ErrValidation)
	ErrInvalidOraclePriceRange   = fmt.Errorf("%w: oracle returned an invalid price range", ErrOracleUnavailable)
	ErrPricingOracleNotAvailable = fmt.Errorf("%w: oracle not configured", ErrOracleUnavailable)
)

// PriceBound names the side of the oracle range a proposed value violated.
type PriceBound string

const (
	PriceBoundMinimum PriceBound = "minimum"
	PriceBoundMaximum PriceBound = "maximum"
)

// PriceOutOfRangeError is returned when a proposed value falls outside the
// oracle bounds. It matches ErrValidation.
type PriceOutOfRangeError struct {
	Proposed float64
	Bound    PriceBound
	Limit    float64
}

func (e *PriceOutOfRangeError) Error() string {
	if e.Bound == PriceBoundMinimum {
		return fmt.Sprintf("proposed value %.2f is below the minimum allowed %.2f", e.Proposed, e.Limit)
	}
	return fmt.Sprintf("proposed value %.2f is above the maximum allowed %.2f", e.Proposed, e.Limit)
}

func (e *PriceOutOfRangeError) Is(target error) bool {
	return target == ErrValidation
}
