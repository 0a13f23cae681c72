/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  Collaborator packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors - Shifts, periods, options and timestamps that cannot be used
  2. Vendor errors - Non-success responses from Homebase or Square
  3. Archive errors - Statement lookups

RECOVERABLE BY EXCLUSION:
  A malformed timestamp, an open shift, or an unattributable tip is never
  returned from the allocation path. The record is excluded, a diagnostic is
  logged, and the batch continues with a partial, correct statement.

SEE ALSO:
  - tips/allocator.go: Logs exclusions instead of failing
  - homebase/client.go, square/client.go: Return *APIError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidShift is returned when a shift ends before it starts or
	// carries a negative wage.
	ErrInvalidShift = errors.New("invalid shift")

	// ErrInvalidTip is returned when a tip carries a negative amount.
	ErrInvalidTip = errors.New("invalid tip")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidOption is returned for an unknown rounding or accumulation mode.
	ErrInvalidOption = errors.New("invalid option")

	// ErrMalformedTimestamp is returned when a vendor instant matches no
	// supported layout.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrMissingCredentials is returned when a vendor client has no token.
	ErrMissingCredentials = errors.New("missing vendor credentials")

	// ErrVendorRequest is the root of every non-success vendor response.
	ErrVendorRequest = errors.New("vendor request failed")

	// ErrStatementNotFound is returned when an archived statement doesn't exist.
	ErrStatementNotFound = errors.New("statement not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TimestampError names the value that failed to parse.
type TimestampError struct {
	Value string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp: %q", e.Value)
}

func (e *TimestampError) Unwrap() error { return ErrMalformedTimestamp }

// APIError is a non-success response from a vendor API. It replaces
// terminating the process: callers decide whether the batch can continue.
type APIError struct {
	Service    string // "homebase", "square"
	Op         string // e.g. "list timecards"
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s: status %d", e.Service, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", e.Service, e.Op, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return ErrVendorRequest }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrInvalidTip) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrMalformedTimestamp)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStatementNotFound)
}

// IsVendorError returns true for upstream failures (bad gateway territory).
func IsVendorError(err error) bool {
	return errors.Is(err, ErrVendorRequest) || errors.Is(err, ErrMissingCredentials)
}
