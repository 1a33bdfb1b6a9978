package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors for lot reservation and repository lookups.
var (
	// ErrInsufficientQuantity is returned by a lot reservation that would
	// drive the lot's available quantity negative. It is an expected
	// allocation outcome, not a fault.
	ErrInsufficientQuantity = errors.New("insufficient quantity available")

	// ErrConcurrencyConflict is returned when a reservation raced a
	// concurrent pass against the same lot and lost. Callers retry a
	// bounded number of times before treating it as insufficiency.
	ErrConcurrencyConflict = errors.New("lot reservation conflict")

	// ErrLotLocked is returned by a reservation against a lot held for an
	// operator review. Held lots keep their quantity until unlocked.
	ErrLotLocked = errors.New("lot is locked")

	ErrLotNotFound         = errors.New("lot not found")
	ErrRequirementNotFound = errors.New("requirement not found")
	ErrVerdictNotFound     = errors.New("verdict not found")
	ErrBatchNotFound       = errors.New("batch not found")
)

// ValidationError reports malformed or missing input to the engine.
// Processing for the affected SKU does not proceed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a named input field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConfigurationError reports an invalid FOB value or origin-criterion
// configuration for a SKU. It aborts aggregation for that SKU only.
type ConfigurationError struct {
	SKUCode string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for SKU %s: %s", e.SKUCode, e.Reason)
}

// NewConfigurationError creates a ConfigurationError scoped to one SKU.
func NewConfigurationError(skuCode, reason string) *ConfigurationError {
	return &ConfigurationError{SKUCode: skuCode, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
