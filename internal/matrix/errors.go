package matrix

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("variant matrix: invalid input")
	ErrCapacity      = errors.New("variant matrix: too many combinations")
	ErrConflict      = errors.New("variant matrix: concurrent modification")
	ErrIntegrityRisk = errors.New("variant matrix: variants still referenced")
	ErrCorruption    = errors.New("variant matrix: inconsistent variant data")
	ErrStore         = errors.New("variant matrix: store failure")
)

// ValidationError rejects malformed input before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a *ValidationError with a formatted reason.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

type CapacityError struct {
	Requested int
	Limit     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("too many combinations: %d requested, limit is %d", e.Requested, e.Limit)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// IntegrityRiskError lists variants the plan would remove although orders or
// carts still point at them.
type IntegrityRiskError struct {
	VariantIDs []string
}

func (e *IntegrityRiskError) Error() string {
	return fmt.Sprintf("%d variant(s) scheduled for removal are still referenced: %s",
		len(e.VariantIDs), strings.Join(e.VariantIDs, ", "))
}

func (e *IntegrityRiskError) Is(target error) bool { return target == ErrIntegrityRisk }

type CorruptionError struct {
	Reason string
}

func (e *CorruptionError) Error() string { return "data corruption: " + e.Reason }

func (e *CorruptionError) Is(target error) bool { return target == ErrCorruption }

func corrupt(format string, args ...any) error {
	return &CorruptionError{Reason: fmt.Sprintf(format, args...)}
}

// Conflict marks err as a retryable concurrent-modification failure.
func Conflict(err error) error {
	return fmt.Errorf("%w: %w", ErrConflict, err)
}

// StoreFailure marks err as an I/O or transaction failure that was rolled back.
func StoreFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
