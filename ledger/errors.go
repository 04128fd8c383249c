/*
errors.go - Error types for the installment ledger engine

ERROR CATEGORIES:
  1. MalformedInput - unparseable store blobs. Recovered locally by the
     normalizer (empty set); never returned from NormalizePlans.
  2. Validation     - InvalidAmount, InvalidMethod. No state is mutated.
  3. Not found      - unknown plan, unknown schedule entry, missing receipt.
  4. Concurrency    - version conflicts and replayed idempotency keys.

Callers use errors.Is with the sentinels, or errors.As with the structured
types when they need the details.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a payment amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount: must be greater than zero")

	// ErrInvalidMethod is returned for a payment method other than cash, card or transfer.
	ErrInvalidMethod = errors.New("invalid payment method")

	// ErrPlanNotFound is returned when the addressed plan does not exist.
	ErrPlanNotFound = errors.New("installment plan not found")

	// ErrUnknownTarget is returned when the payment number is not in the plan's schedule.
	ErrUnknownTarget = errors.New("payment number not in schedule")

	// ErrReceiptNotFound is returned when no audit record exists for a paid entry.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrConcurrentModification is returned when the stored plan version differs
	// from the one the caller read.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicateIdempotencyKey is returned when a payment with the same key
	// was already recorded.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrCorruptLog is returned when the audit log blob cannot be decoded.
	// Unlike plans, the log is never silently reset.
	ErrCorruptLog = errors.New("installment transaction log is corrupt")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError reports the rejected amount.
type InvalidAmountError struct {
	Amount Money
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: must be greater than zero", e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// UnknownTargetError names the plan and the missing payment number.
type UnknownTargetError struct {
	PlanID        string
	PaymentNumber int
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("plan %s has no payment #%d", e.PlanID, e.PaymentNumber)
}

func (e *UnknownTargetError) Unwrap() error { return ErrUnknownTarget }

// VersionConflictError reports the version the caller expected and the one stored.
type VersionConflictError struct {
	PlanID   string
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("plan %s: expected version %d, found %d", e.PlanID, e.Expected, e.Actual)
}

func (e *VersionConflictError) Unwrap() error { return ErrConcurrentModification }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed after reloading.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidMethod) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing plan, entry or receipt.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrUnknownTarget) ||
		errors.Is(err, ErrReceiptNotFound)
}

// IsConflict returns true if the error should be answered with a conflict
// status: a version mismatch or a replayed idempotency key.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrDuplicateIdempotencyKey)
}
