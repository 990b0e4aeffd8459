/*
errors.go - Centralized error types for the settlement engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Domain packages return these (usually wrapped in a RuleError carrying the
  exact numeric limit) and callers map them to user-facing messages.

ERROR CATEGORIES:
  1. Rule violations - business constraints on inputs; always recoverable by
     correcting the input. They carry the exact ceiling so the UI can say
     "maximum allowed: 3500" instead of "invalid input".
  2. Persistence errors - missing records, stale versions, duplicate keys.
     Raised by stores, never by the pure engines.

USAGE:
  result := membership.ValidatePayment(...)
  if err := result.Err(); err != nil {
      var ruleErr *generic.RuleError
      if errors.As(err, &ruleErr) && ruleErr.Limit != nil {
          fmt.Printf("max allowed %s\n", ruleErr.Limit.StringFixed())
      }
  }

SEE ALSO:
  - membership/validator.go: EXCEEDS_BALANCE
  - payroll/settlement.go: DISCOUNT_EXCEEDS_ABSENT, INVALID_ATTENDANCE
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
	// ErrInvalidAmount is returned when a payment or salary amount is non-positive,
	// or an amount that must be non-negative is negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrExceedsBalance is returned when a candidate payment would exceed a
	// ledger's remaining capacity.
	ErrExceedsBalance = errors.New("payment exceeds balance")

	// ErrDiscountExceedsAbsent is returned when discount days exceed absent days.
	ErrDiscountExceedsAbsent = errors.New("discount days exceed absent days")

	// ErrInvalidAttendance is returned when present days fall outside
	// [0, totalDaysInMonth].
	ErrInvalidAttendance = errors.New("invalid attendance")

	// ErrMissingRequiredField is returned when a required selection is absent
	// at submission time.
	ErrMissingRequiredField = errors.New("missing required field")
)

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when optimistic locking detects a
	// conflict: the ledger changed between read and write.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicateIdempotencyKey is returned when a payment with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrAlreadyExists is returned when creating a record whose natural key is taken
	// (e.g. a second settlement for the same trainer and month).
	ErrAlreadyExists = errors.New("already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RuleError is a business-rule violation with the context needed to explain it.
type RuleError struct {
	Kind    error   // one of the rule sentinels above
	Limit   *Amount // exact ceiling, when the rule has one
	Field   string  // offending or missing field
	Message string
}

func (e *RuleError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Limit != nil {
		msg += fmt.Sprintf(" (limit %s)", e.Limit.Value.String())
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *RuleError) Unwrap() error {
	return e.Kind
}

// Code returns the wire name of the rule kind, e.g. "EXCEEDS_BALANCE".
func (e *RuleError) Code() string {
	return KindCode(e.Kind)
}

// KindCode maps a rule sentinel to its stable code.
func KindCode(kind error) string {
	switch {
	case errors.Is(kind, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(kind, ErrExceedsBalance):
		return "EXCEEDS_BALANCE"
	case errors.Is(kind, ErrDiscountExceedsAbsent):
		return "DISCOUNT_EXCEEDS_ABSENT"
	case errors.Is(kind, ErrInvalidAttendance):
		return "INVALID_ATTENDANCE"
	case errors.Is(kind, ErrMissingRequiredField):
		return "MISSING_REQUIRED_FIELD"
	default:
		return ""
	}
}

// NewLimitError builds a RuleError carrying an exact ceiling.
func NewLimitError(kind error, limit Amount, field string) *RuleError {
	return &RuleError{Kind: kind, Limit: &limit, Field: field}
}

// NewFieldError builds a RuleError about a single field.
func NewFieldError(kind error, field, message string) *RuleError {
	return &RuleError{Kind: kind, Field: field, Message: message}
}

// MissingField reports an absent required selection.
func MissingField(field string) *RuleError {
	return &RuleError{Kind: ErrMissingRequiredField, Field: field}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRuleViolation returns true if the error is a business-rule violation.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrExceedsBalance) ||
		errors.Is(err, ErrDiscountExceedsAbsent) ||
		errors.Is(err, ErrInvalidAttendance) ||
		errors.Is(err, ErrMissingRequiredField)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
