package membership

import (
	"errors"

	"github.com/warp/gym-settlement/generic"
)

// =============================================================================
// PAYMENT VALIDATOR - Can this payment be accepted?
// =============================================================================

// PaymentCheck is the input to ValidatePayment.
//
// TotalPaid is the ledger's total including every stored payment. When
// EditingAmount is set, the payment being edited is still inside TotalPaid and
// its old amount is subtracted before comparison so it never counts twice.
type PaymentCheck struct {
	Amount        generic.Amount
	FinalFees     generic.Amount
	TotalPaid     generic.Amount
	EditingAmount *generic.Amount
}

// ValidationResult is the structured outcome of a payment check.
//
// MaxAllowed is finalFees minus what is already paid (excluding an edited
// entry), clamped to zero. An overpaid ledger therefore reports 0 rather than
// a negative allowance, and any positive amount is rejected against it.
type ValidationResult struct {
	Accepted   bool
	MaxAllowed generic.Amount // remaining allowance before this payment
	Reason     error          // nil when accepted; a rule sentinel otherwise
}

// Err converts a rejected result to a *generic.RuleError; nil when accepted.
func (r ValidationResult) Err() error {
	if r.Accepted {
		return nil
	}
	if errors.Is(r.Reason, generic.ErrExceedsBalance) {
		return generic.NewLimitError(generic.ErrExceedsBalance, r.MaxAllowed, "amount")
	}
	return generic.NewFieldError(r.Reason, "amount", "must be greater than zero")
}

// ValidatePayment accepts a iff a > 0 and paidExcludingEdited + a <= finalFees.
// On EXCEEDS_BALANCE, MaxAllowed is finalFees - paidExcludingEdited, floored at
// zero for ledgers that are already overpaid.
func ValidatePayment(c PaymentCheck) ValidationResult {
	paid := c.TotalPaid
	if c.EditingAmount != nil {
		paid = paid.Sub(*c.EditingAmount)
	}
	maxAllowed := c.FinalFees.Sub(paid).ClampZero()

	if !c.Amount.IsPositive() {
		return ValidationResult{Accepted: false, MaxAllowed: maxAllowed, Reason: generic.ErrInvalidAmount}
	}

	projected := paid.Add(c.Amount)
	if projected.GreaterThan(c.FinalFees) {
		return ValidationResult{Accepted: false, MaxAllowed: maxAllowed, Reason: generic.ErrExceedsBalance}
	}

	return ValidationResult{Accepted: true, MaxAllowed: maxAllowed}
}

// ValidateAgainstLedger runs ValidatePayment against a ledger's current
// snapshot. editing is the payment being edited, or "" for a new payment.
func ValidateAgainstLedger(l Ledger, amount generic.Amount, editing generic.PaymentID) (ValidationResult, error) {
	snap, err := Derive(l)
	if err != nil {
		return ValidationResult{}, err
	}

	if editing != "" && !hasPayment(l.Payments, editing) {
		return ValidationResult{}, generic.ErrNotFound
	}
	return ValidatePayment(PaymentCheck{
		Amount:    amount,
		FinalFees: snap.FinalFees,
		TotalPaid: TotalPaidExcluding(l.Payments, editing),
	}), nil
}

func hasPayment(payments []Payment, id generic.PaymentID) bool {
	for _, p := range payments {
		if p.ID == id {
			return true
		}
	}
	return false
}
