package membership_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
)

func TestValidatePayment_ExceedsBalance_ReportsMaxAllowed(t *testing.T) {
	// GIVEN: finalFees 8500 with 5000 already paid
	// WHEN: A new payment of 4000 is checked
	res := membership.ValidatePayment(membership.PaymentCheck{
		Amount:    money(4000),
		FinalFees: money(8500),
		TotalPaid: money(5000),
	})

	// THEN: Rejected with the exact remaining allowance
	assert.False(t, res.Accepted)
	assert.ErrorIs(t, res.Reason, generic.ErrExceedsBalance)
	assert.Equal(t, "3500.00", res.MaxAllowed.StringFixed())

	var ruleErr *generic.RuleError
	require.True(t, errors.As(res.Err(), &ruleErr))
	assert.Equal(t, "EXCEEDS_BALANCE", ruleErr.Code())
	require.NotNil(t, ruleErr.Limit)
	assert.Equal(t, "3500.00", ruleErr.Limit.StringFixed())
	assert.Equal(t, "amount", ruleErr.Field)
}

func TestValidatePayment_ExactRemaining_Accepted(t *testing.T) {
	res := membership.ValidatePayment(membership.PaymentCheck{
		Amount:    money(3500),
		FinalFees: money(8500),
		TotalPaid: money(5000),
	})
	assert.True(t, res.Accepted)
	assert.NoError(t, res.Err())
}

func TestValidatePayment_EditExcludesOldAmount(t *testing.T) {
	// GIVEN: The only payment is 5000, being edited to 6000
	old := money(5000)
	res := membership.ValidatePayment(membership.PaymentCheck{
		Amount:        money(6000),
		FinalFees:     money(8500),
		TotalPaid:     money(5000),
		EditingAmount: &old,
	})

	// THEN: 0 + 6000 <= 8500
	assert.True(t, res.Accepted)
	assert.Equal(t, "8500.00", res.MaxAllowed.StringFixed())
}

func TestValidatePayment_NonPositive_InvalidAmount(t *testing.T) {
	for _, amt := range []float64{0, -100} {
		res := membership.ValidatePayment(membership.PaymentCheck{
			Amount:    money(amt),
			FinalFees: money(8500),
			TotalPaid: money(0),
		})
		assert.False(t, res.Accepted)
		assert.ErrorIs(t, res.Err(), generic.ErrInvalidAmount)
	}
}

func TestValidatePayment_AlreadyOverpaid_MaxAllowedZero(t *testing.T) {
	res := membership.ValidatePayment(membership.PaymentCheck{
		Amount:    money(1),
		FinalFees: money(3000),
		TotalPaid: money(3500),
	})
	assert.False(t, res.Accepted)
	assert.Equal(t, "0.00", res.MaxAllowed.StringFixed())
}

func TestValidateAgainstLedger_EditUnknownPayment_NotFound(t *testing.T) {
	l := membership.Ledger{Charges: charges(fixedTerms(1000, 0)), Payments: []membership.Payment{payment("p1", 100)}}
	_, err := membership.ValidateAgainstLedger(l, money(50), "nope")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestValidateAgainstLedger_UsesDerivedFinalFees(t *testing.T) {
	// 10000 - 10% - 500 = 8500, 5000 paid
	l := membership.Ledger{
		Charges:       charges(percentTerms(10000, 10)),
		ExtraDiscount: money(500),
		Payments:      []membership.Payment{payment("p1", 5000)},
	}

	res, err := membership.ValidateAgainstLedger(l, money(4000), "")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "3500.00", res.MaxAllowed.StringFixed())

	res, err = membership.ValidateAgainstLedger(l, money(6000), "p1")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestValidatePayment_CapGrid(t *testing.T) {
	feeCases := []string{"0", "1000", "5499.99", "8500"}
	paidCases := []string{"0", "0.01", "2500", "5500"}
	amountCases := []string{"0.01", "1", "999.99", "10000"}

	for _, f := range feeCases {
		for _, p := range paidCases {
			final := decimal.RequireFromString(f)
			paid := decimal.RequireFromString(p)
			remaining := final.Sub(paid)

			amounts := append([]string{}, amountCases...)
			if remaining.IsPositive() {
				// right at the cap and one paisa over it
				amounts = append(amounts, remaining.String(), remaining.Add(decimal.RequireFromString("0.01")).String())
			}

			for _, a := range amounts {
				amount := decimal.RequireFromString(a)
				t.Run(fmt.Sprintf("final=%s/paid=%s/a=%s", f, p, a), func(t *testing.T) {
					res := membership.ValidatePayment(membership.PaymentCheck{
						Amount:    generic.Amount{Value: amount, Unit: generic.UnitCurrency},
						FinalFees: generic.Amount{Value: final, Unit: generic.UnitCurrency},
						TotalPaid: generic.Amount{Value: paid, Unit: generic.UnitCurrency},
					})

					wantAccepted := amount.LessThanOrEqual(remaining)
					assert.Equal(t, wantAccepted, res.Accepted)

					wantMax := decimal.Max(remaining, decimal.Zero)
					assert.True(t, res.MaxAllowed.Value.Equal(wantMax),
						"max allowed %s, want %s", res.MaxAllowed.StringFixed(), wantMax.StringFixed(2))

					if wantAccepted {
						assert.NoError(t, res.Err())
						return
					}
					var ruleErr *generic.RuleError
					require.True(t, errors.As(res.Err(), &ruleErr))
					assert.ErrorIs(t, ruleErr, generic.ErrExceedsBalance)
					require.NotNil(t, ruleErr.Limit)
					assert.True(t, ruleErr.Limit.Value.Equal(wantMax))
				})
			}
		}
	}
}

func TestValidateAgainstLedger_EditMatchesFreshPayment(t *testing.T) {
	// Editing p1 to a is checked exactly like adding a to a ledger without p1
	base := membership.Ledger{
		Charges:  charges(fixedTerms(6000, 500)),
		Payments: []membership.Payment{payment("p1", 2000), payment("p2", 1500)},
	}
	without := membership.Ledger{
		Charges:  base.Charges,
		Payments: []membership.Payment{payment("p2", 1500)},
	}

	for _, a := range []float64{1, 2000, 3999.99, 4000, 4000.01, 5500} {
		edited, err := membership.ValidateAgainstLedger(base, money(a), "p1")
		require.NoError(t, err)
		fresh, err := membership.ValidateAgainstLedger(without, money(a), "")
		require.NoError(t, err)

		assert.Equal(t, fresh.Accepted, edited.Accepted, "amount %v", a)
		assert.Equal(t, "4000.00", edited.MaxAllowed.StringFixed())
		assert.True(t, fresh.MaxAllowed.Equal(edited.MaxAllowed))
	}
}
