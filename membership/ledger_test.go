package membership_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v float64) generic.Amount { return generic.NewMoney(v) }

func percentTerms(fees, pct float64) membership.Terms {
	return membership.Terms{
		PackageID:    "pkg",
		Fees:         money(fees),
		DiscountType: membership.DiscountPercentage,
		MaxDiscount:  generic.NewAmount(pct, generic.UnitPercent),
	}
}

func fixedTerms(fees, max float64) membership.Terms {
	return membership.Terms{
		PackageID:    "pkg",
		Fees:         money(fees),
		DiscountType: membership.DiscountFixed,
		MaxDiscount:  money(max),
	}
}

// charges bills one term per Terms, back to back from 2026-03-01.
func charges(terms ...membership.Terms) []membership.Charge {
	out := make([]membership.Charge, len(terms))
	start := generic.NewTimePoint(2026, 3, 1)
	for i, t := range terms {
		end := start.AddMonths(1).AddDays(-1)
		out[i] = membership.Charge{
			ID:    generic.ChargeID(fmt.Sprintf("c%d", i+1)),
			Terms: t,
			Term:  generic.Period{Start: start, End: end},
		}
		start = end.AddDays(1)
	}
	return out
}

func payment(id string, amount float64) membership.Payment {
	return membership.Payment{
		ID:     generic.PaymentID(id),
		Amount: money(amount),
		Date:   generic.NewTimePoint(2026, 3, 1),
		Mode:   membership.PayCash,
	}
}

// =============================================================================
// DISCOUNT POLICY
// =============================================================================

func TestMaxDiscountAmount_Percentage(t *testing.T) {
	// GIVEN: 10000 with a 10% cap
	// THEN: The cap resolves to 1000
	amt, err := membership.MaxDiscountAmount(money(10000), membership.DiscountPercentage, generic.NewAmount(10, generic.UnitPercent))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", amt.StringFixed())
	assert.Equal(t, generic.UnitCurrency, amt.Unit)
}

func TestMaxDiscountAmount_Fixed(t *testing.T) {
	amt, err := membership.MaxDiscountAmount(money(10000), membership.DiscountFixed, money(750))
	require.NoError(t, err)
	assert.Equal(t, "750.00", amt.StringFixed())
}

func TestMaxDiscountAmount_FixedLargerThanFees_NotClamped(t *testing.T) {
	// Clamping happens in ComputeFinalFees, not here
	amt, err := membership.MaxDiscountAmount(money(500), membership.DiscountFixed, money(800))
	require.NoError(t, err)
	assert.Equal(t, "800.00", amt.StringFixed())
}

func TestMaxDiscountAmount_NegativeInputs_Rejected(t *testing.T) {
	_, err := membership.MaxDiscountAmount(money(-1), membership.DiscountFixed, money(0))
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	_, err = membership.MaxDiscountAmount(money(1000), membership.DiscountPercentage, generic.NewAmount(-5, generic.UnitPercent))
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

// =============================================================================
// FEE LEDGER
// =============================================================================

func TestComputeFinalFees_BothClampsIndependent(t *testing.T) {
	// Discount larger than the fee floors at zero before the extra discount
	assert.Equal(t, "0.00", membership.ComputeFinalFees(money(500), money(800), money(0)).StringFixed())

	// Extra discount larger than what is left zeroes the final fee
	assert.Equal(t, "0.00", membership.ComputeFinalFees(money(1000), money(100), money(2000)).StringFixed())

	assert.Equal(t, "8500.00", membership.ComputeFinalFees(money(10000), money(1000), money(500)).StringFixed())
}

func TestDerive_WorkedExample(t *testing.T) {
	// GIVEN: fees 10000, 10% discount, extra discount 500
	l := membership.Ledger{
		ID:            "l-1",
		Type:          membership.TypeRegular,
		Charges:       charges(percentTerms(10000, 10)),
		ExtraDiscount: money(500),
		Version:       3,
	}

	// WHEN: Deriving the snapshot
	snap, err := membership.Derive(l)
	require.NoError(t, err)

	// THEN: maxDiscountAmount=1000, afterDiscount=9000, finalFees=8500
	assert.Equal(t, "1000.00", snap.MaxDiscountAmount.StringFixed())
	assert.Equal(t, "9000.00", snap.AfterDiscount.StringFixed())
	assert.Equal(t, "8500.00", snap.FinalFees.StringFixed())
	assert.Equal(t, "8500.00", snap.Balance.StringFixed())
	assert.False(t, snap.IsSettled)
	assert.Equal(t, 3, snap.Version)
}

func TestDerive_PartialAndFullPayment(t *testing.T) {
	l := membership.Ledger{Charges: charges(percentTerms(10000, 10)), ExtraDiscount: money(500)}

	l.Payments = []membership.Payment{payment("p1", 5000)}
	snap, err := membership.Derive(l)
	require.NoError(t, err)
	assert.Equal(t, "3500.00", snap.Balance.StringFixed())
	assert.False(t, snap.IsSettled)
	assert.Equal(t, 1, snap.PaymentCount)

	l.Payments = append(l.Payments, payment("p2", 3500))
	snap, err = membership.Derive(l)
	require.NoError(t, err)
	assert.Equal(t, "0.00", snap.Balance.StringFixed())
	assert.True(t, snap.IsSettled)
	assert.Equal(t, "0.00", snap.Overpaid.StringFixed())
}

func TestDerive_Overpaid_ClampsAndReportsExcess(t *testing.T) {
	// GIVEN: Payments recorded before the terms were lowered
	l := membership.Ledger{
		Charges:  charges(fixedTerms(3000, 0)),
		Payments: []membership.Payment{payment("p1", 3500)},
	}

	snap, err := membership.Derive(l)
	require.NoError(t, err)

	// THEN: Balance never goes negative; the excess is surfaced separately
	assert.Equal(t, "0.00", snap.Balance.StringFixed())
	assert.True(t, snap.IsSettled)
	assert.Equal(t, "500.00", snap.Overpaid.StringFixed())
}

func TestDerive_ZeroCharge_NotSettled(t *testing.T) {
	// A fully discounted ledger is inapplicable, not settled
	l := membership.Ledger{Charges: charges(fixedTerms(1000, 1000))}
	snap, err := membership.Derive(l)
	require.NoError(t, err)
	assert.False(t, snap.IsSettled)
	assert.False(t, snap.HasCharge())
	assert.Equal(t, "0.00", snap.Balance.StringFixed())
}

func TestDerive_NegativeExtraDiscount_Rejected(t *testing.T) {
	l := membership.Ledger{Charges: charges(fixedTerms(1000, 0)), ExtraDiscount: money(-10)}
	_, err := membership.Derive(l)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

func TestTotalPaidExcluding(t *testing.T) {
	ps := []membership.Payment{payment("p1", 5000), payment("p2", 1000)}
	assert.Equal(t, "6000.00", membership.TotalPaid(ps).StringFixed())
	assert.Equal(t, "1000.00", membership.TotalPaidExcluding(ps, "p1").StringFixed())
	assert.Equal(t, "6000.00", membership.TotalPaidExcluding(ps, "").StringFixed())
}

func TestDerive_SecondCharge_CarriesUnpaidBalance(t *testing.T) {
	// GIVEN: A PT term of 6000 with 500 off, 1000 paid, then renewed onto the same plan
	l := membership.Ledger{
		Charges:  charges(fixedTerms(6000, 500), fixedTerms(6000, 500)),
		Payments: []membership.Payment{payment("p1", 1000)},
	}

	// WHEN: Deriving the snapshot
	snap, err := membership.Derive(l)
	require.NoError(t, err)

	// THEN: Both terms are billed and the earlier payment still counts
	assert.Equal(t, "12000.00", snap.PackageFees.StringFixed())
	assert.Equal(t, "1000.00", snap.MaxDiscountAmount.StringFixed())
	assert.Equal(t, "11000.00", snap.FinalFees.StringFixed())
	assert.Equal(t, "1000.00", snap.TotalPaid.StringFixed())
	assert.Equal(t, "10000.00", snap.Balance.StringFixed())
	assert.Equal(t, 2, snap.ChargeCount)
	assert.Equal(t, l.Charges[1].Term, snap.Term)
}

func TestDerive_OverDiscountedCharge_DoesNotEatOtherCharges(t *testing.T) {
	// A discount larger than one charge floors that charge alone at zero
	l := membership.Ledger{Charges: charges(fixedTerms(500, 800), fixedTerms(1000, 0))}
	snap, err := membership.Derive(l)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", snap.AfterDiscount.StringFixed())
	assert.Equal(t, "1000.00", snap.FinalFees.StringFixed())
}

func TestDerive_NoCharges_ZeroTerm(t *testing.T) {
	snap, err := membership.Derive(membership.Ledger{})
	require.NoError(t, err)
	assert.False(t, snap.HasCharge())
	assert.True(t, snap.Term.Start.IsZero())
}

func TestDerive_BalanceStrictlyDecreasesWhilePaying(t *testing.T) {
	cases := []struct {
		name  string
		terms membership.Terms
		extra float64
		step  float64
	}{
		{"percent discount", percentTerms(10000, 10), 500, 250},
		{"fixed discount", fixedTerms(6000, 500), 0, 100},
		{"odd step", fixedTerms(3000, 0), 0, 333.33},
		{"paise", percentTerms(999.99, 3), 0.01, 7.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := membership.Ledger{Charges: charges(tc.terms), ExtraDiscount: money(tc.extra)}
			snap, err := membership.Derive(l)
			require.NoError(t, err)
			require.True(t, snap.HasCharge())

			prev := snap.Balance
			for i := 1; snap.Balance.IsPositive(); i++ {
				l.Payments = append(l.Payments, payment(fmt.Sprintf("p%d", i), tc.step))
				snap, err = membership.Derive(l)
				require.NoError(t, err)

				if prev.IsPositive() {
					assert.True(t, snap.Balance.LessThan(prev),
						"balance %s did not drop below %s after payment %d", snap.Balance.StringFixed(), prev.StringFixed(), i)
				}
				assert.False(t, snap.Balance.IsNegative())
				assert.True(t, snap.Balance.Equal(snap.FinalFees.Sub(snap.TotalPaid).ClampZero()))
				prev = snap.Balance
			}
			assert.True(t, snap.IsSettled)
		})
	}
}

func TestDerive_RepeatedCallsAgree(t *testing.T) {
	ledgers := []membership.Ledger{
		{Charges: charges(percentTerms(10000, 10)), ExtraDiscount: money(500)},
		{Charges: charges(fixedTerms(3000, 0)), Payments: []membership.Payment{payment("p1", 3500)}},
		{Charges: charges(fixedTerms(6000, 500), fixedTerms(6000, 500)), Payments: []membership.Payment{payment("p1", 1000)}},
		{Charges: charges(fixedTerms(1000, 1000))},
	}

	for i, l := range ledgers {
		first, err := membership.Derive(l)
		require.NoError(t, err)
		second, err := membership.Derive(l)
		require.NoError(t, err)
		assert.Equal(t, first, second, "ledger %d", i)
	}
}
