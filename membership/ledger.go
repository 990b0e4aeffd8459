/*
ledger.go - Fee ledger derivations

PURPOSE:
  Turns a ledger's stored inputs (term charges, extra discount, payments)
  into the figures a screen shows and a validator checks against. There is no
  stored "balance" field; every figure below is recomputed from inputs on
  every call, so an edited payment or discount can never leave a stale total.

FORMULAS (per charge i, then summed over the ledger):
  maxDiscountAmount_i = MaxDiscountAmount(fees_i, discountType_i, maxDiscount_i)
  afterDiscount       = sum(max(0, fees_i - maxDiscountAmount_i))
  finalFees           = max(0, afterDiscount - extraDiscount)
  totalPaid         = sum(payments.amount)
  balance           = max(0, finalFees - totalPaid)
  isSettled         = finalFees > 0 AND balance <= 0

OVERPAYMENT:
  totalPaid > finalFees is normally rejected up front by ValidatePayment.
  It can still happen (a package fee lowered after payments were recorded).
  The ledger then reports balance 0 and isSettled = true; the excess is
  surfaced separately as Overpaid and is not an error.

EXAMPLE:
  fees 10000, 10% discount, extra discount 500
    maxDiscountAmount = 1000, afterDiscount = 9000, finalFees = 8500

RENEWAL:
  A renewal appends a charge; it never opens a second ledger. An unpaid
  balance from the earlier term stays on the same ledger next to its
  payments and is carried into the new total.

SEE ALSO:
  - discount.go: MaxDiscountAmount
  - validator.go: Payment cap checks against these figures
*/
package membership

import "github.com/warp/gym-settlement/generic"

// =============================================================================
// PURE DERIVATIONS
// =============================================================================

// ComputeFinalFees applies the package discount and the extra discount with
// two independent floors at zero.
func ComputeFinalFees(packageFees, maxDiscountAmount, extraDiscount generic.Amount) generic.Amount {
	afterDiscount := packageFees.Sub(maxDiscountAmount).ClampZero()
	return afterDiscount.Sub(extraDiscount).ClampZero()
}

// ComputeBalance returns max(0, finalFees - totalPaid).
func ComputeBalance(finalFees, totalPaid generic.Amount) generic.Amount {
	return finalFees.Sub(totalPaid).ClampZero()
}

// IsSettled is true only for a ledger with a positive charge and nothing left
// to pay. A zero-charge ledger is inapplicable, not settled.
func IsSettled(finalFees, balance generic.Amount) bool {
	return finalFees.IsPositive() && !balance.IsPositive()
}

// TotalPaid sums payment amounts in currency.
func TotalPaid(payments []Payment) generic.Amount {
	total := generic.ZeroMoney()
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// TotalPaidExcluding sums every payment except the one being edited.
// An empty id excludes nothing.
func TotalPaidExcluding(payments []Payment, editing generic.PaymentID) generic.Amount {
	total := generic.ZeroMoney()
	for _, p := range payments {
		if editing != "" && p.ID == editing {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// =============================================================================
// SNAPSHOT - Derived view of a ledger
// =============================================================================

// Snapshot is the rendered state of one ledger.
type Snapshot struct {
	LedgerID          generic.LedgerID
	Type              Type
	PackageFees       generic.Amount
	MaxDiscountAmount generic.Amount
	AfterDiscount     generic.Amount
	ExtraDiscount     generic.Amount
	FinalFees         generic.Amount
	TotalPaid         generic.Amount
	Balance           generic.Amount
	Overpaid          generic.Amount
	IsSettled         bool
	PaymentCount      int
	ChargeCount       int
	Term              generic.Period
	Version           int
}

// HasCharge reports whether there is anything to pay on this ledger at all.
func (s Snapshot) HasCharge() bool { return s.FinalFees.IsPositive() }

// Derive computes the snapshot for a ledger from its stored inputs.
func Derive(l Ledger) (Snapshot, error) {
	extra := l.ExtraDiscount
	if extra.Unit == "" {
		extra = generic.ZeroMoney()
	}
	if extra.IsNegative() {
		return Snapshot{}, generic.NewFieldError(generic.ErrInvalidAmount, "extra_discount", "must not be negative")
	}

	fees := generic.ZeroMoney()
	maxDiscount := generic.ZeroMoney()
	afterDiscount := generic.ZeroMoney()
	for _, c := range l.Charges {
		d, err := c.Terms.MaxDiscountAmount()
		if err != nil {
			return Snapshot{}, err
		}
		fees = fees.Add(c.Terms.Fees)
		maxDiscount = maxDiscount.Add(d)
		afterDiscount = afterDiscount.Add(ComputeFinalFees(c.Terms.Fees, d, generic.ZeroMoney()))
	}

	finalFees := ComputeFinalFees(afterDiscount, generic.ZeroMoney(), extra)
	totalPaid := TotalPaid(l.Payments)
	balance := ComputeBalance(finalFees, totalPaid)

	return Snapshot{
		LedgerID:          l.ID,
		Type:              l.Type,
		PackageFees:       fees,
		MaxDiscountAmount: maxDiscount,
		AfterDiscount:     afterDiscount,
		ExtraDiscount:     extra,
		FinalFees:         finalFees,
		TotalPaid:         totalPaid,
		Balance:           balance,
		Overpaid:          totalPaid.Sub(finalFees).ClampZero(),
		IsSettled:         IsSettled(finalFees, balance),
		PaymentCount:      len(l.Payments),
		ChargeCount:       len(l.Charges),
		Term:              l.CurrentTerm(),
		Version:           l.Version,
	}, nil
}
