package membership

import (
	"github.com/shopspring/decimal"

	"github.com/warp/gym-settlement/generic"
)

var hundred = decimal.NewFromInt(100)

// MaxDiscountAmount resolves a package's maximum discount into currency.
//
//	PERCENTAGE: fees * maxDiscount / 100
//	FIXED:      maxDiscount
//
// No clamping happens here; FinalFees floors the result against the fee.
// Negative fees or maxDiscount are caller errors and come back as INVALID_AMOUNT.
func MaxDiscountAmount(fees generic.Amount, discountType DiscountType, maxDiscount generic.Amount) (generic.Amount, error) {
	if fees.IsNegative() {
		return generic.ZeroMoney(), generic.NewFieldError(generic.ErrInvalidAmount, "fees", "must not be negative")
	}
	if maxDiscount.IsNegative() {
		return generic.ZeroMoney(), generic.NewFieldError(generic.ErrInvalidAmount, "max_discount", "must not be negative")
	}

	switch discountType {
	case DiscountFixed:
		return generic.MoneyFromDecimal(maxDiscount.Value), nil
	default: // PERCENTAGE is the default discount type for packages
		return generic.MoneyFromDecimal(fees.Value.Mul(maxDiscount.Value).Div(hundred)), nil
	}
}

// MaxDiscountAmount on Terms is a convenience wrapper for ledger derivations.
func (t Terms) MaxDiscountAmount() (generic.Amount, error) {
	return MaxDiscountAmount(t.Fees, t.DiscountType, t.MaxDiscount)
}
