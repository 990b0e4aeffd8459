package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/gym-settlement/generic"
)

// Settle derives every settlement figure from in.
//
// Rules, in order:
//   - monthlySalary > 0, incentive >= 0, each deduction > 0  (INVALID_AMOUNT)
//   - 0 <= presentDays <= totalDaysInMonth                  (INVALID_ATTENDANCE)
//   - 0 <= discountDays <= absentDays                        (DISCOUNT_EXCEEDS_ABSENT, limit = absentDays)
//
// calculatedSalary is computed as salary * payableDays / totalDays so the only
// inexact step is the final division; nothing is rounded here.
func Settle(in Input) (Figures, error) {
	if in.Month.IsZero() {
		return Figures{}, generic.MissingField("salary_month")
	}
	if !in.MonthlySalary.IsPositive() {
		return Figures{}, generic.NewFieldError(generic.ErrInvalidAmount, "monthly_salary", "must be greater than zero")
	}
	incentive := in.IncentiveAmount
	if incentive.Unit == "" {
		incentive = generic.ZeroMoney()
	}
	if incentive.IsNegative() {
		return Figures{}, generic.NewFieldError(generic.ErrInvalidAmount, "incentive_amount", "must not be negative")
	}

	totalDays := in.Month.TotalDays()
	if in.PresentDays < 0 || in.PresentDays > totalDays {
		return Figures{}, &generic.RuleError{
			Kind:  generic.ErrInvalidAttendance,
			Limit: daysLimit(totalDays),
			Field: "present_days",
		}
	}

	absentDays := totalDays - in.PresentDays
	if in.DiscountDays < 0 || in.DiscountDays > absentDays {
		return Figures{}, &generic.RuleError{
			Kind:  generic.ErrDiscountExceedsAbsent,
			Limit: daysLimit(absentDays),
			Field: "discount_days",
		}
	}

	deductions := generic.ZeroMoney()
	for _, d := range in.Deductions {
		if !d.Amount.IsPositive() {
			return Figures{}, generic.NewFieldError(generic.ErrInvalidAmount, "deductions", d.Label+" must be greater than zero")
		}
		deductions = deductions.Add(d.Amount)
	}

	payableDays := in.PresentDays + in.DiscountDays
	calculated := in.MonthlySalary.
		Mul(decimal.NewFromInt(int64(payableDays))).
		Div(decimal.NewFromInt(int64(totalDays)))
	calculated.Unit = generic.UnitCurrency

	final := calculated.Add(incentive)

	return Figures{
		TotalDaysInMonth:   totalDays,
		PresentDays:        in.PresentDays,
		AbsentDays:         absentDays,
		DiscountDays:       in.DiscountDays,
		PayableDays:        payableDays,
		CalculatedSalary:   calculated,
		IncentiveAmount:    incentive,
		FinalPayableAmount: final,
		TotalDeductions:    deductions,
		NetPayable:         final.Sub(deductions).ClampZero(),
	}, nil
}

func daysLimit(n int) *generic.Amount {
	a := generic.NewAmountFromInt(n, generic.UnitDays)
	return &a
}

// MaxDiscountDays is the cap on discount days for a given attendance.
func MaxDiscountDays(month generic.SalaryMonth, presentDays int) int {
	absent := month.TotalDays() - presentDays
	if absent < 0 {
		return 0
	}
	return absent
}

// =============================================================================
// DRAFT - Form state before submission
// =============================================================================

// Draft is a settlement as it is being filled in. Pointer fields distinguish
// "not supplied" from zero; PresentDays = 0 is a legal value (unpaid month).
type Draft struct {
	TrainerID       generic.TrainerID
	MonthlySalary   *generic.Amount
	Month           *generic.SalaryMonth
	PresentDays     *int
	DiscountDays    *int
	IncentiveAmount *generic.Amount
	IncentiveType   IncentiveType
	Deductions      []Deduction
	PaymentDate     *generic.TimePoint
	PayMode         PayMode
	Notes           string
}

// Ready returns MISSING_REQUIRED_FIELD naming the first absent field, or nil.
func (d Draft) Ready() error {
	switch {
	case d.TrainerID == "":
		return generic.MissingField("trainer_id")
	case d.Month == nil || d.Month.IsZero():
		return generic.MissingField("salary_month")
	case d.MonthlySalary == nil:
		return generic.MissingField("monthly_salary")
	case d.PresentDays == nil:
		return generic.MissingField("present_days")
	case d.PaymentDate == nil || d.PaymentDate.IsZero():
		return generic.MissingField("payment_date")
	case d.PayMode == "":
		return generic.MissingField("pay_mode")
	case !d.PayMode.Valid():
		return generic.NewFieldError(generic.ErrMissingRequiredField, "pay_mode", "unknown pay mode")
	case !d.IncentiveType.Valid():
		return generic.NewFieldError(generic.ErrMissingRequiredField, "incentive_type", "unknown incentive type")
	}
	return nil
}

// Input converts a ready draft. Discount days and incentive default to zero.
func (d Draft) Input() (Input, error) {
	if err := d.Ready(); err != nil {
		return Input{}, err
	}
	in := Input{
		MonthlySalary:   *d.MonthlySalary,
		Month:           *d.Month,
		PresentDays:     *d.PresentDays,
		IncentiveAmount: generic.ZeroMoney(),
		IncentiveType:   d.IncentiveType,
		Deductions:      d.Deductions,
	}
	if d.DiscountDays != nil {
		in.DiscountDays = *d.DiscountDays
	}
	if d.IncentiveAmount != nil {
		in.IncentiveAmount = *d.IncentiveAmount
	}
	return in, nil
}

// Preview derives figures from whatever has been filled in so far, for live
// display. ok is false until salary, month and present days are all supplied.
func (d Draft) Preview() (fig Figures, ok bool, err error) {
	if d.MonthlySalary == nil || d.Month == nil || d.PresentDays == nil {
		return Figures{}, false, nil
	}
	in := Input{
		MonthlySalary:   *d.MonthlySalary,
		Month:           *d.Month,
		PresentDays:     *d.PresentDays,
		IncentiveAmount: generic.ZeroMoney(),
		Deductions:      d.Deductions,
	}
	if d.DiscountDays != nil {
		in.DiscountDays = *d.DiscountDays
	}
	if d.IncentiveAmount != nil {
		in.IncentiveAmount = *d.IncentiveAmount
	}
	fig, err = Settle(in)
	if err != nil {
		return Figures{}, false, err
	}
	return fig, true, nil
}
