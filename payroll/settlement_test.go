package payroll_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	june2025 = generic.SalaryMonth{Year: 2025, Month: time.June}     // 30 days
	feb2026  = generic.SalaryMonth{Year: 2026, Month: time.February} // 28 days
)

func money(v float64) generic.Amount { return generic.NewMoney(v) }

func intPtr(n int) *int { return &n }

func juneInput() payroll.Input {
	return payroll.Input{
		MonthlySalary:   money(30000),
		Month:           june2025,
		PresentDays:     25,
		DiscountDays:    2,
		IncentiveAmount: money(1000),
		IncentiveType:   payroll.IncentivePTSessions,
	}
}

// =============================================================================
// SETTLE
// =============================================================================

func TestSettle_WorkedExample(t *testing.T) {
	// GIVEN: 30000 salary, 30 days, 25 present, 2 discount, 1000 incentive
	fig, err := payroll.Settle(juneInput())
	require.NoError(t, err)

	// THEN: 27 payable days, 27000 calculated, 28000 final
	assert.Equal(t, 30, fig.TotalDaysInMonth)
	assert.Equal(t, 5, fig.AbsentDays)
	assert.Equal(t, 27, fig.PayableDays)
	assert.Equal(t, "27000.00", fig.CalculatedSalary.StringFixed())
	assert.Equal(t, "28000.00", fig.FinalPayableAmount.StringFixed())
	assert.Equal(t, "0.00", fig.TotalDeductions.StringFixed())
	assert.Equal(t, "28000.00", fig.NetPayable.StringFixed())
}

func TestSettle_DiscountExceedsAbsent_ReportsCap(t *testing.T) {
	// GIVEN: 5 absent days, 6 discount days requested
	in := juneInput()
	in.DiscountDays = 6

	_, err := payroll.Settle(in)

	// THEN: Rejected with the cap 5
	var ruleErr *generic.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "DISCOUNT_EXCEEDS_ABSENT", ruleErr.Code())
	assert.Equal(t, "discount_days", ruleErr.Field)
	require.NotNil(t, ruleErr.Limit)
	assert.Equal(t, "5", ruleErr.Limit.Value.String())
	assert.Equal(t, generic.UnitDays, ruleErr.Limit.Unit)
}

func TestSettle_DiscountEqualsAbsent_FullSalary(t *testing.T) {
	in := juneInput()
	in.DiscountDays = 5
	in.IncentiveAmount = generic.Amount{}

	fig, err := payroll.Settle(in)
	require.NoError(t, err)
	assert.Equal(t, 30, fig.PayableDays)
	assert.Equal(t, "30000.00", fig.FinalPayableAmount.StringFixed())
}

func TestSettle_Attendance_OutOfRange(t *testing.T) {
	for _, present := range []int{-1, 31} {
		in := juneInput()
		in.PresentDays = present
		in.DiscountDays = 0

		_, err := payroll.Settle(in)

		var ruleErr *generic.RuleError
		require.True(t, errors.As(err, &ruleErr), "present=%d", present)
		assert.Equal(t, "INVALID_ATTENDANCE", ruleErr.Code())
		assert.Equal(t, "30", ruleErr.Limit.Value.String())
	}
}

func TestSettle_ZeroPresent_IsLegal(t *testing.T) {
	in := juneInput()
	in.PresentDays = 0
	in.DiscountDays = 0

	fig, err := payroll.Settle(in)
	require.NoError(t, err)
	assert.Equal(t, 30, fig.AbsentDays)
	assert.Equal(t, "0.00", fig.CalculatedSalary.StringFixed())
	assert.Equal(t, "1000.00", fig.FinalPayableAmount.StringFixed())
}

func TestSettle_InvalidAmounts(t *testing.T) {
	in := juneInput()
	in.MonthlySalary = money(0)
	_, err := payroll.Settle(in)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	in = juneInput()
	in.IncentiveAmount = money(-1)
	_, err = payroll.Settle(in)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	in = juneInput()
	in.Deductions = []payroll.Deduction{{Label: "Advance", Amount: money(0)}}
	_, err = payroll.Settle(in)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

func TestSettle_FullPrecision_NoIntermediateRounding(t *testing.T) {
	// 25000 / 28 * 17 = 15178.571428...
	in := payroll.Input{MonthlySalary: money(25000), Month: feb2026, PresentDays: 17}

	fig, err := payroll.Settle(in)
	require.NoError(t, err)
	assert.Equal(t, "15178.57", fig.CalculatedSalary.StringFixed())
	assert.False(t, fig.CalculatedSalary.Value.Equal(fig.CalculatedSalary.Value.Round(2)), "stored value must not be rounded")
	assert.Equal(t, 28, fig.TotalDaysInMonth)
}

func TestSettle_DeductionsReduceNetOnly(t *testing.T) {
	in := juneInput()
	in.Deductions = []payroll.Deduction{
		{Label: "Salary advance", Amount: money(2000)},
		{Label: "Late penalty", Amount: money(250)},
	}

	fig, err := payroll.Settle(in)
	require.NoError(t, err)
	assert.Equal(t, "28000.00", fig.FinalPayableAmount.StringFixed())
	assert.Equal(t, "2250.00", fig.TotalDeductions.StringFixed())
	assert.Equal(t, "25750.00", fig.NetPayable.StringFixed())

	// Deductions larger than the gross floor the net at zero
	in.Deductions = []payroll.Deduction{{Label: "Recovery", Amount: money(50000)}}
	fig, err = payroll.Settle(in)
	require.NoError(t, err)
	assert.Equal(t, "0.00", fig.NetPayable.StringFixed())
}

func TestMaxDiscountDays(t *testing.T) {
	assert.Equal(t, 5, payroll.MaxDiscountDays(june2025, 25))
	assert.Equal(t, 28, payroll.MaxDiscountDays(feb2026, 0))
	assert.Equal(t, 0, payroll.MaxDiscountDays(feb2026, 29))
}

func TestSettle_PayableNeverExceedsMonth(t *testing.T) {
	months := []generic.SalaryMonth{
		feb2026,                            // 28 days
		{Year: 2028, Month: time.February}, // 29 days
		june2025,                           // 30 days
		{Year: 2025, Month: time.July},     // 31 days
	}

	for _, month := range months {
		total := month.TotalDays()
		t.Run(fmt.Sprintf("%s/%d days", month, total), func(t *testing.T) {
			for present := 0; present <= total; present++ {
				for discount := 0; discount <= total; discount++ {
					in := juneInput()
					in.Month = month
					in.PresentDays = present
					in.DiscountDays = discount

					fig, err := payroll.Settle(in)
					absent := total - present
					if discount > absent {
						var ruleErr *generic.RuleError
						require.True(t, errors.As(err, &ruleErr), "present=%d discount=%d", present, discount)
						assert.ErrorIs(t, ruleErr, generic.ErrDiscountExceedsAbsent)
						assert.Equal(t, int64(absent), ruleErr.Limit.Value.IntPart())
						continue
					}
					require.NoError(t, err, "present=%d discount=%d", present, discount)

					assert.Equal(t, total, fig.TotalDaysInMonth)
					assert.Equal(t, present+discount, fig.PayableDays)
					assert.LessOrEqual(t, fig.PayableDays, fig.TotalDaysInMonth, "present=%d discount=%d", present, discount)
					assert.False(t, fig.CalculatedSalary.GreaterThan(in.MonthlySalary))
					assert.False(t, fig.CalculatedSalary.IsNegative())
				}
			}

			in := juneInput()
			in.Month = month
			in.DiscountDays = 0
			in.PresentDays = total + 1
			_, err := payroll.Settle(in)
			assert.ErrorIs(t, err, generic.ErrInvalidAttendance)
		})
	}
}

func TestSettle_RepeatedCallsAgree(t *testing.T) {
	withDeductions := juneInput()
	withDeductions.Deductions = []payroll.Deduction{
		{Label: "Salary advance", Amount: money(2000)},
		{Label: "Uniform", Amount: money(250)},
	}
	oddSalary := juneInput()
	oddSalary.Month = generic.SalaryMonth{Year: 2025, Month: time.July}
	oddSalary.MonthlySalary = money(31001)
	oddSalary.PresentDays = 17

	for i, in := range []payroll.Input{juneInput(), withDeductions, oddSalary} {
		first, err := payroll.Settle(in)
		require.NoError(t, err)
		second, err := payroll.Settle(in)
		require.NoError(t, err)
		assert.Equal(t, first, second, "input %d", i)
	}
}

// =============================================================================
// DRAFT
// =============================================================================

func readyDraft() payroll.Draft {
	month := june2025
	salary := money(30000)
	paid := generic.NewTimePoint(2025, time.July, 1)
	return payroll.Draft{
		TrainerID:     "trn-1",
		MonthlySalary: &salary,
		Month:         &month,
		PresentDays:   intPtr(25),
		PaymentDate:   &paid,
		PayMode:       payroll.PayCash,
	}
}

func TestDraft_Ready_ZeroPresentIsSupplied(t *testing.T) {
	d := readyDraft()
	d.PresentDays = intPtr(0)
	assert.NoError(t, d.Ready())
}

func TestDraft_Ready_NamesFirstMissingField(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*payroll.Draft)
		field string
	}{
		{"trainer", func(d *payroll.Draft) { d.TrainerID = "" }, "trainer_id"},
		{"month", func(d *payroll.Draft) { d.Month = nil }, "salary_month"},
		{"salary", func(d *payroll.Draft) { d.MonthlySalary = nil }, "monthly_salary"},
		{"present", func(d *payroll.Draft) { d.PresentDays = nil }, "present_days"},
		{"payment date", func(d *payroll.Draft) { d.PaymentDate = nil }, "payment_date"},
		{"pay mode", func(d *payroll.Draft) { d.PayMode = "" }, "pay_mode"},
		{"bad pay mode", func(d *payroll.Draft) { d.PayMode = "BARTER" }, "pay_mode"},
		{"bad incentive type", func(d *payroll.Draft) { d.IncentiveType = "TIPS" }, "incentive_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := readyDraft()
			tt.edit(&d)

			var ruleErr *generic.RuleError
			require.True(t, errors.As(d.Ready(), &ruleErr))
			assert.Equal(t, "MISSING_REQUIRED_FIELD", ruleErr.Code())
			assert.Equal(t, tt.field, ruleErr.Field)
		})
	}
}

func TestDraft_Preview(t *testing.T) {
	// Incomplete drafts preview nothing
	d := payroll.Draft{}
	_, ok, err := d.Preview()
	assert.NoError(t, err)
	assert.False(t, ok)

	// Payment details are not needed for a preview
	d = readyDraft()
	d.PaymentDate = nil
	d.PayMode = ""
	d.DiscountDays = intPtr(2)
	fig, ok, err := d.Preview()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "27000.00", fig.CalculatedSalary.StringFixed())

	d.DiscountDays = intPtr(9)
	_, ok, err = d.Preview()
	assert.False(t, ok)
	assert.ErrorIs(t, err, generic.ErrDiscountExceedsAbsent)
}
