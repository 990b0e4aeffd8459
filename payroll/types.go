/*
Package payroll implements trainer salary settlement.

PURPOSE:
  A trainer's monthly settlement has the same shape as a membership fee
  ledger: a nominal amount (monthly salary), a reduction driven by absence,
  a forgiveness allowance (discount days, capped by absence), and additions
  (incentive). Every figure is derived from stored inputs; an edit re-derives
  all of them.

FORMULAS:
  totalDaysInMonth   = days of the salary month (28..31)
  absentDays         = totalDaysInMonth - presentDays
  payableDays        = presentDays + discountDays   (discountDays <= absentDays)
  calculatedSalary   = monthlySalary / totalDaysInMonth * payableDays
  finalPayableAmount = calculatedSalary + incentiveAmount

EXAMPLE:
  30000 salary, 30-day month, 25 present, 2 discount days, 1000 incentive
    absent 5, payable 27, calculated 27000, final 28000

SEE ALSO:
  - settlement.go: Settle, Draft readiness
  - slip.go: Printable salary slip with amount in words
*/
package payroll

import (
	"time"

	"github.com/warp/gym-settlement/generic"
)

// =============================================================================
// TRAINER
// =============================================================================

type Trainer struct {
	ID            generic.TrainerID
	Name          string
	Phone         string
	Designation   string
	MonthlySalary generic.Amount
	CreatedAt     time.Time
}

// =============================================================================
// INCENTIVE
// =============================================================================

type IncentiveType string

const (
	IncentiveNone        IncentiveType = ""
	IncentivePTSessions  IncentiveType = "PT_SESSIONS"
	IncentivePerformance IncentiveType = "PERFORMANCE"
	IncentiveReferral    IncentiveType = "REFERRAL"
	IncentiveFestival    IncentiveType = "FESTIVAL"
	IncentiveOther       IncentiveType = "OTHER"
)

func (t IncentiveType) Valid() bool {
	switch t {
	case IncentiveNone, IncentivePTSessions, IncentivePerformance, IncentiveReferral, IncentiveFestival, IncentiveOther:
		return true
	}
	return false
}

// =============================================================================
// INPUTS
// =============================================================================

// Deduction is an itemised reduction printed on the slip (advance recovery,
// penalty). Amount is always positive.
type Deduction struct {
	Label  string
	Amount generic.Amount
}

// Input is the month's stored attendance and pay inputs.
type Input struct {
	MonthlySalary   generic.Amount
	Month           generic.SalaryMonth
	PresentDays     int
	DiscountDays    int
	IncentiveAmount generic.Amount
	IncentiveType   IncentiveType
	Deductions      []Deduction
}

// PayMode is how the settlement was paid out.
type PayMode string

const (
	PayCash         PayMode = "CASH"
	PayUPI          PayMode = "UPI"
	PayBankTransfer PayMode = "BANK_TRANSFER"
	PayCheque       PayMode = "CHEQUE"
)

func (m PayMode) Valid() bool {
	switch m {
	case PayCash, PayUPI, PayBankTransfer, PayCheque:
		return true
	}
	return false
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// Figures are the derived values of a settlement, carried at full precision.
type Figures struct {
	TotalDaysInMonth   int
	PresentDays        int
	AbsentDays         int
	DiscountDays       int
	PayableDays        int
	CalculatedSalary   generic.Amount
	IncentiveAmount    generic.Amount
	FinalPayableAmount generic.Amount
	TotalDeductions    generic.Amount
	NetPayable         generic.Amount
}

// Settlement is a persisted (trainer, salary month) settlement.
type Settlement struct {
	ID          generic.SettlementID
	TrainerID   generic.TrainerID
	Input       Input
	Figures     Figures
	PaymentDate generic.TimePoint
	PayMode     PayMode
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
