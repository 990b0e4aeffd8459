/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Amounts travel as
  decimal strings so clients never round-trip money through float64.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Member:      MemberDTO, CreateMemberRequest, EnrolRequest, LedgerDTO, SelectionDTO
  Payment:     PaymentRequest, PaymentDTO, PaymentResultDTO, ValidateRequest, ValidationDTO
  Renewal:     RenewalRequest, RenewalDTO
  Payroll:     TrainerDTO, CreateTrainerRequest, SettlementRequest, SettlementDTO
  Scenarios:   ScenarioDTO

VALIDATION:
  Request types carry go-playground/validator tags for shape checks (required,
  enum membership). Business rules stay in the domain packages and come back
  as RuleErrors.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/package.go: PackageJSON type
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
	"github.com/warp/gym-settlement/payroll"
)

// =============================================================================
// MEMBERS
// =============================================================================

type CreateMemberRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"omitempty,min=7,max=15"`
	CachedType string `json:"cached_type"`
}

type EnrolRequest struct {
	PackageID string `json:"package_id" validate:"required"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type MemberDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Phone       string       `json:"phone,omitempty"`
	CachedType  string       `json:"cached_type,omitempty"`
	Regular     *LedgerDTO   `json:"regular,omitempty"`
	PT          *LedgerDTO   `json:"pt,omitempty"`
	Selection   SelectionDTO `json:"selection"`
	Outstanding []string     `json:"outstanding_types"`
	Renewals    []RenewalDTO `json:"renewals,omitempty"`
}

type LedgerDTO struct {
	LedgerID          string `json:"ledger_id"`
	Type              string `json:"type"`
	PackageFees       string `json:"package_fees"`
	MaxDiscountAmount string `json:"max_discount_amount"`
	AfterDiscount     string `json:"after_discount"`
	ExtraDiscount     string `json:"extra_discount"`
	FinalFees         string `json:"final_fees"`
	TotalPaid         string `json:"total_paid"`
	Balance           string `json:"balance"`
	Overpaid          string `json:"overpaid"`
	IsSettled         bool   `json:"is_settled"`
	PaymentCount      int    `json:"payment_count"`
	ChargeCount       int    `json:"charge_count"`
	TermStart         string `json:"term_start"`
	TermEnd           string `json:"term_end"`
	Version           int    `json:"version"`
}

type SelectionDTO struct {
	Ready          bool     `json:"ready"`
	Placeholder    bool     `json:"placeholder"`
	AvailableTypes []string `json:"available_types"`
	DefaultType    string   `json:"default_type,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func toLedgerDTO(s membership.Snapshot) *LedgerDTO {
	return &LedgerDTO{
		LedgerID:          string(s.LedgerID),
		Type:              string(s.Type),
		PackageFees:       s.PackageFees.StringFixed(),
		MaxDiscountAmount: s.MaxDiscountAmount.StringFixed(),
		AfterDiscount:     s.AfterDiscount.StringFixed(),
		ExtraDiscount:     s.ExtraDiscount.StringFixed(),
		FinalFees:         s.FinalFees.StringFixed(),
		TotalPaid:         s.TotalPaid.StringFixed(),
		Balance:           s.Balance.StringFixed(),
		Overpaid:          s.Overpaid.StringFixed(),
		IsSettled:         s.IsSettled,
		PaymentCount:      s.PaymentCount,
		ChargeCount:       s.ChargeCount,
		TermStart:         s.Term.Start.String(),
		TermEnd:           s.Term.End.String(),
		Version:           s.Version,
	}
}

func toSelectionDTO(sel membership.Selection) SelectionDTO {
	dto := SelectionDTO{
		Ready:          sel.Ready,
		Placeholder:    sel.Placeholder,
		AvailableTypes: []string{},
		DefaultType:    string(sel.DefaultType),
	}
	for _, t := range sel.AvailableTypes() {
		dto.AvailableTypes = append(dto.AvailableTypes, string(t))
	}
	if sel.Err != nil {
		dto.Error = sel.Err.Error()
	}
	return dto
}

func toMemberDTO(o *membership.Overview, renewals []membership.RenewalRecord) MemberDTO {
	dto := MemberDTO{
		ID:          string(o.Member.ID),
		Name:        o.Member.Name,
		Phone:       o.Member.Phone,
		CachedType:  o.Member.CachedType,
		Selection:   toSelectionDTO(o.Selection),
		Outstanding: []string{},
	}
	for _, t := range o.Outstanding {
		dto.Outstanding = append(dto.Outstanding, string(t))
	}
	if o.Details.Regular != nil {
		dto.Regular = toLedgerDTO(*o.Details.Regular)
	}
	if o.Details.PT != nil {
		dto.PT = toLedgerDTO(*o.Details.PT)
	}
	for _, r := range renewals {
		dto.Renewals = append(dto.Renewals, toRenewalDTO(r))
	}
	return dto
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PayMode         string          `json:"pay_mode"`
	NextPaymentDate string          `json:"next_payment_date" validate:"omitempty,datetime=2006-01-02"`
	Notes           string          `json:"notes" validate:"max=500"`
	IdempotencyKey  string          `json:"idempotency_key" validate:"omitempty,max=128"`
}

type PaymentDTO struct {
	ID              string `json:"id"`
	Amount          string `json:"amount"`
	PaymentDate     string `json:"payment_date"`
	PayMode         string `json:"pay_mode"`
	NextPaymentDate string `json:"next_payment_date,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type PaymentResultDTO struct {
	Payment PaymentDTO `json:"payment"`
	Ledger  *LedgerDTO `json:"ledger"`
}

func toPaymentDTO(p membership.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:          string(p.ID),
		Amount:      p.Amount.StringFixed(),
		PaymentDate: p.Date.String(),
		PayMode:     string(p.Mode),
		Notes:       p.Notes,
	}
	if p.NextPaymentDate != nil {
		dto.NextPaymentDate = p.NextPaymentDate.String()
	}
	return dto
}

type ValidateRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	PaymentID string          `json:"payment_id"`
}

type ValidationDTO struct {
	Accepted   bool   `json:"accepted"`
	MaxAllowed string `json:"max_allowed"`
	Code       string `json:"code,omitempty"`
}

type DiscountRequest struct {
	ExtraDiscount decimal.Decimal `json:"extra_discount"`
}

// =============================================================================
// RENEWALS
// =============================================================================

type RenewalRequest struct {
	PackageID string `json:"package_id" validate:"required"`
}

type RenewalDTO struct {
	ID              string     `json:"id"`
	MembershipType  string     `json:"membership_type"`
	PackageID       string     `json:"package_id"`
	PreviousExpiry  string     `json:"previous_expiry,omitempty"`
	RenewedOn       string     `json:"renewed_on"`
	DaysUntilExpiry int        `json:"days_until_expiry"`
	RenewalType     string     `json:"renewal_type"`
	TermStart       string     `json:"term_start"`
	TermEnd         string     `json:"term_end"`
	Ledger          *LedgerDTO `json:"ledger,omitempty"`
}

func toRenewalDTO(r membership.RenewalRecord) RenewalDTO {
	dto := RenewalDTO{
		ID:              r.ID,
		MembershipType:  string(r.MembershipType),
		PackageID:       string(r.PackageID),
		RenewedOn:       r.RenewedOn.String(),
		DaysUntilExpiry: r.DaysUntilExpiry,
		RenewalType:     string(r.RenewalType),
		TermStart:       r.Term.Start.String(),
		TermEnd:         r.Term.End.String(),
	}
	if r.PreviousExpiry != nil {
		dto.PreviousExpiry = r.PreviousExpiry.String()
	}
	return dto
}

// =============================================================================
// PAYROLL
// =============================================================================

type CreateTrainerRequest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name" validate:"required"`
	Phone         string          `json:"phone" validate:"omitempty,min=7,max=15"`
	Designation   string          `json:"designation"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
}

type TrainerDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Designation   string `json:"designation,omitempty"`
	MonthlySalary string `json:"monthly_salary"`
}

func toTrainerDTO(t payroll.Trainer) TrainerDTO {
	return TrainerDTO{
		ID:            string(t.ID),
		Name:          t.Name,
		Phone:         t.Phone,
		Designation:   t.Designation,
		MonthlySalary: t.MonthlySalary.StringFixed(),
	}
}

type DeductionDTO struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// SettlementRequest carries optional fields as pointers so that a missing
// present_days is distinguishable from zero.
type SettlementRequest struct {
	SalaryMonth     string           `json:"salary_month" validate:"omitempty,datetime=2006-01"`
	MonthlySalary   *decimal.Decimal `json:"monthly_salary"`
	PresentDays     *int             `json:"present_days"`
	DiscountDays    *int             `json:"discount_days"`
	IncentiveAmount *decimal.Decimal `json:"incentive_amount"`
	IncentiveType   string           `json:"incentive_type"`
	Deductions      []DeductionDTO   `json:"deductions" validate:"dive"`
	PaymentDate     string           `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PayMode         string           `json:"pay_mode"`
	Notes           string           `json:"notes" validate:"max=500"`
}

func (req SettlementRequest) draft(trainerID generic.TrainerID) (payroll.Draft, error) {
	d := payroll.Draft{
		TrainerID:     trainerID,
		PresentDays:   req.PresentDays,
		DiscountDays:  req.DiscountDays,
		IncentiveType: payroll.IncentiveType(req.IncentiveType),
		PayMode:       payroll.PayMode(req.PayMode),
		Notes:         req.Notes,
	}
	if req.SalaryMonth != "" {
		m, err := generic.ParseSalaryMonth(req.SalaryMonth)
		if err != nil {
			return d, err
		}
		d.Month = &m
	}
	if req.MonthlySalary != nil {
		a := generic.MoneyFromDecimal(*req.MonthlySalary)
		d.MonthlySalary = &a
	}
	if req.IncentiveAmount != nil {
		a := generic.MoneyFromDecimal(*req.IncentiveAmount)
		d.IncentiveAmount = &a
	}
	for _, dd := range req.Deductions {
		d.Deductions = append(d.Deductions, payroll.Deduction{
			Label:  dd.Label,
			Amount: generic.MoneyFromDecimal(dd.Amount),
		})
	}
	if req.PaymentDate != "" {
		tp, err := generic.ParseDate(req.PaymentDate)
		if err != nil {
			return d, err
		}
		d.PaymentDate = &tp
	}
	return d, nil
}

type SettlementDTO struct {
	ID                 string `json:"id"`
	TrainerID          string `json:"trainer_id"`
	SalaryMonth        string `json:"salary_month"`
	MonthlySalary      string `json:"monthly_salary"`
	TotalDaysInMonth   int    `json:"total_days_in_month"`
	PresentDays        int    `json:"present_days"`
	AbsentDays         int    `json:"absent_days"`
	DiscountDays       int    `json:"discount_days"`
	PayableDays        int    `json:"payable_days"`
	CalculatedSalary   string `json:"calculated_salary"`
	IncentiveAmount    string `json:"incentive_amount"`
	IncentiveType      string `json:"incentive_type,omitempty"`
	FinalPayableAmount string `json:"final_payable_amount"`
	TotalDeductions    string `json:"total_deductions"`
	NetPayable         string `json:"net_payable"`
	PaymentDate        string `json:"payment_date"`
	PayMode            string `json:"pay_mode"`
	Notes              string `json:"notes,omitempty"`
}

func toSettlementDTO(s payroll.Settlement) SettlementDTO {
	f := s.Figures
	return SettlementDTO{
		ID:                 string(s.ID),
		TrainerID:          string(s.TrainerID),
		SalaryMonth:        s.Input.Month.String(),
		MonthlySalary:      s.Input.MonthlySalary.StringFixed(),
		TotalDaysInMonth:   f.TotalDaysInMonth,
		PresentDays:        f.PresentDays,
		AbsentDays:         f.AbsentDays,
		DiscountDays:       f.DiscountDays,
		PayableDays:        f.PayableDays,
		CalculatedSalary:   f.CalculatedSalary.StringFixed(),
		IncentiveAmount:    f.IncentiveAmount.StringFixed(),
		IncentiveType:      string(s.Input.IncentiveType),
		FinalPayableAmount: f.FinalPayableAmount.StringFixed(),
		TotalDeductions:    f.TotalDeductions.StringFixed(),
		NetPayable:         f.NetPayable.StringFixed(),
		PaymentDate:        s.PaymentDate.String(),
		PayMode:            string(s.PayMode),
		Notes:              s.Notes,
	}
}

// =============================================================================
// PACKAGES, SCENARIOS & ERRORS
// =============================================================================

type PackageDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	MembershipType    string `json:"membership_type"`
	Fees              string `json:"fees"`
	DiscountType      string `json:"discount_type"`
	MaxDiscount       string `json:"max_discount"`
	MaxDiscountAmount string `json:"max_discount_amount"`
	DurationInDays    int    `json:"duration_in_days,omitempty"`
	DurationInMonths  int    `json:"duration_in_months,omitempty"`
}

func toPackageDTO(p membership.Package) PackageDTO {
	dto := PackageDTO{
		ID:               string(p.ID),
		Name:             p.Name,
		MembershipType:   string(p.MembershipType),
		Fees:             p.Fees.StringFixed(),
		DiscountType:     string(p.DiscountType),
		MaxDiscount:      p.MaxDiscount.Value.String(),
		DurationInDays:   p.DurationInDays,
		DurationInMonths: p.DurationInMonths,
	}
	if amt, err := p.Terms().MaxDiscountAmount(); err == nil {
		dto.MaxDiscountAmount = amt.StringFixed()
	}
	return dto
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the error body. Rule violations fill Code and, where the
// rule has a ceiling, Limit (max_allowed for payments, absent days for
// discount days).
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Limit   string `json:"limit,omitempty"`
}
