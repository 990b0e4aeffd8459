package payroll

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/warp/gym-settlement/generic"
)

// =============================================================================
// SALARY SLIP - Printable settlement document
// =============================================================================

// Gym is the identity printed at the top of a slip.
type Gym struct {
	Name           string
	Address        string
	Phone          string
	CurrencySymbol string
}

type SlipLine struct {
	Label  string
	Amount generic.Amount
}

// Slip is the printable form of one settlement. Amounts keep full precision;
// they are rounded to two places only when rendered.
type Slip struct {
	Gym     Gym
	Trainer Trainer

	SettlementID generic.SettlementID
	Period       generic.SalaryMonth
	PeriodRange  generic.Period
	PaymentDate  generic.TimePoint
	PayMode      PayMode

	// Attendance
	TotalDays    int
	PresentDays  int
	AbsentDays   int
	DiscountDays int
	PayableDays  int

	// Earnings
	Basic         generic.Amount
	Calculated    generic.Amount
	Incentive     generic.Amount
	IncentiveType IncentiveType
	Gross         generic.Amount

	Deductions      []SlipLine
	TotalDeductions generic.Amount

	NetPayable generic.Amount
	NetInWords string
	Notes      string
}

// BuildSlip assembles the slip for a settlement. The settlement's figures are
// used as stored; callers re-derive before building if inputs changed.
func BuildSlip(gym Gym, trainer Trainer, s Settlement) Slip {
	if gym.CurrencySymbol == "" {
		gym.CurrencySymbol = "Rs."
	}
	f := s.Figures
	lines := make([]SlipLine, 0, len(s.Input.Deductions))
	for _, d := range s.Input.Deductions {
		lines = append(lines, SlipLine{Label: d.Label, Amount: d.Amount})
	}
	return Slip{
		Gym:             gym,
		Trainer:         trainer,
		SettlementID:    s.ID,
		Period:          s.Input.Month,
		PeriodRange:     s.Input.Month.Period(),
		PaymentDate:     s.PaymentDate,
		PayMode:         s.PayMode,
		TotalDays:       f.TotalDaysInMonth,
		PresentDays:     f.PresentDays,
		AbsentDays:      f.AbsentDays,
		DiscountDays:    f.DiscountDays,
		PayableDays:     f.PayableDays,
		Basic:           s.Input.MonthlySalary,
		Calculated:      f.CalculatedSalary,
		Incentive:       f.IncentiveAmount,
		IncentiveType:   s.Input.IncentiveType,
		Gross:           f.FinalPayableAmount,
		Deductions:      lines,
		TotalDeductions: f.TotalDeductions,
		NetPayable:      f.NetPayable,
		NetInWords:      AmountInWords(f.NetPayable),
		Notes:           s.Notes,
	}
}

const slipTemplate = `{{rule}}
{{center .Gym.Name}}
{{- if .Gym.Address}}
{{center .Gym.Address}}{{end}}
{{- if .Gym.Phone}}
{{center (print "Phone: " .Gym.Phone)}}{{end}}
{{rule}}
{{center (print "SALARY SLIP - " .Period.Label)}}
{{rule}}
Slip No       : {{.SettlementID}}
Employee      : {{.Trainer.Name}}
Employee ID   : {{.Trainer.ID}}
{{- if .Trainer.Designation}}
Designation   : {{.Trainer.Designation}}{{end}}
{{- if .Trainer.Phone}}
Phone         : {{.Trainer.Phone}}{{end}}
Period        : {{.PeriodRange.Start}} to {{.PeriodRange.End}}
Paid On       : {{.PaymentDate}} ({{.PayMode}})
{{rule}}
ATTENDANCE
{{row "Total Days" .TotalDays}}
{{row "Present Days" .PresentDays}}
{{row "Absent Days" .AbsentDays}}
{{row "Discount Days" .DiscountDays}}
{{row "Payable Days" .PayableDays}}
{{rule}}
EARNINGS
{{row "Basic Salary" (money .Basic)}}
{{row "Calculated Salary" (money .Calculated)}}
{{row (incentiveLabel .IncentiveType) (money .Incentive)}}
{{row "Gross Earnings" (money .Gross)}}
{{rule}}
DEDUCTIONS
{{- range .Deductions}}
{{row .Label (money .Amount)}}
{{- else}}
{{row "None" (money zero)}}
{{- end}}
{{row "Total Deductions" (money .TotalDeductions)}}
{{rule}}
{{row "NET PAYABLE" (money .NetPayable)}}
In words: {{.NetInWords}}
{{- if .Notes}}
Notes: {{.Notes}}{{end}}
{{rule}}
`

const slipWidth = 56

// Render writes the slip as fixed-width plain text.
func (s Slip) Render(w io.Writer) error {
	funcs := template.FuncMap{
		"rule": func() string { return strings.Repeat("-", slipWidth) },
		"zero": generic.ZeroMoney,
		"center": func(v string) string {
			if len(v) >= slipWidth {
				return v
			}
			return strings.Repeat(" ", (slipWidth-len(v))/2) + v
		},
		"row": func(label string, v any) string {
			return fmt.Sprintf("  %-30s %22v", label, v)
		},
		"money": func(a generic.Amount) string {
			return s.Gym.CurrencySymbol + " " + a.StringFixed()
		},
		"incentiveLabel": func(t IncentiveType) string {
			if t == IncentiveNone {
				return "Incentive"
			}
			return "Incentive (" + strings.ReplaceAll(string(t), "_", " ") + ")"
		},
	}
	tmpl, err := template.New("slip").Funcs(funcs).Parse(slipTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, s)
}

// =============================================================================
// AMOUNT IN WORDS - Indian numbering (thousand, lakh, crore)
// =============================================================================

var (
	ones = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// AmountInWords spells a currency amount rounded to paise, e.g.
// 128050.5 -> "One Lakh Twenty Eight Thousand Fifty Rupees and Fifty Paise Only".
func AmountInWords(a generic.Amount) string {
	v := a.Value.Abs().Round(2)
	rupees := v.IntPart()
	paise := v.Sub(decimal.NewFromInt(rupees)).Mul(decimal.NewFromInt(100)).IntPart()

	var b strings.Builder
	if a.Value.IsNegative() && !v.IsZero() {
		b.WriteString("Minus ")
	}
	b.WriteString(NumberInWords(rupees))
	b.WriteString(" Rupees")
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(NumberInWords(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}

// NumberInWords spells a non-negative integer using crore, lakh, thousand and
// hundred groupings.
func NumberInWords(n int64) string {
	if n <= 0 {
		return "Zero"
	}
	var parts []string
	if crore := n / 10000000; crore > 0 {
		parts = append(parts, NumberInWords(crore)+" Crore")
		n %= 10000000
	}
	if lakh := n / 100000; lakh > 0 {
		parts = append(parts, belowHundred(lakh)+" Lakh")
		n %= 100000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, belowHundred(thousand)+" Thousand")
		n %= 1000
	}
	if hundred := n / 100; hundred > 0 {
		parts = append(parts, ones[hundred]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}
