package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [Start, End] range of dates: a membership term or a
// salary month.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Days returns the number of days in the period, both ends included.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// SALARY MONTH
// =============================================================================

// SalaryMonth identifies the calendar month a payroll settlement covers.
type SalaryMonth struct {
	Year  int
	Month time.Month
}

// ParseSalaryMonth parses "2006-01".
func ParseSalaryMonth(s string) (SalaryMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return SalaryMonth{}, fmt.Errorf("invalid salary month %q: %w", s, err)
	}
	return SalaryMonth{Year: t.Year(), Month: t.Month()}, nil
}

// TotalDays is the number of days in the month, 28..31.
func (m SalaryMonth) TotalDays() int { return DaysInMonth(m.Year, m.Month) }

// Period returns the first through last day of the month.
func (m SalaryMonth) Period() Period {
	return Period{Start: StartOfMonth(m.Year, m.Month), End: EndOfMonth(m.Year, m.Month)}
}

func (m SalaryMonth) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m SalaryMonth) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// Label is the human form used on documents, e.g. "March 2026".
func (m SalaryMonth) Label() string { return fmt.Sprintf("%s %d", m.Month, m.Year) }
