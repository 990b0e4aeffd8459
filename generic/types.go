/*
Package generic provides the domain-agnostic building blocks of the settlement engine.

PURPOSE:
  Membership fee ledgers and trainer payroll settlements are the same shape of
  problem: a nominal charge, a set of reductions, a set of contributions, and a
  derived outstanding figure. This package holds the pieces both domains share
  so that neither re-implements money arithmetic, date handling or error kinds.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., Rs. 8500, 27 days)
  - Unit: currency, days or percent
  - ClampZero: the engine floors derived figures at zero in several places

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Derivation: No running totals are stored; every figure is recomputed
  3. Type Safety: Strong typing for IDs prevents mixing member/ledger IDs

USAGE:
  fees := generic.NewMoney(10000)
  discount := fees.Mul(decimal.NewFromInt(10)).Div(decimal.NewFromInt(100))
  final := fees.Sub(discount).ClampZero()

SEE ALSO:
  - errors.go: Rule-violation kinds carrying exact limits
  - time.go: Day-granular dates and month arithmetic
  - loadable.go: Unloaded / Loaded / Failed tri-state
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitCurrency Unit = "currency"
	UnitDays     Unit = "days"
	UnitPercent  Unit = "percent"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// NewMoney is shorthand for a currency amount.
func NewMoney(value float64) Amount { return NewAmount(value, UnitCurrency) }

// MoneyFromDecimal wraps an already-parsed decimal as currency.
func MoneyFromDecimal(d decimal.Decimal) Amount { return Amount{Value: d, Unit: UnitCurrency} }

// ZeroMoney is the currency zero.
func ZeroMoney() Amount { return Amount{Value: decimal.Zero, Unit: UnitCurrency} }

// ParseMoney parses a decimal string ("8500", "1234.50") as currency.
func ParseMoney(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return MoneyFromDecimal(d), nil
}

// ParseAmount parses a decimal string in the given unit.
func ParseAmount(s string, unit Unit) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Unit: unit}, nil
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }

// ClampZero floors the amount at zero: max(0, a).
func (a Amount) ClampZero() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// Round returns the amount rounded half-away-from-zero to places decimals.
// Only use for display or persistence; never feed a rounded value back into
// a derivation.
func (a Amount) Round(places int32) Amount {
	return Amount{Value: a.Value.Round(places), Unit: a.Unit}
}

// StringFixed formats the value with exactly two decimals.
func (a Amount) StringFixed() string { return a.Value.StringFixed(2) }

func (a Amount) String() string { return a.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type LedgerID string
type ChargeID string
type PaymentID string
type PackageID string
type TrainerID string
type SettlementID string
