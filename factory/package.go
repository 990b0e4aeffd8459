/*
Package factory provides JSON to Go package conversion.

PURPOSE:
  Converts JSON membership package definitions into membership.Package.
  The gym owner configures plans from the admin screen; the factory applies
  defaults and rejects definitions the fee ledger could not settle.

JSON SCHEMA:
  {
    "id": "regular-quarterly",
    "name": "Regular Quarterly",
    "membership_type": "REGULAR",
    "fees": "4500",
    "discount_type": "PERCENTAGE",
    "max_discount": 10,
    "duration_in_months": 3
  }

  fees and max_discount accept JSON numbers or decimal strings.
  Exactly one of duration_in_days / duration_in_months must be set.

DEFAULTS:
  - discount_type: PERCENTAGE
  - max_discount: 0

USAGE:
  f := NewPackageFactory()
  pkg, err := f.ParsePackage(membership.QuarterlyRegularJSON("regular-q", 4500, 10))

SEE ALSO:
  - membership/types.go: Package type definition
  - membership/packages.go: Preset package definitions
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PackageJSON is the JSON representation of a package.
type PackageJSON struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	MembershipType   string          `json:"membership_type"`
	Fees             decimal.Decimal `json:"fees"`
	DiscountType     string          `json:"discount_type,omitempty"`
	MaxDiscount      decimal.Decimal `json:"max_discount"`
	DurationInDays   int             `json:"duration_in_days,omitempty"`
	DurationInMonths int             `json:"duration_in_months,omitempty"`
}

// =============================================================================
// PACKAGE FACTORY
// =============================================================================

// PackageFactory converts JSON packages to Go structs.
type PackageFactory struct{}

func NewPackageFactory() *PackageFactory {
	return &PackageFactory{}
}

// ParsePackage parses and validates a JSON package definition.
func (f *PackageFactory) ParsePackage(jsonStr string) (*membership.Package, error) {
	var pj PackageJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse package JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PackageJSON to membership.Package.
func (f *PackageFactory) FromJSON(pj PackageJSON) (*membership.Package, error) {
	if pj.ID == "" {
		return nil, generic.MissingField("id")
	}
	if pj.Name == "" {
		return nil, generic.MissingField("name")
	}
	mt, ok := membership.ParseType(pj.MembershipType)
	if !ok {
		return nil, generic.NewFieldError(generic.ErrMissingRequiredField, "membership_type",
			fmt.Sprintf("unknown membership type %q", pj.MembershipType))
	}

	dt, err := parseDiscountType(pj.DiscountType)
	if err != nil {
		return nil, err
	}

	if pj.Fees.IsNegative() {
		return nil, generic.NewFieldError(generic.ErrInvalidAmount, "fees", "must not be negative")
	}
	if pj.MaxDiscount.IsNegative() {
		return nil, generic.NewFieldError(generic.ErrInvalidAmount, "max_discount", "must not be negative")
	}
	if dt == membership.DiscountPercentage && pj.MaxDiscount.GreaterThan(decimal.NewFromInt(100)) {
		return nil, generic.NewFieldError(generic.ErrInvalidAmount, "max_discount", "percentage must be between 0 and 100")
	}

	if err := checkDuration(pj.DurationInDays, pj.DurationInMonths); err != nil {
		return nil, err
	}

	maxDiscount := generic.MoneyFromDecimal(pj.MaxDiscount)
	if dt == membership.DiscountPercentage {
		maxDiscount = generic.Amount{Value: pj.MaxDiscount, Unit: generic.UnitPercent}
	}

	return &membership.Package{
		ID:               generic.PackageID(pj.ID),
		Name:             pj.Name,
		MembershipType:   mt,
		Fees:             generic.MoneyFromDecimal(pj.Fees),
		DiscountType:     dt,
		MaxDiscount:      maxDiscount,
		DurationInDays:   pj.DurationInDays,
		DurationInMonths: pj.DurationInMonths,
	}, nil
}

// ToJSON converts a Package to PackageJSON.
func (f *PackageFactory) ToJSON(p membership.Package) PackageJSON {
	return PackageJSON{
		ID:               string(p.ID),
		Name:             p.Name,
		MembershipType:   string(p.MembershipType),
		Fees:             p.Fees.Value,
		DiscountType:     string(p.DiscountType),
		MaxDiscount:      p.MaxDiscount.Value,
		DurationInDays:   p.DurationInDays,
		DurationInMonths: p.DurationInMonths,
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDiscountType(s string) (membership.DiscountType, error) {
	switch s {
	case "", "PERCENTAGE", "percentage":
		return membership.DiscountPercentage, nil
	case "FIXED", "fixed":
		return membership.DiscountFixed, nil
	default:
		return "", generic.NewFieldError(generic.ErrInvalidAmount, "discount_type",
			fmt.Sprintf("unknown discount type %q", s))
	}
}

func checkDuration(days, months int) error {
	if days < 0 || months < 0 {
		return generic.NewFieldError(generic.ErrInvalidAmount, "duration", "must not be negative")
	}
	switch {
	case days > 0 && months > 0:
		return generic.NewFieldError(generic.ErrMissingRequiredField, "duration",
			"set only one of duration_in_days and duration_in_months")
	case days == 0 && months == 0:
		return generic.NewFieldError(generic.ErrMissingRequiredField, "duration",
			"one of duration_in_days and duration_in_months is required")
	}
	return nil
}
