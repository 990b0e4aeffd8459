package membership

import (
	"fmt"

	"github.com/warp/gym-settlement/generic"
)

// EarlyRenewalWindowDays is the largest gap to expiry still counted as a
// standard renewal.
const EarlyRenewalWindowDays = 7

// DaysUntilExpiry returns currentExpiry - today in whole days. A nil expiry
// means already expired and reports -1.
func DaysUntilExpiry(currentExpiry *generic.TimePoint, today generic.TimePoint) int {
	if currentExpiry == nil || currentExpiry.IsZero() {
		return -1
	}
	return generic.DaysBetween(today, *currentExpiry)
}

// ClassifyRenewal labels a renewal by how far today is from the current expiry.
//
//	days < 0  -> LATE
//	days > 7  -> EARLY
//	otherwise -> STANDARD
func ClassifyRenewal(currentExpiry *generic.TimePoint, today generic.TimePoint) RenewalType {
	days := DaysUntilExpiry(currentExpiry, today)
	switch {
	case days < 0:
		return RenewalLate
	case days > EarlyRenewalWindowDays:
		return RenewalEarly
	default:
		return RenewalStandard
	}
}

// RenewalTerm computes the term a renewal buys. Late renewals start today;
// early and standard renewals continue from the day after the current expiry.
func RenewalTerm(pkg Package, currentExpiry *generic.TimePoint, today generic.TimePoint) (generic.Period, error) {
	start := today
	if ClassifyRenewal(currentExpiry, today) != RenewalLate {
		start = currentExpiry.AddDays(1)
	}
	return PackageTerm(pkg, start)
}

// PackageTerm returns the inclusive term that starts on start.
func PackageTerm(pkg Package, start generic.TimePoint) (generic.Period, error) {
	switch {
	case pkg.DurationInDays > 0 && pkg.DurationInMonths > 0:
		return generic.Period{}, fmt.Errorf("package %s: both duration fields set", pkg.ID)
	case pkg.DurationInDays > 0:
		return generic.Period{Start: start, End: start.AddDays(pkg.DurationInDays - 1)}, nil
	case pkg.DurationInMonths > 0:
		return generic.Period{Start: start, End: start.AddMonths(pkg.DurationInMonths).AddDays(-1)}, nil
	default:
		return generic.Period{}, fmt.Errorf("package %s: no duration set", pkg.ID)
	}
}
