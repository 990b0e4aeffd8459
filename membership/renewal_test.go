package membership_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
)

func TestClassifyRenewal(t *testing.T) {
	today := generic.NewTimePoint(2026, time.March, 15)
	at := func(days int) *generic.TimePoint {
		tp := today.AddDays(days)
		return &tp
	}

	tests := []struct {
		name   string
		expiry *generic.TimePoint
		days   int
		want   membership.RenewalType
	}{
		{"expired yesterday", at(-1), -1, membership.RenewalLate},
		{"expires today", at(0), 0, membership.RenewalStandard},
		{"in 3 days", at(3), 3, membership.RenewalStandard},
		{"in 7 days", at(7), 7, membership.RenewalStandard},
		{"in 8 days", at(8), 8, membership.RenewalEarly},
		{"in 10 days", at(10), 10, membership.RenewalEarly},
		{"no expiry", nil, -1, membership.RenewalLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.days, membership.DaysUntilExpiry(tt.expiry, today))
			assert.Equal(t, tt.want, membership.ClassifyRenewal(tt.expiry, today))
		})
	}
}

func TestRenewalTerm_ContinuesOrRestarts(t *testing.T) {
	pkg := membership.Package{ID: "pt-30", DurationInDays: 30}
	today := generic.NewTimePoint(2026, time.March, 15)

	// STANDARD: continues the day after the current expiry
	expiry := today.AddDays(3)
	term, err := membership.RenewalTerm(pkg, &expiry, today)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-19", term.Start.String())
	assert.Equal(t, "2026-04-17", term.End.String())

	// LATE: starts today
	lapsed := today.AddDays(-4)
	term, err = membership.RenewalTerm(pkg, &lapsed, today)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", term.Start.String())
}

func TestPackageTerm_Months(t *testing.T) {
	pkg := membership.Package{ID: "q", DurationInMonths: 3}
	term, err := membership.PackageTerm(pkg, generic.NewTimePoint(2026, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, "2026-04-09", term.End.String())

	_, err = membership.PackageTerm(membership.Package{ID: "none"}, generic.NewTimePoint(2026, 1, 1))
	assert.Error(t, err)
}
