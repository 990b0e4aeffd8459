package membership_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
)

func snap(final, paid float64) *membership.Snapshot {
	f := money(final)
	balance := membership.ComputeBalance(f, money(paid))
	return &membership.Snapshot{
		FinalFees: f,
		TotalPaid: money(paid),
		Balance:   balance,
		IsSettled: membership.IsSettled(f, balance),
	}
}

func TestDefaultType_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		details membership.Details
		want    membership.Type
	}{
		{"no ledgers", membership.Details{}, ""},
		{"only PT", membership.Details{PT: snap(5000, 0)}, membership.TypePT},
		{"only Regular", membership.Details{Regular: snap(2000, 0)}, membership.TypeRegular},
		{"regular has nothing to pay", membership.Details{Regular: snap(0, 0), PT: snap(5000, 0)}, membership.TypePT},
		{"regular settled, PT pending", membership.Details{Regular: snap(2000, 2000), PT: snap(5000, 100)}, membership.TypePT},
		{"PT settled, regular pending", membership.Details{Regular: snap(2000, 500), PT: snap(5000, 5000)}, membership.TypeRegular},
		{"both pending", membership.Details{Regular: snap(2000, 0), PT: snap(5000, 0)}, membership.TypeRegular},
		{"both settled", membership.Details{Regular: snap(2000, 2000), PT: snap(5000, 5000)}, membership.TypeRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, membership.DefaultType(tt.details))
		})
	}
}

func TestCoordinate_Unloaded_UsesCachedLabelAsPlaceholder(t *testing.T) {
	// GIVEN: Details have not loaded yet
	var details generic.Loadable[membership.Details]

	sel := membership.Coordinate(details, "both")

	// THEN: Both types shown as placeholders, no default chosen
	assert.False(t, sel.Ready)
	assert.True(t, sel.Placeholder)
	assert.Equal(t, []membership.Type{membership.TypeRegular, membership.TypePT}, sel.AvailableTypes())
	assert.Equal(t, membership.Type(""), sel.DefaultType)
}

func TestCoordinate_Loaded_AuthoritativeWinsOverStaleLabel(t *testing.T) {
	// GIVEN: The cached label says "regular" but the member only holds PT
	details := generic.LoadedValue(membership.Details{PT: snap(5000, 0)})

	sel := membership.Coordinate(details, "regular")

	assert.True(t, sel.Ready)
	assert.False(t, sel.Placeholder)
	assert.Equal(t, []membership.Type{membership.TypePT}, sel.AvailableTypes())
	assert.Equal(t, membership.TypePT, sel.DefaultType)
}

func TestCoordinate_Failed_KeepsErrorAndPlaceholder(t *testing.T) {
	boom := errors.New("boom")
	sel := membership.Coordinate(generic.LoadFailed[membership.Details](boom), "pt")

	assert.False(t, sel.Ready)
	assert.ErrorIs(t, sel.Err, boom)
	assert.Equal(t, []membership.Type{membership.TypePT}, sel.AvailableTypes())
}

func TestOutstandingTypes(t *testing.T) {
	d := membership.Details{Regular: snap(2000, 2000), PT: snap(5000, 100)}
	assert.Equal(t, []membership.Type{membership.TypePT}, membership.OutstandingTypes(d))
}
