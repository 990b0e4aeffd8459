/*
coordinator.go - Regular + PT ledger coordination

PURPOSE:
  A member may hold a Regular ledger, a PT ledger, or both. Each has its own
  balance and a payment always lands on exactly one of them; the two balances
  are never summed into a single cap.

  The coordinator answers two questions for the payment screen:
    1. Which membership types should be offered? (strictly from ledger presence)
    2. Which type should be pre-selected for a new payment?

AUTHORITATIVE vs CACHED:
  The member record carries a cached type label ("regular", "pt", "both")
  that may be stale. It is used only as a placeholder while membership
  details are still loading. Once details are loaded they always win, and no
  default type is chosen until then.

DEFAULT TYPE PRECEDENCE (both ledgers present):
  1. Regular has nothing to pay, PT does      -> PT
  2. Regular settled, PT not                  -> PT
  3. PT settled, Regular not                  -> Regular
  4. Otherwise                                -> Regular

SEE ALSO:
  - ledger.go: Snapshot, IsSettled
  - validator.go: the cap applied to whichever ledger is chosen
*/
package membership

import (
	"strings"

	"github.com/warp/gym-settlement/generic"
)

// Details is the authoritative membership-details answer: the snapshot of
// each ledger the member currently holds, nil when absent.
type Details struct {
	Regular *Snapshot
	PT      *Snapshot
}

// For returns the snapshot of the given type, or nil.
func (d Details) For(t Type) *Snapshot {
	switch t {
	case TypeRegular:
		return d.Regular
	case TypePT:
		return d.PT
	}
	return nil
}

// Selection is what the payment screen renders.
type Selection struct {
	// Ready is false until authoritative details are loaded.
	Ready bool

	HasRegular bool
	HasPT      bool

	// DefaultType is empty while not Ready or when the member has no ledger.
	DefaultType Type

	// Placeholder is true when HasRegular/HasPT come from the cached label.
	Placeholder bool

	Err error
}

// AvailableTypes lists the types to expose, in display order.
func (s Selection) AvailableTypes() []Type {
	var out []Type
	if s.HasRegular {
		out = append(out, TypeRegular)
	}
	if s.HasPT {
		out = append(out, TypePT)
	}
	return out
}

// Coordinate resolves the selection from the loadable details and the cached
// member-type label.
func Coordinate(details generic.Loadable[Details], cachedLabel string) Selection {
	d, ok := details.Get()
	if !ok {
		hasRegular, hasPT := parseCachedLabel(cachedLabel)
		return Selection{
			Ready:       false,
			HasRegular:  hasRegular,
			HasPT:       hasPT,
			Placeholder: true,
			Err:         details.Err(),
		}
	}

	return Selection{
		Ready:       true,
		HasRegular:  d.Regular != nil,
		HasPT:       d.PT != nil,
		DefaultType: DefaultType(d),
	}
}

// DefaultType picks the ledger a new payment should target.
func DefaultType(d Details) Type {
	switch {
	case d.Regular == nil && d.PT == nil:
		return ""
	case d.Regular == nil:
		return TypePT
	case d.PT == nil:
		return TypeRegular
	}

	regular, pt := d.Regular, d.PT
	switch {
	case regular.FinalFees.IsZero() && pt.FinalFees.IsPositive():
		return TypePT
	case regular.IsSettled && !pt.IsSettled:
		return TypePT
	case pt.IsSettled && !regular.IsSettled:
		return TypeRegular
	default:
		return TypeRegular
	}
}

// OutstandingTypes lists the types that still have a balance.
func OutstandingTypes(d Details) []Type {
	var out []Type
	for _, t := range Types {
		if s := d.For(t); s != nil && s.Balance.IsPositive() {
			out = append(out, t)
		}
	}
	return out
}

func parseCachedLabel(label string) (hasRegular, hasPT bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	switch l {
	case "both", "regular+pt", "regular_pt":
		return true, true
	case "pt", "personal_training":
		return false, true
	case "regular":
		return true, false
	}
	return false, false
}
