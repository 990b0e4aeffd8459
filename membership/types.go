// Package membership implements gym membership fee settlement.
// It uses the generic engine for money and dates and adds the fee-specific
// rules: package discounts, per-type fee ledgers, payment caps and renewals.
package membership

import (
	"time"

	"github.com/warp/gym-settlement/generic"
)

// =============================================================================
// MEMBERSHIP TYPE
// =============================================================================

// Type is one of the two independent tracks a member may hold.
type Type string

const (
	TypeRegular Type = "REGULAR"
	TypePT      Type = "PT"
)

// Types lists every membership type in display order.
var Types = []Type{TypeRegular, TypePT}

func (t Type) Valid() bool { return t == TypeRegular || t == TypePT }

// ParseType accepts the canonical names plus the lowercase forms the UI sends.
func ParseType(s string) (Type, bool) {
	switch s {
	case "REGULAR", "regular", "Regular":
		return TypeRegular, true
	case "PT", "pt", "personal_training":
		return TypePT, true
	default:
		return "", false
	}
}

// =============================================================================
// PACKAGE - Reference data configured by the gym owner
// =============================================================================

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Package is an immutable membership plan.
// Exactly one of DurationInDays / DurationInMonths is populated.
type Package struct {
	ID               generic.PackageID
	Name             string
	MembershipType   Type
	Fees             generic.Amount
	DiscountType     DiscountType
	MaxDiscount      generic.Amount // percentage 0-100 when PERCENTAGE, currency when FIXED
	DurationInDays   int
	DurationInMonths int
}

// Terms is the charge portion of a package, copied into a ledger charge so
// later package edits don't silently rewrite what was already billed.
type Terms struct {
	PackageID    generic.PackageID
	Fees         generic.Amount
	DiscountType DiscountType
	MaxDiscount  generic.Amount
}

func (p Package) Terms() Terms {
	return Terms{
		PackageID:    p.ID,
		Fees:         p.Fees,
		DiscountType: p.DiscountType,
		MaxDiscount:  p.MaxDiscount,
	}
}

// =============================================================================
// PAYMENT
// =============================================================================

type PayMode string

const (
	PayCash         PayMode = "CASH"
	PayUPI          PayMode = "UPI"
	PayCard         PayMode = "CARD"
	PayBankTransfer PayMode = "BANK_TRANSFER"
	PayCheque       PayMode = "CHEQUE"
)

func (m PayMode) Valid() bool {
	switch m {
	case PayCash, PayUPI, PayCard, PayBankTransfer, PayCheque:
		return true
	}
	return false
}

// Payment is one entry of a ledger. Amount is always positive.
type Payment struct {
	ID              generic.PaymentID
	Amount          generic.Amount
	Date            generic.TimePoint
	Mode            PayMode
	NextPaymentDate *generic.TimePoint
	Notes           string
	IdempotencyKey  string
	CreatedAt       time.Time
}

// =============================================================================
// LEDGER - One per (member, membership type)
// =============================================================================

// Charge is one term billed on a ledger. Enrolment opens the ledger with its
// first charge and every renewal appends another.
type Charge struct {
	ID        generic.ChargeID
	Terms     Terms
	Term      generic.Period
	CreatedAt time.Time
}

// Ledger holds the stored inputs of a membership fee ledger. Nothing derived
// lives here; see Snapshot for the computed figures.
// Charges are kept in term order and are never removed.
type Ledger struct {
	ID            generic.LedgerID
	MemberID      generic.MemberID
	Type          Type
	Charges       []Charge
	ExtraDiscount generic.Amount
	Payments      []Payment
	Version       int
}

// CurrentTerm is the term of the latest charge, zero for an empty ledger.
func (l Ledger) CurrentTerm() generic.Period {
	if len(l.Charges) == 0 {
		return generic.Period{}
	}
	return l.Charges[len(l.Charges)-1].Term
}

// =============================================================================
// MEMBER
// =============================================================================

// Member aggregates zero, one or two ledgers.
// CachedType is the label stored on the member record; it can be stale and is
// only a placeholder until ledgers are loaded.
type Member struct {
	ID         generic.MemberID
	Name       string
	Phone      string
	CachedType string
	CreatedAt  time.Time
}

// =============================================================================
// RENEWAL
// =============================================================================

type RenewalType string

const (
	RenewalEarly    RenewalType = "EARLY"
	RenewalStandard RenewalType = "STANDARD"
	RenewalLate     RenewalType = "LATE"
)

// RenewalRecord is persisted when a membership is renewed. The type is
// informational metadata only.
type RenewalRecord struct {
	ID              string
	MemberID        generic.MemberID
	MembershipType  Type
	PackageID       generic.PackageID
	PreviousExpiry  *generic.TimePoint
	RenewedOn       generic.TimePoint
	DaysUntilExpiry int
	RenewalType     RenewalType
	Term            generic.Period
	LedgerID        generic.LedgerID
	CreatedAt       time.Time
}
