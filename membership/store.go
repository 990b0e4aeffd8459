package membership

import (
	"context"

	"github.com/warp/gym-settlement/generic"
)

// =============================================================================
// STORE - Persistence contract for membership data
// =============================================================================

// Store persists members, packages, ledgers and renewals.
//
// Writes that touch a ledger take the version the caller read. If the ledger
// changed in between, the write fails with generic.ErrConcurrentModification
// and nothing is persisted. This is what keeps two concurrent payments from
// both passing validation against the same stale balance.
type Store interface {
	SaveMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, id generic.MemberID) (*Member, error)

	SavePackage(ctx context.Context, p Package) error
	GetPackage(ctx context.Context, id generic.PackageID) (*Package, error)
	ListPackages(ctx context.Context) ([]Package, error)

	// CreateLedger stores a new ledger with its charges. There is at most one
	// ledger per (member, type); a second one fails with
	// generic.ErrAlreadyExists. Version starts at 1.
	CreateLedger(ctx context.Context, l Ledger) error

	// GetLedger returns the member's ledger of a type with its charges in term
	// order and its payments in date order. Returns generic.ErrNotFound when
	// the member has none.
	GetLedger(ctx context.Context, memberID generic.MemberID, t Type) (*Ledger, error)

	// AppendPayment adds a payment and bumps the ledger version.
	AppendPayment(ctx context.Context, ledgerID generic.LedgerID, expectedVersion int, p Payment) error

	// UpdatePayment edits amount, date, mode, next date and notes of one entry
	// in place and bumps the ledger version.
	UpdatePayment(ctx context.Context, ledgerID generic.LedgerID, expectedVersion int, p Payment) error

	// SetExtraDiscount replaces the owner-entered extra discount.
	SetExtraDiscount(ctx context.Context, ledgerID generic.LedgerID, expectedVersion int, extra generic.Amount) error

	// SaveRenewal stores the renewal record and appends its charge to ledger
	// r.LedgerID atomically, bumping the version. An expectedVersion of 0
	// means the member has no ledger of that type yet; one is created with c
	// as its first charge.
	SaveRenewal(ctx context.Context, r RenewalRecord, c Charge, expectedVersion int) error
	ListRenewals(ctx context.Context, memberID generic.MemberID) ([]RenewalRecord, error)
}
