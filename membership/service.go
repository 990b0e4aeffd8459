/*
service.go - Membership fee workflows over a Store

PURPOSE:
  Orchestrates the read-validate-write cycle around the pure derivations:

    1. Check required selections (type, pay mode, date)
    2. Fetch the target ledger fresh from the store
    3. Derive its snapshot and validate the payment against it
    4. Persist with the version that was read (optimistic check)
    5. Re-derive the snapshot from the stored inputs and return it

  Step 4 is what makes concurrent submissions safe: two screens that both
  validated against the same balance cannot both write, because the second
  write sees a bumped version and fails with ErrConcurrentModification.

SEE ALSO:
  - ledger.go, validator.go, coordinator.go, renewal.go: the pure engine
  - store/sqlite: the production Store
*/
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/gym-settlement/generic"
)

// Service exposes membership fee operations.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a service. A nil logger is replaced by a no-op logger.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for "today" and timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() generic.TimePoint { return generic.DateOf(s.now()) }

// =============================================================================
// MEMBERS & ENROLMENT
// =============================================================================

// CreateMember stores a new member; an empty ID gets a generated one.
func (s *Service) CreateMember(ctx context.Context, m Member) (*Member, error) {
	if m.Name == "" {
		return nil, generic.MissingField("name")
	}
	if m.ID == "" {
		m.ID = generic.MemberID(uuid.NewString())
	}
	m.CreatedAt = s.now()
	if err := s.store.SaveMember(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save member: %w", err)
	}
	return &m, nil
}

// Enrol opens a ledger for the member on the given package, starting on start
// (today when zero). A member already holding that type gets
// generic.ErrAlreadyExists; further terms go through Renew.
func (s *Service) Enrol(ctx context.Context, memberID generic.MemberID, packageID generic.PackageID, start generic.TimePoint) (*Ledger, error) {
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	pkg, err := s.store.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = s.today()
	}
	term, err := PackageTerm(*pkg, start)
	if err != nil {
		return nil, err
	}

	now := s.now()
	l := Ledger{
		ID:       generic.LedgerID(uuid.NewString()),
		MemberID: memberID,
		Type:     pkg.MembershipType,
		Charges: []Charge{{
			ID:        generic.ChargeID(uuid.NewString()),
			Terms:     pkg.Terms(),
			Term:      term,
			CreatedAt: now,
		}},
		ExtraDiscount: generic.ZeroMoney(),
		Version:       1,
	}
	if _, err := Derive(l); err != nil {
		return nil, err
	}
	if err := s.store.CreateLedger(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	s.logger.Info("member enrolled",
		zap.String("member_id", string(memberID)),
		zap.String("type", string(l.Type)),
		zap.String("package_id", string(packageID)),
		zap.String("term", term.String()),
	)
	return &l, nil
}

// =============================================================================
// DETAILS & OVERVIEW
// =============================================================================

// Details loads the member's ledgers and derives their snapshots.
func (s *Service) Details(ctx context.Context, memberID generic.MemberID) (Details, error) {
	var d Details
	for _, t := range Types {
		l, err := s.store.GetLedger(ctx, memberID, t)
		if generic.IsNotFound(err) {
			continue
		}
		if err != nil {
			return Details{}, err
		}
		snap, err := Derive(*l)
		if err != nil {
			return Details{}, err
		}
		switch t {
		case TypeRegular:
			d.Regular = &snap
		case TypePT:
			d.PT = &snap
		}
	}
	return d, nil
}

// Overview is a member with their ledgers and the payment-screen selection.
// Outstanding lists the types with a balance still owed.
type Overview struct {
	Member      Member
	Details     Details
	Selection   Selection
	Outstanding []Type
}

// Overview returns the member with authoritative ledger details. A failure to
// load details is reported inside the selection rather than as an error, so
// the caller can still render the member with placeholder types.
func (s *Service) Overview(ctx context.Context, memberID generic.MemberID) (*Overview, error) {
	m, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var details generic.Loadable[Details]
	d, err := s.Details(ctx, memberID)
	if err != nil {
		s.logger.Warn("membership details unavailable",
			zap.String("member_id", string(memberID)), zap.Error(err))
		details = generic.LoadFailed[Details](err)
	} else {
		details = generic.LoadedValue(d)
	}

	return &Overview{
		Member:      *m,
		Details:     d,
		Selection:   Coordinate(details, m.CachedType),
		Outstanding: OutstandingTypes(d),
	}, nil
}

// Snapshot derives the ledger snapshot of one type.
func (s *Service) Snapshot(ctx context.Context, memberID generic.MemberID, t Type) (Snapshot, error) {
	l, err := s.store.GetLedger(ctx, memberID, t)
	if err != nil {
		return Snapshot{}, err
	}
	return Derive(*l)
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentInput is a payment entry as submitted by the owner.
type PaymentInput struct {
	Type            Type
	Amount          generic.Amount
	Date            *generic.TimePoint
	Mode            PayMode
	NextPaymentDate *generic.TimePoint
	Notes           string
	IdempotencyKey  string
}

// CheckRequired reports the first missing selection.
func (in PaymentInput) CheckRequired() error {
	switch {
	case in.Type == "":
		return generic.MissingField("membership_type")
	case !in.Type.Valid():
		return generic.NewFieldError(generic.ErrMissingRequiredField, "membership_type", "unknown membership type")
	case in.Mode == "":
		return generic.MissingField("pay_mode")
	case !in.Mode.Valid():
		return generic.NewFieldError(generic.ErrMissingRequiredField, "pay_mode", "unknown pay mode")
	case in.Date == nil || in.Date.IsZero():
		return generic.MissingField("payment_date")
	}
	return nil
}

// CheckPayment validates a candidate amount against a freshly read ledger
// without writing anything. editing is "" for a new payment.
func (s *Service) CheckPayment(ctx context.Context, memberID generic.MemberID, t Type, amount generic.Amount, editing generic.PaymentID) (ValidationResult, error) {
	l, err := s.store.GetLedger(ctx, memberID, t)
	if err != nil {
		return ValidationResult{}, err
	}
	return ValidateAgainstLedger(*l, amount, editing)
}

// RecordPayment validates and appends a payment to the ledger of in.Type.
func (s *Service) RecordPayment(ctx context.Context, memberID generic.MemberID, in PaymentInput) (*Payment, Snapshot, error) {
	if err := in.CheckRequired(); err != nil {
		return nil, Snapshot{}, err
	}

	l, err := s.store.GetLedger(ctx, memberID, in.Type)
	if err != nil {
		return nil, Snapshot{}, err
	}

	result, err := ValidateAgainstLedger(*l, in.Amount, "")
	if err != nil {
		return nil, Snapshot{}, err
	}
	if err := result.Err(); err != nil {
		s.logger.Debug("payment rejected",
			zap.String("member_id", string(memberID)),
			zap.String("type", string(in.Type)),
			zap.String("amount", in.Amount.String()),
			zap.String("max_allowed", result.MaxAllowed.String()),
		)
		return nil, Snapshot{}, err
	}

	p := Payment{
		ID:              generic.PaymentID(uuid.NewString()),
		Amount:          in.Amount,
		Date:            *in.Date,
		Mode:            in.Mode,
		NextPaymentDate: in.NextPaymentDate,
		Notes:           in.Notes,
		IdempotencyKey:  in.IdempotencyKey,
		CreatedAt:       s.now(),
	}
	if err := s.store.AppendPayment(ctx, l.ID, l.Version, p); err != nil {
		if generic.IsRetryable(err) {
			s.logger.Warn("payment lost optimistic check",
				zap.String("ledger_id", string(l.ID)), zap.Int("version", l.Version))
		}
		return nil, Snapshot{}, err
	}

	snap, err := s.Snapshot(ctx, memberID, in.Type)
	if err != nil {
		return nil, Snapshot{}, err
	}
	s.logger.Info("payment recorded",
		zap.String("member_id", string(memberID)),
		zap.String("ledger_id", string(l.ID)),
		zap.String("amount", p.Amount.String()),
		zap.String("balance", snap.Balance.String()),
	)
	return &p, snap, nil
}

// EditPayment changes one existing entry. The entry's old amount is excluded
// from the total before validating the new one.
func (s *Service) EditPayment(ctx context.Context, memberID generic.MemberID, paymentID generic.PaymentID, in PaymentInput) (*Payment, Snapshot, error) {
	if err := in.CheckRequired(); err != nil {
		return nil, Snapshot{}, err
	}

	l, err := s.store.GetLedger(ctx, memberID, in.Type)
	if err != nil {
		return nil, Snapshot{}, err
	}

	var existing *Payment
	for i := range l.Payments {
		if l.Payments[i].ID == paymentID {
			existing = &l.Payments[i]
			break
		}
	}
	if existing == nil {
		return nil, Snapshot{}, fmt.Errorf("payment %s: %w", paymentID, generic.ErrNotFound)
	}

	result, err := ValidateAgainstLedger(*l, in.Amount, paymentID)
	if err != nil {
		return nil, Snapshot{}, err
	}
	if err := result.Err(); err != nil {
		return nil, Snapshot{}, err
	}

	updated := *existing
	updated.Amount = in.Amount
	updated.Date = *in.Date
	updated.Mode = in.Mode
	updated.NextPaymentDate = in.NextPaymentDate
	updated.Notes = in.Notes

	if err := s.store.UpdatePayment(ctx, l.ID, l.Version, updated); err != nil {
		return nil, Snapshot{}, err
	}

	snap, err := s.Snapshot(ctx, memberID, in.Type)
	if err != nil {
		return nil, Snapshot{}, err
	}
	return &updated, snap, nil
}

// SetExtraDiscount replaces the ledger's extra discount and returns the
// re-derived snapshot.
func (s *Service) SetExtraDiscount(ctx context.Context, memberID generic.MemberID, t Type, extra generic.Amount) (Snapshot, error) {
	if extra.IsNegative() {
		return Snapshot{}, generic.NewFieldError(generic.ErrInvalidAmount, "extra_discount", "must not be negative")
	}
	l, err := s.store.GetLedger(ctx, memberID, t)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.store.SetExtraDiscount(ctx, l.ID, l.Version, extra); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(ctx, memberID, t)
}

// =============================================================================
// RENEWAL
// =============================================================================

// RenewalInput selects the package to renew onto.
type RenewalInput struct {
	MemberID  generic.MemberID
	PackageID generic.PackageID
}

// Renew classifies the renewal against the current expiry of the package's
// membership type and appends the new term as a charge on that type's ledger.
// Whatever is still owed on earlier terms stays on the ledger. Classification
// is recorded but never blocks the renewal.
func (s *Service) Renew(ctx context.Context, in RenewalInput) (*RenewalRecord, Snapshot, error) {
	if in.PackageID == "" {
		return nil, Snapshot{}, generic.MissingField("package_id")
	}
	if _, err := s.store.GetMember(ctx, in.MemberID); err != nil {
		return nil, Snapshot{}, err
	}
	pkg, err := s.store.GetPackage(ctx, in.PackageID)
	if err != nil {
		return nil, Snapshot{}, err
	}

	var currentExpiry *generic.TimePoint
	l, err := s.store.GetLedger(ctx, in.MemberID, pkg.MembershipType)
	switch {
	case err == nil:
		end := l.CurrentTerm().End
		currentExpiry = &end
	case generic.IsNotFound(err):
		l = &Ledger{
			ID:            generic.LedgerID(uuid.NewString()),
			MemberID:      in.MemberID,
			Type:          pkg.MembershipType,
			ExtraDiscount: generic.ZeroMoney(),
		}
	default:
		return nil, Snapshot{}, err
	}

	today := s.today()
	term, err := RenewalTerm(*pkg, currentExpiry, today)
	if err != nil {
		return nil, Snapshot{}, err
	}

	now := s.now()
	charge := Charge{
		ID:        generic.ChargeID(uuid.NewString()),
		Terms:     pkg.Terms(),
		Term:      term,
		CreatedAt: now,
	}
	next := *l
	next.Charges = append(append([]Charge(nil), l.Charges...), charge)
	if _, err := Derive(next); err != nil {
		return nil, Snapshot{}, err
	}

	rec := RenewalRecord{
		ID:              uuid.NewString(),
		MemberID:        in.MemberID,
		MembershipType:  pkg.MembershipType,
		PackageID:       pkg.ID,
		PreviousExpiry:  currentExpiry,
		RenewedOn:       today,
		DaysUntilExpiry: DaysUntilExpiry(currentExpiry, today),
		RenewalType:     ClassifyRenewal(currentExpiry, today),
		Term:            term,
		LedgerID:        l.ID,
		CreatedAt:       now,
	}
	if err := s.store.SaveRenewal(ctx, rec, charge, l.Version); err != nil {
		return nil, Snapshot{}, fmt.Errorf("failed to save renewal: %w", err)
	}

	snap, err := s.Snapshot(ctx, in.MemberID, pkg.MembershipType)
	if err != nil {
		return nil, Snapshot{}, err
	}

	s.logger.Info("membership renewed",
		zap.String("member_id", string(in.MemberID)),
		zap.String("renewal_type", string(rec.RenewalType)),
		zap.Int("days_until_expiry", rec.DaysUntilExpiry),
		zap.String("term", term.String()),
		zap.String("balance", snap.Balance.StringFixed()),
	)
	return &rec, snap, nil
}
