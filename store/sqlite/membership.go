package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
)

var _ membership.Store = (*Store)(nil)

// =============================================================================
// MEMBERS
// =============================================================================

// SaveMember inserts or updates a member.
func (s *Store) SaveMember(ctx context.Context, m membership.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, name, phone, cached_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			cached_type = excluded.cached_type
	`, m.ID, m.Name, nullString(m.Phone), nullString(m.CachedType), formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by ID.
func (s *Store) GetMember(ctx context.Context, id generic.MemberID) (*membership.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var m membership.Member
	var phone, cached sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, phone, cached_type, created_at FROM members WHERE id = ?",
		id,
	).Scan(&m.ID, &m.Name, &phone, &cached, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	m.Phone = phone.String
	m.CachedType = cached.String
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

// =============================================================================
// PACKAGES
// =============================================================================

// SavePackage inserts or replaces a package. Existing ledger charges keep the
// terms they were billed with.
func (s *Store) SavePackage(ctx context.Context, p membership.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO packages
		(id, name, membership_type, fees, discount_type, max_discount, max_discount_unit,
		 duration_days, duration_months, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Name, p.MembershipType,
		p.Fees.Value.String(), p.DiscountType,
		p.MaxDiscount.Value.String(), string(p.MaxDiscount.Unit),
		p.DurationInDays, p.DurationInMonths,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save package: %w", err)
	}
	return nil
}

const packageColumns = `id, name, membership_type, fees, discount_type, max_discount, max_discount_unit,
	duration_days, duration_months`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (membership.Package, error) {
	var p membership.Package
	var fees, maxDiscount, maxUnit string
	err := row.Scan(&p.ID, &p.Name, &p.MembershipType, &fees, &p.DiscountType,
		&maxDiscount, &maxUnit, &p.DurationInDays, &p.DurationInMonths)
	if err != nil {
		return p, err
	}
	if p.Fees, err = parseMoney(fees); err != nil {
		return p, err
	}
	if p.MaxDiscount, err = parseAmount(maxDiscount, maxUnit); err != nil {
		return p, err
	}
	return p, nil
}

// GetPackage retrieves a package by ID.
func (s *Store) GetPackage(ctx context.Context, id generic.PackageID) (*membership.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+packageColumns+" FROM packages WHERE id = ?", id)
	p, err := scanPackage(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("package %s: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPackages returns all packages ordered by type then name.
func (s *Store) ListPackages(ctx context.Context) ([]membership.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+packageColumns+" FROM packages ORDER BY membership_type DESC, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pkgs []membership.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

// =============================================================================
// LEDGERS
// =============================================================================

func insertLedger(ctx context.Context, db execer, l membership.Ledger) error {
	extra := l.ExtraDiscount
	if extra.Unit == "" {
		extra = generic.ZeroMoney()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledgers (id, member_id, membership_type, extra_discount, version, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
	`, l.ID, l.MemberID, l.Type, extra.Value.String(), formatTime(time.Now()))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%s ledger for member %s: %w", l.Type, l.MemberID, generic.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	for _, c := range l.Charges {
		if err := insertCharge(ctx, db, l.ID, c); err != nil {
			return err
		}
	}
	return nil
}

func insertCharge(ctx context.Context, db execer, ledgerID generic.LedgerID, c membership.Charge) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_charges
		(id, ledger_id, package_id, fees, discount_type, max_discount, max_discount_unit,
		 term_start, term_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, ledgerID, c.Terms.PackageID,
		c.Terms.Fees.Value.String(), c.Terms.DiscountType,
		c.Terms.MaxDiscount.Value.String(), string(c.Terms.MaxDiscount.Unit),
		c.Term.Start.String(), c.Term.End.String(),
		formatTime(createdAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("charge %s: %w", c.ID, generic.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to add charge: %w", err)
	}
	return nil
}

// CreateLedger stores a new ledger with its charges. A second ledger for the
// same (member, type) is rejected with generic.ErrAlreadyExists.
func (s *Store) CreateLedger(ctx context.Context, l membership.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertLedger(ctx, tx, l); err != nil {
		return err
	}
	return tx.Commit()
}

// GetLedger loads the member's ledger of a type with its charges and payments.
func (s *Store) GetLedger(ctx context.Context, memberID generic.MemberID, t membership.Type) (*membership.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var l membership.Ledger
	var extra string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, membership_type, extra_discount, version
		FROM ledgers
		WHERE member_id = ? AND membership_type = ?
	`, memberID, t).Scan(&l.ID, &l.MemberID, &l.Type, &extra, &l.Version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s ledger for member %s: %w", t, memberID, generic.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if l.ExtraDiscount, err = parseMoney(extra); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", l.ID, err)
	}

	if l.Charges, err = s.loadCharges(ctx, l.ID); err != nil {
		return nil, err
	}
	if l.Payments, err = s.loadPayments(ctx, l.ID); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) loadCharges(ctx context.Context, ledgerID generic.LedgerID) ([]membership.Charge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, package_id, fees, discount_type, max_discount, max_discount_unit,
		       term_start, term_end, created_at
		FROM ledger_charges
		WHERE ledger_id = ?
		ORDER BY term_start ASC, created_at ASC
	`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query charges: %w", err)
	}
	defer rows.Close()

	var charges []membership.Charge
	for rows.Next() {
		var c membership.Charge
		var fees, maxDiscount, maxUnit, start, end, createdAt string
		if err := rows.Scan(&c.ID, &c.Terms.PackageID, &fees, &c.Terms.DiscountType,
			&maxDiscount, &maxUnit, &start, &end, &createdAt); err != nil {
			return nil, err
		}
		if c.Terms.Fees, err = parseMoney(fees); err != nil {
			return nil, fmt.Errorf("charge %s: %w", c.ID, err)
		}
		if c.Terms.MaxDiscount, err = parseAmount(maxDiscount, maxUnit); err != nil {
			return nil, fmt.Errorf("charge %s: %w", c.ID, err)
		}
		if c.Term.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if c.Term.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (s *Store) loadPayments(ctx context.Context, ledgerID generic.LedgerID) ([]membership.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, paid_on, pay_mode, next_payment_date, notes, idempotency_key, created_at
		FROM payments
		WHERE ledger_id = ?
		ORDER BY paid_on ASC, created_at ASC
	`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []membership.Payment
	for rows.Next() {
		var p membership.Payment
		var amount, paidOn, createdAt string
		var next, notes, key sql.NullString
		if err := rows.Scan(&p.ID, &amount, &paidOn, &p.Mode, &next, &notes, &key, &createdAt); err != nil {
			return nil, err
		}
		if p.Amount, err = parseMoney(amount); err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		if p.Date, err = generic.ParseDate(paidOn); err != nil {
			return nil, err
		}
		if p.NextPaymentDate, err = parseNullDate(next); err != nil {
			return nil, err
		}
		p.Notes = notes.String
		p.IdempotencyKey = key.String
		p.CreatedAt = parseTime(createdAt)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// LEDGER WRITES (version-checked)
// =============================================================================

// AppendPayment inserts a payment if the ledger is still at expectedVersion.
func (s *Store) AppendPayment(ctx context.Context, ledgerID generic.LedgerID, expectedVersion int, p membership.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := bumpVersion(ctx, tx, ledgerID, expectedVersion); err != nil {
		return err
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments
		(id, ledger_id, amount, paid_on, pay_mode, next_payment_date, notes, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, ledgerID, p.Amount.Value.String(), p.Date.String(), p.Mode,
		nullDate(p.NextPaymentDate), nullString(p.Notes), nullString(p.IdempotencyKey),
		formatTime(createdAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append payment: %w", err)
	}

	return tx.Commit()
}

// UpdatePayment edits a payment in place if the ledger is still at
// expectedVersion.
func (s *Store) UpdatePayment(ctx context.Context, ledgerID generic.LedgerID, expectedVersion int, p membership.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := bumpVersion(ctx, tx, ledgerID, expectedVersion); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET amount = ?, paid_on = ?, pay_mode = ?, next_payment_date = ?, notes = ?
		WHERE id = ? AND ledger_id = ?
	`,
		p.Amount.Value.String(), p.Date.String(), p.Mode,
		nullDate(p.NextPaymentDate), nullString(p.Notes),
		p.ID, ledgerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payment %s: %w", p.ID, generic.ErrNotFound)
	}

	return tx.Commit()
}

// SetExtraDiscount replaces the extra discount if the ledger is still at
// expectedVersion.
func (s *Store) SetExtraDiscount(ctx context.Context, ledgerID generic.LedgerID, expectedVersion int, extra generic.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := bumpVersion(ctx, tx, ledgerID, expectedVersion); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE ledgers SET extra_discount = ? WHERE id = ?",
		extra.Value.String(), ledgerID,
	)
	if err != nil {
		return fmt.Errorf("failed to set extra discount: %w", err)
	}

	return tx.Commit()
}

// =============================================================================
// RENEWALS
// =============================================================================

// SaveRenewal stores the renewal record and appends its charge to the ledger
// in one transaction. expectedVersion 0 creates the ledger first.
func (s *Store) SaveRenewal(ctx context.Context, r membership.RenewalRecord, c membership.Charge, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if expectedVersion == 0 {
		l := membership.Ledger{
			ID:       r.LedgerID,
			MemberID: r.MemberID,
			Type:     r.MembershipType,
			Charges:  []membership.Charge{c},
		}
		if err := insertLedger(ctx, tx, l); err != nil {
			return err
		}
	} else {
		if err := bumpVersion(ctx, tx, r.LedgerID, expectedVersion); err != nil {
			return err
		}
		if err := insertCharge(ctx, tx, r.LedgerID, c); err != nil {
			return err
		}
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO renewals
		(id, member_id, membership_type, package_id, previous_expiry, renewed_on,
		 days_until_expiry, renewal_type, term_start, term_end, ledger_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.MemberID, r.MembershipType, r.PackageID, nullDate(r.PreviousExpiry),
		r.RenewedOn.String(), r.DaysUntilExpiry, r.RenewalType,
		r.Term.Start.String(), r.Term.End.String(), r.LedgerID, formatTime(createdAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("renewal %s: %w", r.ID, generic.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to save renewal: %w", err)
	}

	return tx.Commit()
}

// ListRenewals returns a member's renewals, oldest first.
func (s *Store) ListRenewals(ctx context.Context, memberID generic.MemberID) ([]membership.RenewalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, membership_type, package_id, previous_expiry, renewed_on,
		       days_until_expiry, renewal_type, term_start, term_end, ledger_id, created_at
		FROM renewals
		WHERE member_id = ?
		ORDER BY renewed_on ASC, created_at ASC
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []membership.RenewalRecord
	for rows.Next() {
		var r membership.RenewalRecord
		var prev sql.NullString
		var renewedOn, start, end, createdAt string
		if err := rows.Scan(&r.ID, &r.MemberID, &r.MembershipType, &r.PackageID, &prev,
			&renewedOn, &r.DaysUntilExpiry, &r.RenewalType, &start, &end, &r.LedgerID, &createdAt); err != nil {
			return nil, err
		}
		if r.PreviousExpiry, err = parseNullDate(prev); err != nil {
			return nil, err
		}
		if r.RenewedOn, err = generic.ParseDate(renewedOn); err != nil {
			return nil, err
		}
		if r.Term.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if r.Term.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
