/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements membership.Store and payroll.Store using SQLite. Only stored
  inputs are persisted for fee ledgers (charges, extra discount, payments);
  balances are derived on read by the membership package.

INTERFACES IMPLEMENTED:
  membership.Store: Members, packages, fee ledgers, payments, renewals
  payroll.Store:    Trainers and monthly salary settlements

KEY TABLES:
  members:            Member records with the cached membership label
  packages:           Membership plans
  ledgers:            One row per (member, type); extra discount + version
  ledger_charges:     One row per billed term, appended on renewal
  payments:           Ledger entries, editable in place
  renewals:           Renewal history with classification
  trainers:           Trainer records
  salary_settlements: One row per (trainer, salary month)

OPTIMISTIC CONCURRENCY:
  Every ledger write runs as
      UPDATE ledgers SET version = version + 1 WHERE id = ? AND version = ?
  inside the same transaction as the payment insert/update. Zero rows
  affected means another writer got there first and the whole write is
  rolled back with generic.ErrConcurrentModification.

CONSTRAINTS:
  - ledgers UNIQUE(member_id, membership_type): one ledger per type
  - payments.idempotency_key UNIQUE: a replayed submission is rejected
  - salary_settlements UNIQUE(trainer_id, salary_month)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's single writer.

USAGE:
  store, err := sqlite.New("./data/gym.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := membership.NewService(store, logger)

SEE ALSO:
  - membership/store.go, payroll/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/gym-settlement/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		cached_type TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS packages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		membership_type TEXT NOT NULL,
		fees TEXT NOT NULL,
		discount_type TEXT NOT NULL,
		max_discount TEXT NOT NULL,
		max_discount_unit TEXT NOT NULL,
		duration_days INTEGER NOT NULL DEFAULT 0,
		duration_months INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Fee ledgers: stored inputs only, never a balance
	CREATE TABLE IF NOT EXISTS ledgers (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		membership_type TEXT NOT NULL,
		extra_discount TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		UNIQUE(member_id, membership_type)
	);

	-- Package terms copied at enrolment and at every renewal
	CREATE TABLE IF NOT EXISTS ledger_charges (
		id TEXT PRIMARY KEY,
		ledger_id TEXT NOT NULL REFERENCES ledgers(id),
		package_id TEXT NOT NULL,
		fees TEXT NOT NULL,
		discount_type TEXT NOT NULL,
		max_discount TEXT NOT NULL,
		max_discount_unit TEXT NOT NULL,
		term_start TEXT NOT NULL,
		term_end TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_charges_ledger
		ON ledger_charges(ledger_id, term_start);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		ledger_id TEXT NOT NULL REFERENCES ledgers(id),
		amount TEXT NOT NULL,
		paid_on TEXT NOT NULL,
		pay_mode TEXT NOT NULL,
		next_payment_date TEXT,
		notes TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_ledger
		ON payments(ledger_id, paid_on);

	CREATE TABLE IF NOT EXISTS renewals (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		membership_type TEXT NOT NULL,
		package_id TEXT NOT NULL,
		previous_expiry TEXT,
		renewed_on TEXT NOT NULL,
		days_until_expiry INTEGER NOT NULL,
		renewal_type TEXT NOT NULL,
		term_start TEXT NOT NULL,
		term_end TEXT NOT NULL,
		ledger_id TEXT NOT NULL REFERENCES ledgers(id),
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_renewals_member
		ON renewals(member_id, renewed_on);

	CREATE TABLE IF NOT EXISTS trainers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		designation TEXT,
		monthly_salary TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Salary settlements keep inputs and the figures derived from them
	CREATE TABLE IF NOT EXISTS salary_settlements (
		id TEXT PRIMARY KEY,
		trainer_id TEXT NOT NULL REFERENCES trainers(id),
		salary_month TEXT NOT NULL,
		monthly_salary TEXT NOT NULL,
		present_days INTEGER NOT NULL,
		discount_days INTEGER NOT NULL,
		incentive_amount TEXT NOT NULL,
		incentive_type TEXT,
		deductions_json TEXT,
		total_days INTEGER NOT NULL,
		absent_days INTEGER NOT NULL,
		payable_days INTEGER NOT NULL,
		calculated_salary TEXT NOT NULL,
		final_payable TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_payable TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		pay_mode TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(trainer_id, salary_month)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil || tp.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func parseNullDate(ns sql.NullString) (*generic.TimePoint, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	tp, err := generic.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

func parseAmount(value, unit string) (generic.Amount, error) {
	a, err := generic.ParseAmount(value, generic.Unit(unit))
	if err != nil {
		return generic.Amount{}, fmt.Errorf("invalid stored amount %q: %w", value, err)
	}
	return a, nil
}

func parseMoney(value string) (generic.Amount, error) {
	return parseAmount(value, string(generic.UnitCurrency))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// bumpVersion advances a ledger's version if it still matches expected.
func bumpVersion(ctx context.Context, tx *sql.Tx, ledgerID generic.LedgerID, expected int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE ledgers SET version = version + 1 WHERE id = ? AND version = ?",
		ledgerID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to bump ledger version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledgers WHERE id = ?", ledgerID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return generic.ErrNotFound
	}
	return generic.ErrConcurrentModification
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// children before parents for the foreign keys
	tables := []string{"payments", "renewals", "ledger_charges", "ledgers", "members", "packages", "salary_settlements", "trainers"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
