// Package memory provides an in-memory implementation of membership.Store and
// payroll.Store for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
	"github.com/warp/gym-settlement/payroll"
)

var (
	_ membership.Store = (*Store)(nil)
	_ payroll.Store    = (*Store)(nil)
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	members     map[generic.MemberID]membership.Member
	packages    map[generic.PackageID]membership.Package
	ledgers     map[generic.LedgerID]*membership.Ledger
	byType      map[ledgerKey]generic.LedgerID
	idempotency map[string]bool
	renewals    map[generic.MemberID][]membership.RenewalRecord

	trainers    map[generic.TrainerID]payroll.Trainer
	settlements map[generic.SettlementID]payroll.Settlement
	byMonth     map[monthKey]generic.SettlementID
}

type ledgerKey struct {
	MemberID generic.MemberID
	Type     membership.Type
}

type monthKey struct {
	TrainerID generic.TrainerID
	Month     generic.SalaryMonth
}

func New() *Store {
	return &Store{
		members:     make(map[generic.MemberID]membership.Member),
		packages:    make(map[generic.PackageID]membership.Package),
		ledgers:     make(map[generic.LedgerID]*membership.Ledger),
		byType:      make(map[ledgerKey]generic.LedgerID),
		idempotency: make(map[string]bool),
		renewals:    make(map[generic.MemberID][]membership.RenewalRecord),
		trainers:    make(map[generic.TrainerID]payroll.Trainer),
		settlements: make(map[generic.SettlementID]payroll.Settlement),
		byMonth:     make(map[monthKey]generic.SettlementID),
	}
}

// =============================================================================
// MEMBERS & PACKAGES
// =============================================================================

func (s *Store) SaveMember(_ context.Context, m membership.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
	return nil
}

func (s *Store) GetMember(_ context.Context, id generic.MemberID) (*membership.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, generic.ErrNotFound)
	}
	return &m, nil
}

func (s *Store) SavePackage(_ context.Context, p membership.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages[p.ID] = p
	return nil
}

func (s *Store) GetPackage(_ context.Context, id generic.PackageID) (*membership.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, fmt.Errorf("package %s: %w", id, generic.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) ListPackages(_ context.Context) ([]membership.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]membership.Package, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MembershipType != out[j].MembershipType {
			return out[i].MembershipType > out[j].MembershipType
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// =============================================================================
// LEDGERS
// =============================================================================

func (s *Store) CreateLedger(_ context.Context, l membership.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(l)
}

func (s *Store) openLocked(l membership.Ledger) error {
	key := ledgerKey{MemberID: l.MemberID, Type: l.Type}
	if _, exists := s.byType[key]; exists {
		return fmt.Errorf("%s ledger for member %s: %w", l.Type, l.MemberID, generic.ErrAlreadyExists)
	}
	if _, exists := s.ledgers[l.ID]; exists {
		return fmt.Errorf("ledger %s: %w", l.ID, generic.ErrAlreadyExists)
	}
	l.Version = 1
	l.Charges = append([]membership.Charge(nil), l.Charges...)
	l.Payments = append([]membership.Payment(nil), l.Payments...)
	s.ledgers[l.ID] = &l
	s.byType[key] = l.ID
	return nil
}

func (s *Store) GetLedger(_ context.Context, memberID generic.MemberID, t membership.Type) (*membership.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byType[ledgerKey{MemberID: memberID, Type: t}]
	if !ok {
		return nil, fmt.Errorf("%s ledger for member %s: %w", t, memberID, generic.ErrNotFound)
	}
	l := *s.ledgers[id]
	l.Charges = append([]membership.Charge(nil), l.Charges...)
	l.Payments = append([]membership.Payment(nil), l.Payments...)
	return &l, nil
}

// checkLocked returns the ledger if it is still at expected.
func (s *Store) checkLocked(id generic.LedgerID, expected int) (*membership.Ledger, error) {
	l, ok := s.ledgers[id]
	if !ok {
		return nil, fmt.Errorf("ledger %s: %w", id, generic.ErrNotFound)
	}
	if l.Version != expected {
		return nil, generic.ErrConcurrentModification
	}
	return l, nil
}

func (s *Store) AppendPayment(_ context.Context, id generic.LedgerID, expected int, p membership.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.checkLocked(id, expected)
	if err != nil {
		return err
	}
	if p.IdempotencyKey != "" && s.idempotency[p.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}

	// keep payments ordered by date, ties in insertion order
	i := sort.Search(len(l.Payments), func(i int) bool {
		return l.Payments[i].Date.After(p.Date)
	})
	l.Payments = append(l.Payments, membership.Payment{})
	copy(l.Payments[i+1:], l.Payments[i:])
	l.Payments[i] = p
	l.Version++

	if p.IdempotencyKey != "" {
		s.idempotency[p.IdempotencyKey] = true
	}
	return nil
}

func (s *Store) UpdatePayment(_ context.Context, id generic.LedgerID, expected int, p membership.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.checkLocked(id, expected)
	if err != nil {
		return err
	}
	for i := range l.Payments {
		if l.Payments[i].ID != p.ID {
			continue
		}
		p.IdempotencyKey = l.Payments[i].IdempotencyKey
		p.CreatedAt = l.Payments[i].CreatedAt
		l.Payments[i] = p
		sort.SliceStable(l.Payments, func(a, b int) bool {
			return l.Payments[a].Date.Before(l.Payments[b].Date)
		})
		l.Version++
		return nil
	}
	return fmt.Errorf("payment %s: %w", p.ID, generic.ErrNotFound)
}

func (s *Store) SetExtraDiscount(_ context.Context, id generic.LedgerID, expected int, extra generic.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.checkLocked(id, expected)
	if err != nil {
		return err
	}
	l.ExtraDiscount = extra
	l.Version++
	return nil
}

// =============================================================================
// RENEWALS
// =============================================================================

func (s *Store) SaveRenewal(_ context.Context, r membership.RenewalRecord, c membership.Charge, expected int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expected == 0 {
		l := membership.Ledger{
			ID:            r.LedgerID,
			MemberID:      r.MemberID,
			Type:          r.MembershipType,
			Charges:       []membership.Charge{c},
			ExtraDiscount: generic.ZeroMoney(),
		}
		if err := s.openLocked(l); err != nil {
			return err
		}
	} else {
		l, err := s.checkLocked(r.LedgerID, expected)
		if err != nil {
			return err
		}
		l.Charges = append(l.Charges, c)
		l.Version++
	}
	s.renewals[r.MemberID] = append(s.renewals[r.MemberID], r)
	return nil
}

func (s *Store) ListRenewals(_ context.Context, memberID generic.MemberID) ([]membership.RenewalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]membership.RenewalRecord(nil), s.renewals[memberID]...), nil
}

// =============================================================================
// TRAINERS & SETTLEMENTS
// =============================================================================

func (s *Store) SaveTrainer(_ context.Context, t payroll.Trainer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trainers[t.ID] = t
	return nil
}

func (s *Store) GetTrainer(_ context.Context, id generic.TrainerID) (*payroll.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trainers[id]
	if !ok {
		return nil, fmt.Errorf("trainer %s: %w", id, generic.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) CreateSettlement(_ context.Context, st payroll.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := monthKey{TrainerID: st.TrainerID, Month: st.Input.Month}
	if _, exists := s.byMonth[k]; exists {
		return fmt.Errorf("settlement for trainer %s in %s: %w", st.TrainerID, st.Input.Month, generic.ErrAlreadyExists)
	}
	s.settlements[st.ID] = st
	s.byMonth[k] = st.ID
	return nil
}

func (s *Store) UpdateSettlement(_ context.Context, st payroll.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settlements[st.ID]; !ok {
		return fmt.Errorf("settlement %s: %w", st.ID, generic.ErrNotFound)
	}
	s.settlements[st.ID] = st
	return nil
}

func (s *Store) GetSettlement(_ context.Context, id generic.SettlementID) (*payroll.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settlements[id]
	if !ok {
		return nil, fmt.Errorf("settlement %s: %w", id, generic.ErrNotFound)
	}
	return &st, nil
}

func (s *Store) ListSettlements(_ context.Context, trainerID generic.TrainerID) ([]payroll.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []payroll.Settlement
	for _, st := range s.settlements {
		if st.TrainerID == trainerID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Input.Month.String() > out[j].Input.Month.String()
	})
	return out, nil
}

// Reset clears all data.
func (s *Store) Reset(_ context.Context) error {
	fresh := New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = fresh.members
	s.packages = fresh.packages
	s.ledgers = fresh.ledgers
	s.byType = fresh.byType
	s.idempotency = fresh.idempotency
	s.renewals = fresh.renewals
	s.trainers = fresh.trainers
	s.settlements = fresh.settlements
	s.byMonth = fresh.byMonth
	return nil
}
