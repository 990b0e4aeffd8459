package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/payroll"
)

var _ payroll.Store = (*Store)(nil)

// =============================================================================
// TRAINERS
// =============================================================================

// SaveTrainer inserts or updates a trainer.
func (s *Store) SaveTrainer(ctx context.Context, t payroll.Trainer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trainers (id, name, phone, designation, monthly_salary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			designation = excluded.designation,
			monthly_salary = excluded.monthly_salary
	`,
		t.ID, t.Name, nullString(t.Phone), nullString(t.Designation),
		t.MonthlySalary.Value.String(), formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save trainer: %w", err)
	}
	return nil
}

// GetTrainer retrieves a trainer by ID.
func (s *Store) GetTrainer(ctx context.Context, id generic.TrainerID) (*payroll.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t payroll.Trainer
	var phone, designation sql.NullString
	var salary, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, phone, designation, monthly_salary, created_at FROM trainers WHERE id = ?",
		id,
	).Scan(&t.ID, &t.Name, &phone, &designation, &salary, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trainer %s: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	t.Phone = phone.String
	t.Designation = designation.String
	if t.MonthlySalary, err = parseMoney(salary); err != nil {
		return nil, fmt.Errorf("trainer %s: %w", id, err)
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

type deductionJSON struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

func encodeDeductions(ds []payroll.Deduction) (sql.NullString, error) {
	if len(ds) == 0 {
		return sql.NullString{}, nil
	}
	out := make([]deductionJSON, len(ds))
	for i, d := range ds {
		out[i] = deductionJSON{Label: d.Label, Amount: d.Amount.Value.String()}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeDeductions(ns sql.NullString) ([]payroll.Deduction, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var in []deductionJSON
	if err := json.Unmarshal([]byte(ns.String), &in); err != nil {
		return nil, err
	}
	out := make([]payroll.Deduction, len(in))
	for i, d := range in {
		amount, err := parseMoney(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("deduction %q: %w", d.Label, err)
		}
		out[i] = payroll.Deduction{Label: d.Label, Amount: amount}
	}
	return out, nil
}

// CreateSettlement inserts a settlement. A second settlement for the same
// trainer and month fails with generic.ErrAlreadyExists.
func (s *Store) CreateSettlement(ctx context.Context, st payroll.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deductions, err := encodeDeductions(st.Input.Deductions)
	if err != nil {
		return fmt.Errorf("failed to encode deductions: %w", err)
	}
	in, f := st.Input, st.Figures

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO salary_settlements
		(id, trainer_id, salary_month, monthly_salary, present_days, discount_days,
		 incentive_amount, incentive_type, deductions_json, total_days, absent_days,
		 payable_days, calculated_salary, final_payable, total_deductions, net_payable,
		 payment_date, pay_mode, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.ID, st.TrainerID, in.Month.String(), in.MonthlySalary.Value.String(),
		in.PresentDays, in.DiscountDays, f.IncentiveAmount.Value.String(),
		nullString(string(in.IncentiveType)), deductions,
		f.TotalDaysInMonth, f.AbsentDays, f.PayableDays,
		f.CalculatedSalary.Value.String(), f.FinalPayableAmount.Value.String(),
		f.TotalDeductions.Value.String(), f.NetPayable.Value.String(),
		st.PaymentDate.String(), st.PayMode, nullString(st.Notes),
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("settlement for trainer %s in %s: %w", st.TrainerID, in.Month, generic.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// UpdateSettlement rewrites the inputs and figures of an existing settlement.
func (s *Store) UpdateSettlement(ctx context.Context, st payroll.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deductions, err := encodeDeductions(st.Input.Deductions)
	if err != nil {
		return fmt.Errorf("failed to encode deductions: %w", err)
	}
	in, f := st.Input, st.Figures

	res, err := s.db.ExecContext(ctx, `
		UPDATE salary_settlements SET
			monthly_salary = ?, present_days = ?, discount_days = ?,
			incentive_amount = ?, incentive_type = ?, deductions_json = ?,
			total_days = ?, absent_days = ?, payable_days = ?,
			calculated_salary = ?, final_payable = ?, total_deductions = ?, net_payable = ?,
			payment_date = ?, pay_mode = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`,
		in.MonthlySalary.Value.String(), in.PresentDays, in.DiscountDays,
		f.IncentiveAmount.Value.String(), nullString(string(in.IncentiveType)), deductions,
		f.TotalDaysInMonth, f.AbsentDays, f.PayableDays,
		f.CalculatedSalary.Value.String(), f.FinalPayableAmount.Value.String(),
		f.TotalDeductions.Value.String(), f.NetPayable.Value.String(),
		st.PaymentDate.String(), st.PayMode, nullString(st.Notes), formatTime(st.UpdatedAt),
		st.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("settlement %s: %w", st.ID, generic.ErrNotFound)
	}
	return nil
}

const settlementColumns = `id, trainer_id, salary_month, monthly_salary, present_days, discount_days,
	incentive_amount, incentive_type, deductions_json, total_days, absent_days,
	payable_days, calculated_salary, final_payable, total_deductions, net_payable,
	payment_date, pay_mode, notes, created_at, updated_at`

func scanSettlement(row rowScanner) (payroll.Settlement, error) {
	var st payroll.Settlement
	var month, salary, incentive, calculated, final, deducted, net, paidOn, createdAt, updatedAt string
	var incentiveType, deductions, notes sql.NullString

	err := row.Scan(
		&st.ID, &st.TrainerID, &month, &salary, &st.Input.PresentDays, &st.Input.DiscountDays,
		&incentive, &incentiveType, &deductions,
		&st.Figures.TotalDaysInMonth, &st.Figures.AbsentDays, &st.Figures.PayableDays,
		&calculated, &final, &deducted, &net,
		&paidOn, &st.PayMode, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return st, err
	}

	if st.Input.Month, err = generic.ParseSalaryMonth(month); err != nil {
		return st, err
	}
	if st.PaymentDate, err = generic.ParseDate(paidOn); err != nil {
		return st, err
	}
	if st.Input.Deductions, err = decodeDeductions(deductions); err != nil {
		return st, err
	}

	for _, f := range []struct {
		dst *generic.Amount
		raw string
	}{
		{&st.Input.MonthlySalary, salary},
		{&st.Input.IncentiveAmount, incentive},
		{&st.Figures.CalculatedSalary, calculated},
		{&st.Figures.FinalPayableAmount, final},
		{&st.Figures.TotalDeductions, deducted},
		{&st.Figures.NetPayable, net},
	} {
		if *f.dst, err = parseMoney(f.raw); err != nil {
			return st, fmt.Errorf("settlement %s: %w", st.ID, err)
		}
	}
	st.Input.IncentiveType = payroll.IncentiveType(incentiveType.String)

	st.Figures.PresentDays = st.Input.PresentDays
	st.Figures.DiscountDays = st.Input.DiscountDays
	st.Figures.IncentiveAmount = st.Input.IncentiveAmount

	st.Notes = notes.String
	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)
	return st, nil
}

// GetSettlement retrieves a settlement by ID.
func (s *Store) GetSettlement(ctx context.Context, id generic.SettlementID) (*payroll.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM salary_settlements WHERE id = ?", id)
	st, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement %s: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListSettlements returns a trainer's settlements, latest month first.
func (s *Store) ListSettlements(ctx context.Context, trainerID generic.TrainerID) ([]payroll.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM salary_settlements WHERE trainer_id = ? ORDER BY salary_month DESC",
		trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Settlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
