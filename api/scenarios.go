/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	gym data for testing and demos. Each scenario creates packages, members,
	ledgers, payments, trainers and settlements that demonstrate one rule.

AVAILABLE SCENARIOS:

	partial-payment:  Regular plan with a percentage discount, part paid
	dual-membership:  Regular settled, PT outstanding (PT pre-selected)
	renewal-window:   Three PT members expiring early, in window, and lapsed
	trainer-payroll:  Monthly settlements with incentive and deductions

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create packages via factory
 3. Create members and enrol them
 4. Record payments through the membership service (fully validated)
 5. Create trainers and settle salary months

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "dual-membership"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and services used by the loaders
  - membership/packages.go: Package JSON presets
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
	"github.com/warp/gym-settlement/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "partial-payment",
		Name:        "Partial Payment",
		Description: "Regular monthly plan, 10% discount, half paid",
		Category:    "membership",
	},
	{
		ID:          "dual-membership",
		Name:        "Regular + PT",
		Description: "Regular ledger settled, PT ledger outstanding; PT is the default payment type",
		Category:    "membership",
	},
	{
		ID:          "renewal-window",
		Name:        "Renewal Window",
		Description: "PT members expiring in 20 days, in 5 days, and lapsed 4 days ago",
		Category:    "membership",
	},
	{
		ID:          "trainer-payroll",
		Name:        "Trainer Payroll",
		Description: "Salary settlements with discount days, incentive and an advance deduction",
		Category:    "payroll",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "partial-payment":
		load = h.loadPartialPaymentScenario
	case "dual-membership":
		load = h.loadDualMembershipScenario
	case "renewal-window":
		load = h.loadRenewalWindowScenario
	case "trainer-payroll":
		load = h.loadTrainerPayrollScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.logger.Error("load scenario", zap.String("scenario", req.ScenarioID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadPartialPaymentScenario(ctx context.Context) error {
	// 2000 with up to 10% off: final fees 1800
	if err := h.createPackageFromJSON(ctx, membership.MonthlyRegularJSON("regular-monthly", 2000, 10)); err != nil {
		return err
	}
	if err := h.createMember(ctx, "mem-001", "Asha Verma", "regular"); err != nil {
		return err
	}
	today := generic.Today()
	if _, err := h.members.Enrol(ctx, "mem-001", "regular-monthly", today); err != nil {
		return err
	}
	return h.pay(ctx, "mem-001", membership.TypeRegular, "1000", today, membership.PayUPI)
}

func (h *Handler) loadDualMembershipScenario(ctx context.Context) error {
	if err := h.createPackageFromJSON(ctx, membership.QuarterlyRegularJSON("regular-quarterly", 4500, 10)); err != nil {
		return err
	}
	if err := h.createPackageFromJSON(ctx, membership.PTSessionsJSON("pt-12", "PT 12 Sessions", 6000, 500, 30)); err != nil {
		return err
	}
	// The cached label is stale on purpose; ledgers win once loaded.
	if err := h.createMember(ctx, "mem-002", "Rohan Mehta", "regular"); err != nil {
		return err
	}

	today := generic.Today()
	if _, err := h.members.Enrol(ctx, "mem-002", "regular-quarterly", today); err != nil {
		return err
	}
	if _, err := h.members.Enrol(ctx, "mem-002", "pt-12", today); err != nil {
		return err
	}

	// Regular: 4500 - 450 = 4050, paid in two instalments
	if err := h.pay(ctx, "mem-002", membership.TypeRegular, "3000", today, membership.PayCash); err != nil {
		return err
	}
	if err := h.pay(ctx, "mem-002", membership.TypeRegular, "1050", today, membership.PayUPI); err != nil {
		return err
	}
	// PT: 6000 - 500 = 5500, 2000 paid
	return h.pay(ctx, "mem-002", membership.TypePT, "2000", today, membership.PayCard)
}

func (h *Handler) loadRenewalWindowScenario(ctx context.Context) error {
	if err := h.createPackageFromJSON(ctx, membership.PTSessionsJSON("pt-30", "PT Monthly", 3000, 300, 30)); err != nil {
		return err
	}

	today := generic.Today()
	members := []struct {
		id, name     string
		daysToExpiry int
	}{
		{"mem-010", "Kavya Iyer", 20},   // EARLY if renewed today
		{"mem-011", "Arjun Nair", 5},    // STANDARD
		{"mem-012", "Meera Pillai", -4}, // LATE
	}
	for _, m := range members {
		if err := h.createMember(ctx, m.id, m.name, "pt"); err != nil {
			return err
		}
		// 30-day term ending daysToExpiry from today
		start := today.AddDays(m.daysToExpiry - 29)
		if _, err := h.members.Enrol(ctx, generic.MemberID(m.id), "pt-30", start); err != nil {
			return err
		}
		if err := h.pay(ctx, generic.MemberID(m.id), membership.TypePT, "2700", start, membership.PayCash); err != nil {
			return err
		}
	}

	// The lapsed member has already renewed once, late.
	_, _, err := h.members.Renew(ctx, membership.RenewalInput{MemberID: "mem-012", PackageID: "pt-30"})
	return err
}

func (h *Handler) loadTrainerPayrollScenario(ctx context.Context) error {
	trainers := []payroll.Trainer{
		{ID: "trn-001", Name: "Vikram Singh", Phone: "9876543210", Designation: "Head Trainer", MonthlySalary: generic.NewMoney(30000)},
		{ID: "trn-002", Name: "Neha Kapoor", Phone: "9876501234", Designation: "Yoga Instructor", MonthlySalary: generic.NewMoney(18000)},
	}
	for _, t := range trainers {
		if _, err := h.payroll.CreateTrainer(ctx, t); err != nil {
			return err
		}
	}

	june := generic.SalaryMonth{Year: 2025, Month: time.June}
	paid := generic.NewTimePoint(2025, time.July, 1)

	// 30 days, 25 present, 2 discount days: 27 payable -> 27000 + 1000
	_, err := h.payroll.Create(ctx, payroll.Draft{
		TrainerID:       "trn-001",
		Month:           &june,
		PresentDays:     intPtr(25),
		DiscountDays:    intPtr(2),
		IncentiveAmount: amountPtr(generic.NewMoney(1000)),
		IncentiveType:   payroll.IncentivePTSessions,
		Deductions:      []payroll.Deduction{{Label: "Salary advance", Amount: generic.NewMoney(2000)}},
		PaymentDate:     &paid,
		PayMode:         payroll.PayBankTransfer,
		Notes:           "June settlement",
	})
	if err != nil {
		return err
	}

	// On leave the whole month: only the festival bonus is paid
	_, err = h.payroll.Create(ctx, payroll.Draft{
		TrainerID:       "trn-002",
		Month:           &june,
		PresentDays:     intPtr(0),
		IncentiveAmount: amountPtr(generic.NewMoney(500)),
		IncentiveType:   payroll.IncentiveFestival,
		PaymentDate:     &paid,
		PayMode:         payroll.PayCash,
	})
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createPackageFromJSON(ctx context.Context, jsonStr string) error {
	pkg, err := h.packages.ParsePackage(jsonStr)
	if err != nil {
		return err
	}
	return h.store.SavePackage(ctx, *pkg)
}

func (h *Handler) createMember(ctx context.Context, id, name, cached string) error {
	_, err := h.members.CreateMember(ctx, membership.Member{
		ID:         generic.MemberID(id),
		Name:       name,
		CachedType: cached,
	})
	return err
}

func (h *Handler) pay(ctx context.Context, memberID generic.MemberID, t membership.Type, amount string, on generic.TimePoint, mode membership.PayMode) error {
	amt, err := generic.ParseMoney(amount)
	if err != nil {
		return err
	}
	_, _, err = h.members.RecordPayment(ctx, memberID, membership.PaymentInput{
		Type:   t,
		Amount: amt,
		Date:   &on,
		Mode:   mode,
	})
	return err
}

func intPtr(n int) *int { return &n }

func amountPtr(a generic.Amount) *generic.Amount { return &a }
