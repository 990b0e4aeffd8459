/*
handlers.go - HTTP API handlers for the gym settlement service

PURPOSE:
  Exposes the membership fee and trainer payroll engines via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  membership and payroll services.

ENDPOINTS:
  Packages:
    GET    /api/packages                                   List packages
    POST   /api/packages                                   Create package from JSON

  Members:
    POST   /api/members                                    Create member
    GET    /api/members/{id}                               Ledgers + default type
    POST   /api/members/{id}/memberships                   Enrol on a package
    PUT    /api/members/{id}/memberships/{type}/discount   Set extra discount
    POST   /api/members/{id}/memberships/{type}/payments   Record payment
    PUT    /api/members/{id}/memberships/{type}/payments/{paymentID}  Edit payment
    POST   /api/members/{id}/memberships/{type}/validate   Dry-run validation
    POST   /api/members/{id}/renewals                      Renew (classified)

  Payroll:
    POST   /api/trainers                                   Create trainer
    GET    /api/trainers/{id}/settlements                  List settlements
    POST   /api/trainers/{id}/settlements                  Settle a month
    POST   /api/trainers/{id}/settlements/preview          Live figures for a draft
    GET    /api/settlements/{id}                           Get settlement
    PUT    /api/settlements/{id}                           Edit (full re-derivation)
    GET    /api/settlements/{id}/slip                      Printable slip (text/plain)

REQUEST FLOW:
  1. Decode JSON and run struct validation (go-playground/validator)
  2. Call the membership or payroll service
  3. Map the outcome to a status code and DTO

ERROR HANDLING:
  - 400: Malformed body or failed struct validation
  - 404: Member, ledger, payment, trainer or settlement not found
  - 409: Optimistic check lost, duplicate key, type already enrolled
  - 422: Business-rule violation; body carries code, field and exact limit
  - 500: Internal errors (logged with zap)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/gym-settlement/factory"
	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/membership"
	"github.com/warp/gym-settlement/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API persists through.
type Store interface {
	membership.Store
	payroll.Store
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store    Store
	members  *membership.Service
	payroll  *payroll.Service
	packages *factory.PackageFactory
	validate *validator.Validate
	logger   *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler and the services it delegates to.
func NewHandler(store Store, gym payroll.Gym, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    store,
		members:  membership.NewService(store, logger.Named("membership")),
		payroll:  payroll.NewService(store, gym, logger.Named("payroll")),
		packages: factory.NewPackageFactory(),
		validate: validator.New(),
		logger:   logger,
	}
}

// =============================================================================
// PACKAGE HANDLERS
// =============================================================================

// ListPackages returns all packages.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.store.ListPackages(r.Context())
	if err != nil {
		h.writeDomainError(w, "list packages", err)
		return
	}
	out := make([]PackageDTO, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, toPackageDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePackage parses a JSON package definition and stores it.
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	pkg, err := h.packages.ParsePackage(string(body))
	if err != nil {
		if generic.IsRuleViolation(err) {
			h.writeDomainError(w, "create package", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid package definition", err)
		return
	}
	if err := h.store.SavePackage(r.Context(), *pkg); err != nil {
		h.writeDomainError(w, "save package", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPackageDTO(*pkg))
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// CreateMember creates a member.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.members.CreateMember(r.Context(), membership.Member{
		ID:         generic.MemberID(req.ID),
		Name:       req.Name,
		Phone:      req.Phone,
		CachedType: req.CachedType,
	})
	if err != nil {
		h.writeDomainError(w, "create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, MemberDTO{
		ID:         string(m.ID),
		Name:       m.Name,
		Phone:      m.Phone,
		CachedType: m.CachedType,
		Selection:  SelectionDTO{AvailableTypes: []string{}},
	})
}

// GetMember returns the member with both ledger snapshots, the default
// payment type and the renewal history.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := generic.MemberID(chi.URLParam(r, "id"))

	o, err := h.members.Overview(ctx, memberID)
	if err != nil {
		h.writeDomainError(w, "get member", err)
		return
	}
	renewals, err := h.store.ListRenewals(ctx, memberID)
	if err != nil {
		h.writeDomainError(w, "list renewals", err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(o, renewals))
}

// Enrol opens a ledger for the member on a package.
func (h *Handler) Enrol(w http.ResponseWriter, r *http.Request) {
	var req EnrolRequest
	if !h.decode(w, r, &req) {
		return
	}
	var start generic.TimePoint
	if req.StartDate != "" {
		tp, err := generic.ParseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
		start = tp
	}

	l, err := h.members.Enrol(r.Context(), generic.MemberID(chi.URLParam(r, "id")), generic.PackageID(req.PackageID), start)
	if err != nil {
		h.writeDomainError(w, "enrol member", err)
		return
	}
	snap, err := membership.Derive(*l)
	if err != nil {
		h.writeDomainError(w, "derive ledger", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerDTO(snap))
}

// SetExtraDiscount replaces the owner-entered extra discount.
func (h *Handler) SetExtraDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap, err := h.members.SetExtraDiscount(r.Context(),
		generic.MemberID(chi.URLParam(r, "id")),
		urlType(r),
		generic.MoneyFromDecimal(req.ExtraDiscount),
	)
	if err != nil {
		h.writeDomainError(w, "set extra discount", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(snap))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment validates and records a payment against one ledger.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, ok := paymentInput(w, r, req)
	if !ok {
		return
	}

	p, snap, err := h.members.RecordPayment(r.Context(), generic.MemberID(chi.URLParam(r, "id")), in)
	if err != nil {
		h.writeDomainError(w, "record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, PaymentResultDTO{Payment: toPaymentDTO(*p), Ledger: toLedgerDTO(snap)})
}

// EditPayment changes an existing payment entry.
func (h *Handler) EditPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, ok := paymentInput(w, r, req)
	if !ok {
		return
	}

	p, snap, err := h.members.EditPayment(r.Context(),
		generic.MemberID(chi.URLParam(r, "id")),
		generic.PaymentID(chi.URLParam(r, "paymentID")),
		in,
	)
	if err != nil {
		h.writeDomainError(w, "edit payment", err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentResultDTO{Payment: toPaymentDTO(*p), Ledger: toLedgerDTO(snap)})
}

// ValidatePayment reports whether an amount would be accepted and the
// remaining allowance, without writing.
func (h *Handler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.members.CheckPayment(r.Context(),
		generic.MemberID(chi.URLParam(r, "id")),
		urlType(r),
		generic.MoneyFromDecimal(req.Amount),
		generic.PaymentID(req.PaymentID),
	)
	if err != nil {
		h.writeDomainError(w, "validate payment", err)
		return
	}
	dto := ValidationDTO{Accepted: res.Accepted, MaxAllowed: res.MaxAllowed.StringFixed()}
	if !res.Accepted {
		dto.Code = generic.KindCode(res.Reason)
	}
	writeJSON(w, http.StatusOK, dto)
}

func paymentInput(w http.ResponseWriter, r *http.Request, req PaymentRequest) (membership.PaymentInput, bool) {
	in := membership.PaymentInput{
		Type:           urlType(r),
		Amount:         generic.MoneyFromDecimal(req.Amount),
		Mode:           membership.PayMode(req.PayMode),
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.PaymentDate != "" {
		tp, err := generic.ParseDate(req.PaymentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_date format (use YYYY-MM-DD)", err)
			return in, false
		}
		in.Date = &tp
	}
	if req.NextPaymentDate != "" {
		tp, err := generic.ParseDate(req.NextPaymentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid next_payment_date format (use YYYY-MM-DD)", err)
			return in, false
		}
		in.NextPaymentDate = &tp
	}
	return in, true
}

// urlType reads {type}; an unknown value passes through so the service can
// report it as a missing selection.
func urlType(r *http.Request) membership.Type {
	raw := chi.URLParam(r, "type")
	if t, ok := membership.ParseType(raw); ok {
		return t
	}
	return membership.Type(raw)
}

// =============================================================================
// RENEWAL HANDLERS
// =============================================================================

// Renew renews a membership onto a package and reports its classification.
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	var req RenewalRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, snap, err := h.members.Renew(r.Context(), membership.RenewalInput{
		MemberID:  generic.MemberID(chi.URLParam(r, "id")),
		PackageID: generic.PackageID(req.PackageID),
	})
	if err != nil {
		h.writeDomainError(w, "renew membership", err)
		return
	}
	dto := toRenewalDTO(*rec)
	dto.Ledger = toLedgerDTO(snap)
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// CreateTrainer creates a trainer.
func (h *Handler) CreateTrainer(w http.ResponseWriter, r *http.Request) {
	var req CreateTrainerRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.payroll.CreateTrainer(r.Context(), payroll.Trainer{
		ID:            generic.TrainerID(req.ID),
		Name:          req.Name,
		Phone:         req.Phone,
		Designation:   req.Designation,
		MonthlySalary: generic.MoneyFromDecimal(req.MonthlySalary),
	})
	if err != nil {
		h.writeDomainError(w, "create trainer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTrainerDTO(*t))
}

// ListSettlements returns a trainer's settlements.
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	list, err := h.payroll.List(r.Context(), generic.TrainerID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "list settlements", err)
		return
	}
	out := make([]SettlementDTO, 0, len(list))
	for _, s := range list {
		out = append(out, toSettlementDTO(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateSettlement settles one salary month for a trainer.
func (h *Handler) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r, generic.TrainerID(chi.URLParam(r, "id")))
	if !ok {
		return
	}
	st, err := h.payroll.Create(r.Context(), d)
	if err != nil {
		h.writeDomainError(w, "create settlement", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementDTO(*st))
}

// PreviewSettlement derives figures for a partially filled draft.
func (h *Handler) PreviewSettlement(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r, generic.TrainerID(chi.URLParam(r, "id")))
	if !ok {
		return
	}
	fig, complete, err := d.Preview()
	if err != nil {
		h.writeDomainError(w, "preview settlement", err)
		return
	}
	resp := map[string]any{
		"complete": complete,
		"ready":    d.Ready() == nil,
	}
	if complete {
		resp["figures"] = toSettlementDTO(payroll.Settlement{Input: payroll.Input{
			MonthlySalary: *d.MonthlySalary,
			Month:         *d.Month,
			IncentiveType: d.IncentiveType,
		}, Figures: fig})
		resp["max_discount_days"] = payroll.MaxDiscountDays(*d.Month, *d.PresentDays)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSettlement returns a settlement.
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	st, err := h.payroll.Get(r.Context(), generic.SettlementID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "get settlement", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(*st))
}

// EditSettlement replaces a settlement's inputs and re-derives it.
func (h *Handler) EditSettlement(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r, "")
	if !ok {
		return
	}
	st, err := h.payroll.Edit(r.Context(), generic.SettlementID(chi.URLParam(r, "id")), d)
	if err != nil {
		h.writeDomainError(w, "edit settlement", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(*st))
}

// GetSlip renders the printable salary slip.
func (h *Handler) GetSlip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.payroll.Slip(r.Context(), generic.SettlementID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "build slip", err)
		return
	}
	var buf bytes.Buffer
	if err := slip.Render(&buf); err != nil {
		h.writeDomainError(w, "render slip", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write slip", zap.Error(err))
	}
}

func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request, trainerID generic.TrainerID) (payroll.Draft, bool) {
	var req SettlementRequest
	if !h.decode(w, r, &req) {
		return payroll.Draft{}, false
	}
	d, err := req.draft(trainerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date in settlement", err)
		return payroll.Draft{}, false
	}
	return d, true
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads a JSON body into dst and validates its struct tags. It writes
// a 400 and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Details: ve.Error(),
				Field:   ve[0].Field(),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps service errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, action string, err error) {
	var re *generic.RuleError
	switch {
	case errors.As(err, &re):
		resp := ErrorResponse{Error: re.Error(), Code: re.Code(), Field: re.Field}
		if re.Limit != nil {
			resp.Limit = formatLimit(*re.Limit)
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, generic.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "Ledger changed since it was read; reload and retry", err)
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, "Duplicate submission", err)
	case errors.Is(err, generic.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "Already exists", err)
	default:
		h.logger.Error(action, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func formatLimit(a generic.Amount) string {
	if a.Unit == generic.UnitDays {
		return a.Value.String()
	}
	return a.StringFixed()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
