package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/gym-settlement/generic"
)

// Service creates, edits and prints salary settlements.
type Service struct {
	store  Store
	gym    Gym
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, gym Gym, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, gym: gym, logger: logger, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateTrainer stores a trainer; an empty ID gets a generated one.
func (s *Service) CreateTrainer(ctx context.Context, t Trainer) (*Trainer, error) {
	if t.Name == "" {
		return nil, generic.MissingField("name")
	}
	if !t.MonthlySalary.IsPositive() {
		return nil, generic.NewFieldError(generic.ErrInvalidAmount, "monthly_salary", "must be greater than zero")
	}
	if t.ID == "" {
		t.ID = generic.TrainerID(uuid.NewString())
	}
	t.CreatedAt = s.now()
	if err := s.store.SaveTrainer(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save trainer: %w", err)
	}
	return &t, nil
}

// Create settles a ready draft. The draft's monthly salary defaults to the
// trainer's configured salary when left empty.
func (s *Service) Create(ctx context.Context, d Draft) (*Settlement, error) {
	trainer, err := s.store.GetTrainer(ctx, d.TrainerID)
	if err != nil {
		return nil, err
	}
	if d.MonthlySalary == nil {
		salary := trainer.MonthlySalary
		d.MonthlySalary = &salary
	}

	in, err := d.Input()
	if err != nil {
		return nil, err
	}
	fig, err := Settle(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	st := Settlement{
		ID:          generic.SettlementID(uuid.NewString()),
		TrainerID:   trainer.ID,
		Input:       in,
		Figures:     fig,
		PaymentDate: *d.PaymentDate,
		PayMode:     d.PayMode,
		Notes:       d.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSettlement(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info("salary settled",
		zap.String("trainer_id", string(trainer.ID)),
		zap.String("month", in.Month.String()),
		zap.String("final_payable", fig.FinalPayableAmount.StringFixed()),
	)
	return &st, nil
}

// Edit replaces the inputs of an existing settlement and re-derives every
// figure. Trainer and salary month cannot change.
func (s *Service) Edit(ctx context.Context, id generic.SettlementID, d Draft) (*Settlement, error) {
	st, err := s.store.GetSettlement(ctx, id)
	if err != nil {
		return nil, err
	}
	d.TrainerID = st.TrainerID
	month := st.Input.Month
	d.Month = &month
	if d.MonthlySalary == nil {
		salary := st.Input.MonthlySalary
		d.MonthlySalary = &salary
	}

	in, err := d.Input()
	if err != nil {
		return nil, err
	}
	fig, err := Settle(in)
	if err != nil {
		return nil, err
	}

	st.Input = in
	st.Figures = fig
	st.PaymentDate = *d.PaymentDate
	st.PayMode = d.PayMode
	st.Notes = d.Notes
	st.UpdatedAt = s.now()
	if err := s.store.UpdateSettlement(ctx, *st); err != nil {
		return nil, err
	}

	s.logger.Info("salary settlement edited",
		zap.String("settlement_id", string(id)),
		zap.String("final_payable", fig.FinalPayableAmount.StringFixed()),
	)
	return st, nil
}

func (s *Service) Get(ctx context.Context, id generic.SettlementID) (*Settlement, error) {
	return s.store.GetSettlement(ctx, id)
}

// Slip builds the printable slip for a stored settlement.
func (s *Service) Slip(ctx context.Context, id generic.SettlementID) (Slip, error) {
	st, err := s.store.GetSettlement(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	trainer, err := s.store.GetTrainer(ctx, st.TrainerID)
	if err != nil {
		return Slip{}, err
	}
	return BuildSlip(s.gym, *trainer, *st), nil
}

// List returns a trainer's settlements, latest month first.
func (s *Service) List(ctx context.Context, trainerID generic.TrainerID) ([]Settlement, error) {
	if _, err := s.store.GetTrainer(ctx, trainerID); err != nil {
		return nil, err
	}
	return s.store.ListSettlements(ctx, trainerID)
}
