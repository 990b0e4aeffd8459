package payroll

import (
	"context"

	"github.com/warp/gym-settlement/generic"
)

// Store persists trainers and their monthly settlements.
//
// At most one settlement exists per (trainer, salary month); CreateSettlement
// returns generic.ErrAlreadyExists for a second one.
type Store interface {
	SaveTrainer(ctx context.Context, t Trainer) error
	GetTrainer(ctx context.Context, id generic.TrainerID) (*Trainer, error)

	CreateSettlement(ctx context.Context, s Settlement) error
	UpdateSettlement(ctx context.Context, s Settlement) error
	GetSettlement(ctx context.Context, id generic.SettlementID) (*Settlement, error)
	ListSettlements(ctx context.Context, trainerID generic.TrainerID) ([]Settlement, error)
}
