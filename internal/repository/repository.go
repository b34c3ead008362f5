package repository

import (
	"context"
	"time"

	"prediction/internal/models"
)

type ListRoundsParams struct {
	Limit   int
	Offset  int
	Asset   *string
	Settled *bool
	OrderBy string
	Asc     *bool
}

// Repository owns persistence for rounds and bets. Lookups return (nil, nil)
// when the record is absent; callers translate that into their own error
// kinds. InTx runs fn against a transaction-scoped Repository; every
// engine operation executes inside exactly one such transaction, and the
// ...ForUpdate reads take row locks so concurrent operations on the same
// round serialize.
type Repository interface {
	InTx(ctx context.Context, fn func(r Repository) error) error

	CreateRound(ctx context.Context, item *models.Round) error
	GetRound(ctx context.Context, roundID string) (*models.Round, error)
	GetRoundForUpdate(ctx context.Context, roundID string) (*models.Round, error)
	UpdateRound(ctx context.Context, item *models.Round) error
	ListRounds(ctx context.Context, params ListRoundsParams) ([]models.Round, error)
	CountRounds(ctx context.Context, params ListRoundsParams) (int64, error)
	ListDueRounds(ctx context.Context, now time.Time, limit int) ([]models.Round, error)

	CreateBet(ctx context.Context, item *models.Bet) error
	GetBet(ctx context.Context, roundID, player string) (*models.Bet, error)
	GetBetForUpdate(ctx context.Context, roundID, player string) (*models.Bet, error)
	UpdateBet(ctx context.Context, item *models.Bet) error
	ListBetsByRound(ctx context.Context, roundID string) ([]models.Bet, error)
}
