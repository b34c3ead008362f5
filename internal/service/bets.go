package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prediction/internal/cache"
	"prediction/internal/config"
	"prediction/internal/escrow"
	"prediction/internal/metrics"
	"prediction/internal/models"
	"prediction/internal/notify"
	"prediction/internal/pari"
	"prediction/internal/repository"
)

// BetService owns the wager ledger: one bet per (round, player), pool totals
// maintained under checked arithmetic.
type BetService struct {
	Repo         repository.Repository
	Escrow       escrow.Escrow
	Cache        *cache.Snapshots
	Notifier     notify.Notifier
	Config       config.EngineConfig
	HouseAccount string
	Retention    time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// PlacePrediction records a wager on an open round. The bet row and the
// updated round totals are written first and the escrow pull is invoked
// last, still inside the same transaction: a rejected transfer rolls the
// whole placement back, so no partial state ever survives.
func (s *BetService) PlacePrediction(ctx context.Context, player, roundID, direction string, wager decimal.Decimal) (*models.Bet, error) {
	player = strings.TrimSpace(player)
	roundID = strings.TrimSpace(roundID)
	if player == "" || roundID == "" {
		return nil, fmt.Errorf("player and round id are required")
	}

	dir, ok := pari.ParseDirection(direction)
	if !ok {
		return nil, s.fail(ErrDirectionInvalid)
	}
	if err := s.validateWager(wager); err != nil {
		return nil, s.fail(err)
	}

	now := nowOrDefault(s.Now)
	var (
		round *models.Round
		bet   *models.Bet
	)
	err := s.Repo.InTx(ctx, func(r repository.Repository) error {
		var err error
		round, err = r.GetRoundForUpdate(ctx, roundID)
		if err != nil {
			return err
		}
		if round == nil {
			return ErrRoundNotFound
		}
		// A bet at exactly close_time is already too late.
		if round.Settled || !now.Before(round.CloseTime) {
			return ErrRoundClosed
		}

		existing, err := r.GetBet(ctx, roundID, player)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateBet
		}

		if dir == pari.DirectionUp {
			round.TotalUp, err = pari.AddWager(round.TotalUp, wager)
		} else {
			round.TotalDown, err = pari.AddWager(round.TotalDown, wager)
		}
		if err != nil {
			return err
		}
		round.RetainUntil = now.Add(retention(s.Retention))
		if err := r.UpdateRound(ctx, round); err != nil {
			return err
		}

		bet = &models.Bet{
			RoundID:     roundID,
			Player:      player,
			Direction:   string(dir),
			Wager:       wager,
			RetainUntil: now.Add(retention(s.Retention)),
		}
		if err := r.CreateBet(ctx, bet); err != nil {
			return err
		}

		// Escrow pull comes last: internal state is already final, and any
		// transfer failure aborts the transaction wholesale.
		if err := s.Escrow.Transfer(ctx, player, s.HouseAccount, wager); err != nil {
			return fmt.Errorf("escrow transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.OperationErrors.WithLabelValues(ErrorKind(err)).Inc()
		return nil, err
	}

	cacheRound(ctx, s.Cache, s.Logger, *round)
	cacheBet(ctx, s.Cache, s.Logger, *bet)
	if s.Notifier != nil {
		if err := s.Notifier.PredictionPlaced(ctx, notify.PredictionPlaced{
			RoundID:   bet.RoundID,
			Player:    bet.Player,
			Direction: bet.Direction,
			Wager:     bet.Wager,
		}); err != nil && s.Logger != nil {
			s.Logger.Warn("prediction placed notify failed", zap.String("round_id", roundID), zap.Error(err))
		}
	}
	metrics.PredictionsPlaced.Inc()
	if s.Logger != nil {
		s.Logger.Info("prediction placed",
			zap.String("round_id", roundID),
			zap.String("player", player),
			zap.String("direction", bet.Direction),
			zap.String("wager", wager.String()),
		)
	}
	return bet, nil
}

// GetBet returns the player's bet, or nil when none exists; absence is not
// an error for lookups.
func (s *BetService) GetBet(ctx context.Context, roundID, player string) (*models.Bet, error) {
	if s.Cache != nil {
		if item, err := s.Cache.GetBet(ctx, roundID, player); err == nil && item != nil {
			return item, nil
		}
	}
	return s.Repo.GetBet(ctx, roundID, player)
}

func (s *BetService) ListBets(ctx context.Context, roundID string) ([]models.Bet, error) {
	return s.Repo.ListBetsByRound(ctx, roundID)
}

func (s *BetService) validateWager(wager decimal.Decimal) error {
	if !wager.IsInteger() || wager.Sign() <= 0 {
		return ErrWagerOutOfBounds
	}
	if wager.LessThan(decimal.NewFromInt(s.Config.MinWager)) {
		return ErrWagerOutOfBounds
	}
	if s.Config.MaxWager > 0 && wager.GreaterThan(decimal.NewFromInt(s.Config.MaxWager)) {
		return ErrWagerOutOfBounds
	}
	return nil
}

func (s *BetService) fail(err error) error {
	metrics.OperationErrors.WithLabelValues(ErrorKind(err)).Inc()
	return err
}
