package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"prediction/internal/cache"
	"prediction/internal/config"
	"prediction/internal/metrics"
	"prediction/internal/models"
	"prediction/internal/notify"
	"prediction/internal/oracle"
	"prediction/internal/pari"
	"prediction/internal/repository"
)

// SettlementService closes rounds: it samples the oracle a second time,
// determines the outcome and the distributable pool, and persists the
// result exactly once.
type SettlementService struct {
	Repo      repository.Repository
	Oracle    oracle.Gateway
	Cache     *cache.Snapshots
	Notifier  notify.Notifier
	Config    config.EngineConfig
	Retention time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// SettleRound is callable by anyone, any number of times; only the first
// successful call has effect. Settlement at exactly close_time is allowed.
func (s *SettlementService) SettleRound(ctx context.Context, roundID string) (*models.Round, error) {
	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return nil, fmt.Errorf("round id is required")
	}

	now := nowOrDefault(s.Now)
	var round *models.Round
	err := s.Repo.InTx(ctx, func(r repository.Repository) error {
		var err error
		round, err = r.GetRoundForUpdate(ctx, roundID)
		if err != nil {
			return err
		}
		if round == nil {
			return ErrRoundNotFound
		}
		if round.Settled {
			return ErrRoundAlreadySettled
		}
		if now.Before(round.CloseTime) {
			return ErrSettleBeforeClose
		}

		closePrice, err := s.Oracle.GetPrice(ctx, round.Asset)
		if err != nil {
			return fmt.Errorf("oracle price query: %w", err)
		}
		if closePrice.Sign() <= 0 {
			return ErrOraclePriceInvalid
		}

		result, err := pari.Settle(round.OpenPrice, closePrice, round.TotalUp, round.TotalDown, s.Config.HouseEdgeBps)
		if err != nil {
			return err
		}

		outcome := string(result.Outcome)
		round.ClosePrice = &closePrice
		round.Outcome = &outcome
		round.IsPush = result.IsPush
		round.NetPool = result.NetPool
		round.WinningTotal = result.WinningTotal
		round.Settled = true
		round.RetainUntil = now.Add(retention(s.Retention))
		return r.UpdateRound(ctx, round)
	})
	if err != nil {
		metrics.OperationErrors.WithLabelValues(ErrorKind(err)).Inc()
		return nil, err
	}

	cacheRound(ctx, s.Cache, s.Logger, *round)
	if s.Notifier != nil {
		if err := s.Notifier.RoundSettled(ctx, notify.RoundSettled{
			RoundID:    round.ID,
			ClosePrice: *round.ClosePrice,
			Outcome:    *round.Outcome,
			IsPush:     round.IsPush,
			NetPool:    round.NetPool,
		}); err != nil && s.Logger != nil {
			s.Logger.Warn("round settled notify failed", zap.String("round_id", round.ID), zap.Error(err))
		}
	}
	metrics.RoundsSettled.Inc()
	if s.Logger != nil {
		s.Logger.Info("round settled",
			zap.String("round_id", round.ID),
			zap.String("close_price", round.ClosePrice.String()),
			zap.String("outcome", *round.Outcome),
			zap.Bool("is_push", round.IsPush),
			zap.String("net_pool", round.NetPool.String()),
		)
	}
	return round, nil
}

// SettlementSweeper settles due rounds on a schedule so no external caller
// is needed for a round to resolve.
type SettlementSweeper struct {
	Repo      repository.Repository
	Settler   *SettlementService
	BatchSize int
	Logger    *zap.Logger
	Now       func() time.Time
}

func (s *SettlementSweeper) RunOnce(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Settler == nil {
		return nil
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 100
	}
	due, err := s.Repo.ListDueRounds(ctx, nowOrDefault(s.Now), batch)
	if err != nil {
		return err
	}
	for _, round := range due {
		if _, err := s.Settler.SettleRound(ctx, round.ID); err != nil {
			// Lost the race to a manual settle call; nothing to do.
			if errors.Is(err, ErrRoundAlreadySettled) {
				continue
			}
			if s.Logger != nil {
				s.Logger.Warn("sweep settle failed", zap.String("round_id", round.ID), zap.Error(err))
			}
		}
	}
	return nil
}
