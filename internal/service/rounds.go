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
	"prediction/internal/metrics"
	"prediction/internal/models"
	"prediction/internal/notify"
	"prediction/internal/oracle"
	"prediction/internal/repository"
)

// RoundService owns round lifecycle metadata: opening new rounds against an
// oracle open price and serving round lookups.
type RoundService struct {
	Repo      repository.Repository
	Oracle    oracle.Gateway
	Cache     *cache.Snapshots
	Notifier  notify.Notifier
	Config    config.EngineConfig
	Retention time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// OpenMarket creates a new round. The round id is caller-supplied and never
// reused; the opening price is pulled from the oracle inside the same unit
// of work that persists the round.
func (s *RoundService) OpenMarket(ctx context.Context, roundID, asset string, closeTime time.Time) (*models.Round, error) {
	roundID = strings.TrimSpace(roundID)
	asset = strings.TrimSpace(asset)
	if roundID == "" || asset == "" {
		return nil, fmt.Errorf("round id and asset are required")
	}

	now := nowOrDefault(s.Now)
	if !closeTime.After(now) {
		return nil, s.fail(ErrInvalidCloseTime)
	}

	var round *models.Round
	err := s.Repo.InTx(ctx, func(r repository.Repository) error {
		existing, err := r.GetRoundForUpdate(ctx, roundID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateRound
		}

		openPrice, err := s.Oracle.GetPrice(ctx, asset)
		if err != nil {
			return fmt.Errorf("oracle price query: %w", err)
		}
		if openPrice.Sign() <= 0 {
			return ErrOraclePriceInvalid
		}

		round = &models.Round{
			ID:           roundID,
			Asset:        asset,
			OpenPrice:    openPrice,
			CloseTime:    closeTime.UTC(),
			TotalUp:      decimal.Zero,
			TotalDown:    decimal.Zero,
			NetPool:      decimal.Zero,
			WinningTotal: decimal.Zero,
			RetainUntil:  now.Add(retention(s.Retention)),
		}
		return r.CreateRound(ctx, round)
	})
	if err != nil {
		metrics.OperationErrors.WithLabelValues(ErrorKind(err)).Inc()
		return nil, err
	}

	cacheRound(ctx, s.Cache, s.Logger, *round)
	if s.Notifier != nil {
		if err := s.Notifier.MarketOpened(ctx, notify.MarketOpened{
			RoundID:   round.ID,
			Asset:     round.Asset,
			OpenPrice: round.OpenPrice,
			CloseTime: round.CloseTime,
		}); err != nil && s.Logger != nil {
			s.Logger.Warn("market opened notify failed", zap.String("round_id", round.ID), zap.Error(err))
		}
	}
	metrics.RoundsOpened.Inc()
	if s.Logger != nil {
		s.Logger.Info("market opened",
			zap.String("round_id", round.ID),
			zap.String("asset", round.Asset),
			zap.String("open_price", round.OpenPrice.String()),
			zap.Time("close_time", round.CloseTime),
		)
	}
	return round, nil
}

// GetRound prefers the snapshot cache and falls back to the store.
func (s *RoundService) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	if s.Cache != nil {
		if item, err := s.Cache.GetRound(ctx, roundID); err == nil && item != nil {
			return item, nil
		}
	}
	item, err := s.Repo.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrRoundNotFound
	}
	return item, nil
}

func (s *RoundService) ListRounds(ctx context.Context, params repository.ListRoundsParams) ([]models.Round, int64, error) {
	items, err := s.Repo.ListRounds(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountRounds(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *RoundService) fail(err error) error {
	metrics.OperationErrors.WithLabelValues(ErrorKind(err)).Inc()
	return err
}
