// Package service implements the four engine components: RoundService
// (round registry), BetService (bet ledger), SettlementService and
// ClaimService, plus the cron-driven SettlementSweeper.
//
// Every public operation executes as one repository transaction: validate,
// write internal state to its final post-operation value, then invoke any
// external call, so a failed oracle query or escrow transfer rolls the
// whole unit back and a reentrant caller only ever observes post-state.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"prediction/internal/cache"
	"prediction/internal/models"
)

const defaultRetention = 720 * time.Hour

func nowOrDefault(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

func retention(window time.Duration) time.Duration {
	if window <= 0 {
		return defaultRetention
	}
	return window
}

func cacheRound(ctx context.Context, snaps *cache.Snapshots, logger *zap.Logger, item models.Round) {
	if snaps == nil {
		return
	}
	if err := snaps.SetRound(ctx, item); err != nil && logger != nil {
		logger.Warn("round snapshot cache failed", zap.String("round_id", item.ID), zap.Error(err))
	}
}

func cacheBet(ctx context.Context, snaps *cache.Snapshots, logger *zap.Logger, item models.Bet) {
	if snaps == nil {
		return
	}
	if err := snaps.SetBet(ctx, item); err != nil && logger != nil {
		logger.Warn("bet snapshot cache failed",
			zap.String("round_id", item.RoundID),
			zap.String("player", item.Player),
			zap.Error(err),
		)
	}
}
