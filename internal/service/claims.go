package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"prediction/internal/cache"
	"prediction/internal/escrow"
	"prediction/internal/metrics"
	"prediction/internal/models"
	"prediction/internal/notify"
	"prediction/internal/pari"
	"prediction/internal/repository"
)

// ClaimService pays each bettor at most once after settlement: winners get
// their proportional share of the net pool, push rounds refund the exact
// wager, losers get nothing.
type ClaimService struct {
	Repo         repository.Repository
	Escrow       escrow.Escrow
	Cache        *cache.Snapshots
	Notifier     notify.Notifier
	HouseAccount string
	Retention    time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// Claim marks the bet claimed before the payout transfer goes out: a
// reentrant call arriving mid-transfer reads claimed = true and fails with
// ErrAlreadyClaimed instead of double-paying.
func (s *ClaimService) Claim(ctx context.Context, player, roundID string) (*models.Bet, error) {
	player = strings.TrimSpace(player)
	roundID = strings.TrimSpace(roundID)
	if player == "" || roundID == "" {
		return nil, fmt.Errorf("player and round id are required")
	}

	now := nowOrDefault(s.Now)
	var bet *models.Bet
	err := s.Repo.InTx(ctx, func(r repository.Repository) error {
		round, err := r.GetRound(ctx, roundID)
		if err != nil {
			return err
		}
		if round == nil {
			return ErrRoundNotFound
		}
		if !round.Settled {
			return ErrRoundNotSettled
		}

		bet, err = r.GetBetForUpdate(ctx, roundID, player)
		if err != nil {
			return err
		}
		if bet == nil {
			return ErrBetNotFound
		}
		if bet.Claimed {
			return ErrAlreadyClaimed
		}

		payout := bet.Wager
		if !round.IsPush {
			outcome := pari.OutcomeFlat
			if round.Outcome != nil {
				outcome = pari.Outcome(*round.Outcome)
			}
			if !pari.Direction(bet.Direction).Matches(outcome) {
				return ErrNoPayout
			}
			payout, err = pari.PayoutShare(round.NetPool, bet.Wager, round.WinningTotal)
			if err != nil {
				return err
			}
		}
		// A truncated-to-zero share is not claimable; leave the bet open.
		if payout.Sign() == 0 {
			return ErrNoPayout
		}

		bet.Claimed = true
		bet.Payout = &payout
		bet.ClaimedAt = &now
		bet.RetainUntil = now.Add(retention(s.Retention))
		if err := r.UpdateBet(ctx, bet); err != nil {
			return err
		}

		if err := s.Escrow.Transfer(ctx, s.HouseAccount, player, payout); err != nil {
			return fmt.Errorf("escrow transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.OperationErrors.WithLabelValues(ErrorKind(err)).Inc()
		return nil, err
	}

	cacheBet(ctx, s.Cache, s.Logger, *bet)
	if s.Notifier != nil {
		if err := s.Notifier.ClaimPaid(ctx, notify.ClaimPaid{
			RoundID: bet.RoundID,
			Player:  bet.Player,
			Payout:  *bet.Payout,
		}); err != nil && s.Logger != nil {
			s.Logger.Warn("claim paid notify failed", zap.String("round_id", roundID), zap.Error(err))
		}
	}
	metrics.ClaimsPaid.Inc()
	if s.Logger != nil {
		s.Logger.Info("claim paid",
			zap.String("round_id", roundID),
			zap.String("player", player),
			zap.String("payout", bet.Payout.String()),
		)
	}
	return bet, nil
}
