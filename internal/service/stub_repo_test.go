package service

import (
	"context"
	"sort"
	"time"

	"prediction/internal/models"
	"prediction/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// InTx runs fn against a deep copy and merges it back only on success, so
// rollback behaves like the real store. Every mutation is appended to the
// shared journal, which tests use to assert write-before-transfer ordering.
type stubRepo struct {
	rounds  map[string]models.Round
	bets    map[string]models.Bet
	journal *[]string
}

func newStubRepo() *stubRepo {
	journal := make([]string, 0, 8)
	return &stubRepo{
		rounds:  make(map[string]models.Round),
		bets:    make(map[string]models.Bet),
		journal: &journal,
	}
}

func stubBetKey(roundID, player string) string { return roundID + "/" + player }

func (s *stubRepo) log(op string) {
	if s.journal != nil {
		*s.journal = append(*s.journal, op)
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(r repository.Repository) error) error {
	tx := &stubRepo{
		rounds:  make(map[string]models.Round, len(s.rounds)),
		bets:    make(map[string]models.Bet, len(s.bets)),
		journal: s.journal,
	}
	for k, v := range s.rounds {
		tx.rounds[k] = v
	}
	for k, v := range s.bets {
		tx.bets[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.rounds = tx.rounds
	s.bets = tx.bets
	return nil
}

func (s *stubRepo) CreateRound(ctx context.Context, item *models.Round) error {
	s.log("create_round")
	s.rounds[item.ID] = *item
	return nil
}

func (s *stubRepo) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	item, ok := s.rounds[roundID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *stubRepo) GetRoundForUpdate(ctx context.Context, roundID string) (*models.Round, error) {
	return s.GetRound(ctx, roundID)
}

func (s *stubRepo) UpdateRound(ctx context.Context, item *models.Round) error {
	s.log("update_round")
	s.rounds[item.ID] = *item
	return nil
}

func (s *stubRepo) ListRounds(ctx context.Context, params repository.ListRoundsParams) ([]models.Round, error) {
	items := s.filterRounds(params)
	offset := params.Offset
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if params.Limit > 0 && params.Limit < len(items) {
		items = items[:params.Limit]
	}
	return items, nil
}

func (s *stubRepo) CountRounds(ctx context.Context, params repository.ListRoundsParams) (int64, error) {
	return int64(len(s.filterRounds(params))), nil
}

func (s *stubRepo) filterRounds(params repository.ListRoundsParams) []models.Round {
	var items []models.Round
	for _, r := range s.rounds {
		if params.Asset != nil && r.Asset != *params.Asset {
			continue
		}
		if params.Settled != nil && r.Settled != *params.Settled {
			continue
		}
		items = append(items, r)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *stubRepo) ListDueRounds(ctx context.Context, now time.Time, limit int) ([]models.Round, error) {
	var items []models.Round
	for _, r := range s.rounds {
		if r.Settled || now.Before(r.CloseTime) {
			continue
		}
		items = append(items, r)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CloseTime.Before(items[j].CloseTime) })
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (s *stubRepo) CreateBet(ctx context.Context, item *models.Bet) error {
	s.log("create_bet")
	s.bets[stubBetKey(item.RoundID, item.Player)] = *item
	return nil
}

func (s *stubRepo) GetBet(ctx context.Context, roundID, player string) (*models.Bet, error) {
	item, ok := s.bets[stubBetKey(roundID, player)]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *stubRepo) GetBetForUpdate(ctx context.Context, roundID, player string) (*models.Bet, error) {
	return s.GetBet(ctx, roundID, player)
}

func (s *stubRepo) UpdateBet(ctx context.Context, item *models.Bet) error {
	s.log("update_bet")
	s.bets[stubBetKey(item.RoundID, item.Player)] = *item
	return nil
}

func (s *stubRepo) ListBetsByRound(ctx context.Context, roundID string) ([]models.Bet, error) {
	var items []models.Bet
	for _, b := range s.bets {
		if b.RoundID == roundID {
			items = append(items, b)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Player < items[j].Player })
	return items, nil
}
