package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prediction/internal/models"
	"prediction/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(r repository.Repository) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// --- rounds -----------------------------------------------------------------

func (s *Store) CreateRound(ctx context.Context, item *models.Round) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	return s.getRound(ctx, roundID, false)
}

func (s *Store) GetRoundForUpdate(ctx context.Context, roundID string) (*models.Round, error) {
	return s.getRound(ctx, roundID, true)
}

func (s *Store) getRound(ctx context.Context, roundID string, lock bool) (*models.Round, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.Round
	err := query.Where("id = ?", roundID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateRound(ctx context.Context, item *models.Round) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	// Save the full row; settlement fields must land in one write.
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) ListRounds(ctx context.Context, params repository.ListRoundsParams) ([]models.Round, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.roundsQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Round
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountRounds(ctx context.Context, params repository.ListRoundsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	if err := s.roundsQuery(ctx, params).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) roundsQuery(ctx context.Context, params repository.ListRoundsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Round{})
	if params.Asset != nil && strings.TrimSpace(*params.Asset) != "" {
		query = query.Where("asset = ?", strings.TrimSpace(*params.Asset))
	}
	if params.Settled != nil {
		query = query.Where("settled = ?", *params.Settled)
	}
	return query
}

func (s *Store) ListDueRounds(ctx context.Context, now time.Time, limit int) ([]models.Round, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Round
	err := s.db.WithContext(ctx).
		Model(&models.Round{}).
		Where("settled = ?", false).
		Where("close_time <= ?", now).
		Order("close_time asc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- bets -------------------------------------------------------------------

func (s *Store) CreateBet(ctx context.Context, item *models.Bet) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetBet(ctx context.Context, roundID, player string) (*models.Bet, error) {
	return s.getBet(ctx, roundID, player, false)
}

func (s *Store) GetBetForUpdate(ctx context.Context, roundID, player string) (*models.Bet, error) {
	return s.getBet(ctx, roundID, player, true)
}

func (s *Store) getBet(ctx context.Context, roundID, player string, lock bool) (*models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.Bet
	err := query.
		Where("round_id = ? AND player = ?", roundID, player).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateBet(ctx context.Context, item *models.Bet) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) ListBetsByRound(ctx context.Context, roundID string) ([]models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Bet
	err := s.db.WithContext(ctx).
		Model(&models.Bet{}).
		Where("round_id = ?", roundID).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- query helpers ----------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	col := strings.TrimSpace(orderBy)
	switch col {
	case "created_at", "close_time", "asset":
	default:
		col = fallback
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(col + " " + dir)
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 || limit > 1000 {
		return def
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
