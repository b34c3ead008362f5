// Package cache keeps hot round/bet snapshots in Redis. Every write
// refreshes the key TTL to the configured retention window, so records that
// are still being touched never age out while a round is live.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"prediction/internal/models"
)

func Connect(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

type Snapshots struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSnapshots(rdb *redis.Client, ttl time.Duration) *Snapshots {
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &Snapshots{rdb: rdb, ttl: ttl}
}

func roundKey(id string) string            { return "round:" + id }
func betKey(roundID, player string) string { return "bet:" + roundID + ":" + player }

func (s *Snapshots) SetRound(ctx context.Context, item models.Round) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cache: marshal round %s: %w", item.ID, err)
	}
	return s.rdb.Set(ctx, roundKey(item.ID), data, s.ttl).Err()
}

func (s *Snapshots) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, roundKey(roundID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var item models.Round
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("cache: unmarshal round %s: %w", roundID, err)
	}
	return &item, nil
}

func (s *Snapshots) SetBet(ctx context.Context, item models.Bet) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cache: marshal bet %s/%s: %w", item.RoundID, item.Player, err)
	}
	return s.rdb.Set(ctx, betKey(item.RoundID, item.Player), data, s.ttl).Err()
}

func (s *Snapshots) GetBet(ctx context.Context, roundID, player string) (*models.Bet, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, betKey(roundID, player)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var item models.Bet
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("cache: unmarshal bet %s/%s: %w", roundID, player, err)
	}
	return &item, nil
}
