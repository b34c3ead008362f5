package notify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kafka topics, one per engine state transition.
const (
	TopicMarketOpened     = "market_opened"
	TopicPredictionPlaced = "prediction_placed"
	TopicRoundSettled     = "round_settled"
	TopicClaimPaid        = "claim_paid"
)

type MarketOpened struct {
	RoundID   string          `json:"round_id"`
	Asset     string          `json:"asset"`
	OpenPrice decimal.Decimal `json:"open_price"`
	CloseTime time.Time       `json:"close_time"`
	TsUnixMs  int64           `json:"ts_unix_ms"`
}

type PredictionPlaced struct {
	RoundID   string          `json:"round_id"`
	Player    string          `json:"player"`
	Direction string          `json:"direction"`
	Wager     decimal.Decimal `json:"wager"`
	TsUnixMs  int64           `json:"ts_unix_ms"`
}

type RoundSettled struct {
	RoundID    string          `json:"round_id"`
	ClosePrice decimal.Decimal `json:"close_price"`
	Outcome    string          `json:"outcome"`
	IsPush     bool            `json:"is_push"`
	NetPool    decimal.Decimal `json:"net_pool"`
	TsUnixMs   int64           `json:"ts_unix_ms"`
}

type ClaimPaid struct {
	RoundID  string          `json:"round_id"`
	Player   string          `json:"player"`
	Payout   decimal.Decimal `json:"payout"`
	TsUnixMs int64           `json:"ts_unix_ms"`
}
