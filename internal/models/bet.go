package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bet is a single player's wager in a round. One bet per (round, player).
type Bet struct {
	RoundID   string          `gorm:"primaryKey;type:text"`
	Player    string          `gorm:"primaryKey;type:text"`
	Direction string          `gorm:"type:varchar(10);not null"`
	Wager     decimal.Decimal `gorm:"type:numeric(39,0);not null"`

	Claimed   bool             `gorm:"not null;default:false"`
	Payout    *decimal.Decimal `gorm:"type:numeric(39,0)"`
	ClaimedAt *time.Time       `gorm:"type:timestamptz"`

	RetainUntil time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Bet) TableName() string {
	return "bets"
}
