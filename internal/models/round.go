package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Round is one pari-mutuel betting round on an asset's price direction.
// Settlement fields (ClosePrice, Outcome, IsPush, NetPool, WinningTotal)
// are written exactly once, when Settled flips to true.
type Round struct {
	ID         string           `gorm:"primaryKey;type:text"`
	Asset      string           `gorm:"type:text;not null;index"`
	OpenPrice  decimal.Decimal  `gorm:"type:numeric(39,0);not null"`
	ClosePrice *decimal.Decimal `gorm:"type:numeric(39,0)"`
	CloseTime  time.Time        `gorm:"type:timestamptz;not null;index"`

	TotalUp   decimal.Decimal `gorm:"type:numeric(39,0);not null"`
	TotalDown decimal.Decimal `gorm:"type:numeric(39,0);not null"`

	Settled      bool            `gorm:"not null;default:false;index"`
	Outcome      *string         `gorm:"type:varchar(10)"`
	IsPush       bool            `gorm:"not null;default:false"`
	NetPool      decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0"`
	WinningTotal decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0"`

	// RetainUntil is the retention horizon; every write pushes it out by the
	// configured window so live rounds are never evicted.
	RetainUntil time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Round) TableName() string {
	return "rounds"
}
