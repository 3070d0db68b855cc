package models

import "time"

type Position struct {
	ID     uint    `gorm:"primaryKey"`
	RunID  string  `gorm:"index;not null"`
	Symbol string  `gorm:"index;not null"`
	Side   string  `gorm:"not null"`
	Size   float64 `gorm:"type:decimal(20,8);not null"`

	EntryDate   time.Time `gorm:"index;not null"`
	EntryPrice  float64   `gorm:"type:decimal(20,8);not null"`
	StopPrice   float64   `gorm:"type:decimal(20,8);not null"`
	TargetPrice float64   `gorm:"type:decimal(20,8);not null"`

	ExitDate   time.Time `gorm:"index"`
	ExitPrice  float64   `gorm:"type:decimal(20,8)"`
	ExitReason string
	PnL        float64 `gorm:"type:decimal(20,8)"`
	PnLPct     float64 `gorm:"type:decimal(20,8)"`

	EntryFee float64 `gorm:"type:decimal(20,8)"`
	ExitFee  float64 `gorm:"type:decimal(20,8)"`

	Status     string  `gorm:"not null"`
	DataStale  bool    `gorm:"not null;default:false"`
	Confidence float64 `gorm:"type:decimal(20,8)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"

	PositionSideLong  = "long"
	PositionSideShort = "short"

	ExitReasonStop       = "stop"
	ExitReasonTarget     = "target"
	ExitReasonTime       = "time"
	ExitReasonForceClose = "force_close"
)
