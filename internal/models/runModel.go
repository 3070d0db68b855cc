package models

import "time"

type Run struct {
	ID   string `gorm:"primaryKey"` // uuid
	Name string `gorm:"index"`

	StartDate      time.Time
	EndDate        time.Time
	InitialBalance float64 `gorm:"type:decimal(20,8)"`

	Status  string `gorm:"not null"`
	Partial bool   `gorm:"not null;default:false"`

	// Metrics summary, filled when the run completes.
	TotalTrades  int
	WinRate      float64 `gorm:"type:decimal(20,8)"`
	SharpeRatio  float64 `gorm:"type:decimal(20,8)"`
	MaxDrawdown  float64 `gorm:"type:decimal(20,8)"`
	CAGR         float64 `gorm:"type:decimal(20,8)"`
	FinalEquity  float64 `gorm:"type:decimal(20,8)"`
	ProfitFactor float64 `gorm:"type:decimal(20,8)"`

	StartedAt  time.Time `gorm:"autoCreateTime"`
	FinishedAt time.Time
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)
