package models

import "time"

// EquityPoint is one row of the append-only equity curve.
type EquityPoint struct {
	ID            uint      `gorm:"primaryKey"`
	RunID         string    `gorm:"index;not null"`
	Date          time.Time `gorm:"index;not null"`
	Equity        float64   `gorm:"type:decimal(20,8);not null"`
	Cash          float64   `gorm:"type:decimal(20,8);not null"`
	OpenPositions int       `gorm:"not null"`
}
