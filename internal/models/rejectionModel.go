package models

import "time"

// Rejection records why a candidate did not become a trade.
type Rejection struct {
	ID     uint      `gorm:"primaryKey"`
	RunID  string    `gorm:"index;not null"`
	Date   time.Time `gorm:"index;not null"`
	Symbol string    `gorm:"not null"`
	Reason string    `gorm:"not null"`
}
