package models

type Instrument struct {
	ID       uint    `gorm:"primaryKey"`
	Symbol   string  `gorm:"uniqueIndex;not null"`
	LotSize  float64 `gorm:"type:decimal(20,8);not null"`
	TickSize float64 `gorm:"type:decimal(20,8);not null"`

	// Average daily turnover, used to classify liquidity for slippage.
	AvgDailyVolume float64 `gorm:"type:decimal(20,8)"`
}

const (
	LiquidityClassLiquid   = "liquid"
	LiquidityClassIlliquid = "illiquid"
)
