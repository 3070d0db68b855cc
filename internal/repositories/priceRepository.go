package repositories

import (
	"EquityPaperBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Create adds a new Price record to the database
func (r *PriceRepository) Create(price *models.Price) error {
	if price == nil {
		return errors.New("price cannot be nil")
	}
	return r.db.Create(price).Error
}

// BatchCreate inserts a slice of daily bars in one statement
func (r *PriceRepository) BatchCreate(prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	return r.db.CreateInBatches(prices, 500).Error
}

// GetBar retrieves the daily bar for a symbol on a given date
func (r *PriceRepository) GetBar(symbol string, date time.Time) (*models.Price, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var price models.Price
	err := r.db.Where("symbol = ? AND date = ?", symbol, date).First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &price, err
}

// GetHistory gets daily bars for a symbol within a date range, oldest first
func (r *PriceRepository) GetHistory(symbol string, start, end time.Time) ([]models.Price, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var prices []models.Price
	err := r.db.Where("symbol = ? AND date BETWEEN ? AND ?", symbol, start, end).
		Order("date ASC").
		Find(&prices).Error
	return prices, err
}

// LatestDate returns the most recent stored bar date for a symbol
func (r *PriceRepository) LatestDate(symbol string) (time.Time, error) {
	var price models.Price
	err := r.db.Where("symbol = ?", symbol).Order("date DESC").First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	return price.Date, err
}
