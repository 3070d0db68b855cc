package repositories

import (
	"EquityPaperBot/internal/models"
	"errors"

	"gorm.io/gorm"
)

type InstrumentRepository struct {
	db *gorm.DB
}

// NewInstrumentRepository creates a new instance of InstrumentRepository
func NewInstrumentRepository(db *gorm.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// FindAll retrieves every Instrument record
func (r *InstrumentRepository) FindAll() ([]models.Instrument, error) {
	var instruments []models.Instrument
	err := r.db.Find(&instruments).Error
	return instruments, err
}

// FindBySymbol retrieves one Instrument record
func (r *InstrumentRepository) FindBySymbol(symbol string) (*models.Instrument, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var instrument models.Instrument
	err := r.db.Where("symbol = ?", symbol).First(&instrument).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &instrument, err
}

// Seed ensures a row exists for every symbol in the universe, with a
// default lot and tick size for symbols seen for the first time.
func (r *InstrumentRepository) Seed(symbols []string) error {
	for _, symbol := range symbols {
		existing, err := r.FindBySymbol(symbol)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		inst := models.Instrument{Symbol: symbol, LotSize: 1, TickSize: 0.01}
		if err := r.db.Create(&inst).Error; err != nil {
			return err
		}
	}
	return nil
}
