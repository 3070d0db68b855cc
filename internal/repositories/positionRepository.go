package repositories

import (
	"EquityPaperBot/internal/models"
	"errors"

	"gorm.io/gorm"
)

type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new instance of PositionRepository
func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create adds a new Position record to the database
func (r *PositionRepository) Create(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Create(position).Error
}

// Update modifies an existing Position record
func (r *PositionRepository) Update(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Save(position).Error
}

// FindByID retrieves a Position record by its ID
func (r *PositionRepository) FindByID(id uint) (*models.Position, error) {
	if id == 0 {
		return nil, errors.New("invalid id")
	}
	var position models.Position
	err := r.db.First(&position, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &position, err
}

// FindOpenByRun retrieves all open Position records for a run
func (r *PositionRepository) FindOpenByRun(runID string) ([]models.Position, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var positions []models.Position
	err := r.db.Where("run_id = ? AND status = ?", runID, models.PositionStatusOpen).
		Find(&positions).Error
	return positions, err
}

// FindClosedByRun retrieves the trade log for a run, oldest exit first
func (r *PositionRepository) FindClosedByRun(runID string) ([]models.Position, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var positions []models.Position
	err := r.db.Where("run_id = ? AND status = ?", runID, models.PositionStatusClosed).
		Order("exit_date ASC").
		Find(&positions).Error
	return positions, err
}

// ReplaceOpenByRun rewrites the open-position snapshot for a run in one
// transaction. Closed positions are untouched; they are the audit log.
func (r *PositionRepository) ReplaceOpenByRun(runID string, positions []models.Position) error {
	if runID == "" {
		return errors.New("invalid run id")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ? AND status = ?", runID, models.PositionStatusOpen).
			Delete(&models.Position{}).Error; err != nil {
			return err
		}
		if len(positions) == 0 {
			return nil
		}
		return tx.Create(&positions).Error
	})
}

// FindOpenBySymbol retrieves open Position records for one symbol in a run
func (r *PositionRepository) FindOpenBySymbol(runID, symbol string) ([]models.Position, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var positions []models.Position
	err := r.db.Where("run_id = ? AND symbol = ? AND status = ?", runID, symbol, models.PositionStatusOpen).
		Find(&positions).Error
	return positions, err
}
