package repositories

import (
	"EquityPaperBot/internal/models"
	"errors"

	"gorm.io/gorm"
)

type EquityRepository struct {
	db *gorm.DB
}

// NewEquityRepository creates a new instance of EquityRepository
func NewEquityRepository(db *gorm.DB) *EquityRepository {
	return &EquityRepository{db: db}
}

// Append adds one equity curve point. The curve is append-only; rows are
// never updated or deleted.
func (r *EquityRepository) Append(point *models.EquityPoint) error {
	if point == nil {
		return errors.New("equity point cannot be nil")
	}
	return r.db.Create(point).Error
}

// GetCurve retrieves the full equity curve for a run, oldest first
func (r *EquityRepository) GetCurve(runID string) ([]models.EquityPoint, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var points []models.EquityPoint
	err := r.db.Where("run_id = ?", runID).Order("date ASC").Find(&points).Error
	return points, err
}
