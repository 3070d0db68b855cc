package repositories

import (
	"EquityPaperBot/internal/models"
	"errors"

	"gorm.io/gorm"
)

type RejectionRepository struct {
	db *gorm.DB
}

// NewRejectionRepository creates a new instance of RejectionRepository
func NewRejectionRepository(db *gorm.DB) *RejectionRepository {
	return &RejectionRepository{db: db}
}

// Create adds a rejection audit record
func (r *RejectionRepository) Create(rej *models.Rejection) error {
	if rej == nil {
		return errors.New("rejection cannot be nil")
	}
	return r.db.Create(rej).Error
}

// FindByRun retrieves the rejection audit trail for a run
func (r *RejectionRepository) FindByRun(runID string) ([]models.Rejection, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var rejections []models.Rejection
	err := r.db.Where("run_id = ?", runID).Order("date ASC").Find(&rejections).Error
	return rejections, err
}
