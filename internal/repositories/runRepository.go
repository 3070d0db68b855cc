package repositories

import (
	"EquityPaperBot/internal/models"
	"errors"

	"gorm.io/gorm"
)

type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new instance of RunRepository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create adds a new Run record to the database
func (r *RunRepository) Create(run *models.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.Create(run).Error
}

// Update modifies an existing Run record
func (r *RunRepository) Update(run *models.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.Save(run).Error
}

// FindByID retrieves a Run record by its ID
func (r *RunRepository) FindByID(id string) (*models.Run, error) {
	if id == "" {
		return nil, errors.New("invalid id")
	}
	var run models.Run
	err := r.db.First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &run, err
}

// FindRecent retrieves the most recently started runs
func (r *RunRepository) FindRecent(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.Run
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
