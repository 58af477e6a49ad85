// Package repos provides database repository implementations
package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qualitylink/qldash/internal/db/models"
)

// ErrPreferenceNotFound is returned when a key was never stored
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceRepository handles database operations for preferences
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new instance of PreferenceRepository
func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{
		db: db,
	}
}

// Get retrieves a preference by key
func (r *PreferenceRepository) Get(ctx context.Context, key string) (*models.Preference, error) {
	var pref models.Preference
	err := r.db.WithContext(ctx).Where(&models.Preference{Key: key}).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPreferenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Set stores value under key, replacing any previous value
func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	pref := models.Preference{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: models.PreferenceKeyField}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}

// Delete removes a preference
func (r *PreferenceRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where(&models.Preference{Key: key}).Delete(&models.Preference{}).Error
}

// List returns every stored preference ordered by key
func (r *PreferenceRepository) List(ctx context.Context) ([]models.Preference, error) {
	var prefs []models.Preference
	err := r.db.WithContext(ctx).Order(models.PreferenceKeyField).Find(&prefs).Error
	return prefs, err
}
