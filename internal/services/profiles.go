package services

import (
	"context"
	"errors"

	"community-match-service/internal/models"

	"gorm.io/gorm"
)

// ProfileDirectory resolves profile ids to display metadata. The engine never
// writes profiles.
type ProfileDirectory interface {
	Get(ctx context.Context, id uint) (*models.Profile, error)
	Lookup(ctx context.Context, ids []uint) (map[uint]models.ProfileSummary, error)
}

type gormProfileDirectory struct {
	db *gorm.DB
}

// NewProfileDirectory returns a ProfileDirectory reading the profiles table.
func NewProfileDirectory(db *gorm.DB) ProfileDirectory {
	return &gormProfileDirectory{db: db}
}

// Get returns an active profile, or NotFound.
func (d *gormProfileDirectory) Get(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := d.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Profile", id)
	}
	if err != nil {
		return nil, storeError("get profile", err)
	}
	return &profile, nil
}

// Lookup returns summaries for the ids that exist; missing ids are omitted.
func (d *gormProfileDirectory) Lookup(ctx context.Context, ids []uint) (map[uint]models.ProfileSummary, error) {
	out := make(map[uint]models.ProfileSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, storeError("lookup profiles", err)
	}
	for _, p := range profiles {
		out[p.ID] = p.Summary()
	}
	return out, nil
}
