package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
}

type profileRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db, log: observability.NewRepoLogger("profiles")}
}

// GetByUserID loads the profile with its owner.
func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (_ *models.Profile, err error) {
	ctx, done := track(ctx, "profiles", "GetByUserID")
	defer func() { done(err) }()

	var profile models.Profile
	if err = conn(ctx, r.db).Preload("User", unscopedAuthor).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) (err error) {
	ctx, done := track(ctx, "profiles", "Create")
	defer func() { done(err) }()

	if err = conn(ctx, r.db).Create(profile).Error; err != nil {
		r.log.LogError(ctx, "create", err)
		return err
	}
	r.log.LogCreate(ctx, profile.ID)
	return nil
}

func (r *profileRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (err error) {
	ctx, done := track(ctx, "profiles", "Update")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
	if err = res.Error; err != nil {
		r.log.LogError(ctx, "update", err)
		return err
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogUpdate(ctx, id, mapKeys(updates)...)
	return nil
}
