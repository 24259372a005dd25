package service

import (
	"context"
	"fmt"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const msgUserNotFound = "User not found"

type ProfileService struct {
	tx       repository.Transactor
	profiles repository.ProfileRepository
	users    repository.UserRepository
}

func NewProfileService(tx repository.Transactor, profiles repository.ProfileRepository, users repository.UserRepository) *ProfileService {
	return &ProfileService{tx: tx, profiles: profiles, users: users}
}

func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, models.NewNotFoundMessage(fmt.Sprintf("Profile for user %s not found", userID)))
	}
	profile.Owner = profile.User.Summary(models.SummaryFull)
	return profile, nil
}

// Upsert creates the profile of a live user on first call and afterwards
// replaces exactly the supplied fields.
func (s *ProfileService) Upsert(ctx context.Context, in UpsertProfileInput) (*models.Profile, error) {
	var profile *models.Profile
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.users.Exists(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundMessage(msgUserNotFound)
		}

		existing, err := s.profiles.GetByUserID(ctx, in.UserID)
		switch {
		case repository.IsNotFound(err):
			created := &models.Profile{UserID: in.UserID, Bio: in.Bio, Avatar: in.Avatar, Website: in.Website}
			if err := s.profiles.Create(ctx, created); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			updates := map[string]interface{}{}
			if in.Bio != nil {
				updates["bio"] = *in.Bio
			}
			if in.Avatar != nil {
				updates["avatar"] = *in.Avatar
			}
			if in.Website != nil {
				updates["website"] = *in.Website
			}
			if len(updates) > 0 {
				if err := s.profiles.Update(ctx, existing.ID, updates); err != nil {
					return err
				}
			}
		}

		profile, err = s.profiles.GetByUserID(ctx, in.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	profile.Owner = profile.User.Summary(models.SummaryFull)
	return profile, nil
}
