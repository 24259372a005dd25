package service

import (
	"context"

	"inkwell/internal/events"
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
)

const (
	msgEmailTaken = "User with this email already exists"
	msgEmailInUse = "Email already in use"
)

type UserService struct {
	tx     repository.Transactor
	users  repository.UserRepository
	events EventPublisher
}

func NewUserService(tx repository.Transactor, users repository.UserRepository, publisher EventPublisher) *UserService {
	return &UserService{tx: tx, users: users, events: publisherOrNoop(publisher)}
}

// List returns one offset page of live users with profiles and counts.
func (s *UserService) List(ctx context.Context, in ListUsersInput) (pagination.Page[*models.User], error) {
	page := in.offset()
	filter := repository.UserFilter{Search: strOr(in.Search)}
	if in.Role != nil {
		filter.Role = *in.Role
	}

	users, total, err := s.users.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[*models.User]{}, err
	}
	return pagination.NewPage(users, total, page), nil
}

// GetByID returns the user with profile, recent posts and counts.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetDetail(ctx, id, recentPostsOnUser)
	if err != nil {
		return nil, notFound(err, models.NewNotFoundError("User", id))
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	user := &models.User{Email: in.Email, Name: in.Name}
	if in.Role != nil {
		user.Role = *in.Role
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
			return models.NewConflictError(msgEmailTaken)
		} else if !repository.IsNotFound(err) {
			return err
		}
		return conflict(s.users.Create(ctx, user), msgEmailTaken)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.UserCreated, user.ID, user.Summary(models.SummaryFull)))
	return user, nil
}

// Update changes the supplied fields. A new email must not belong to any
// other user, deleted users included.
func (s *UserService) Update(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	var user *models.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.users.GetByID(ctx, in.ID)
		if err != nil {
			return notFound(err, models.NewNotFoundError("User", in.ID))
		}

		updates := map[string]interface{}{}
		if in.Email != nil && *in.Email != current.Email {
			if other, err := s.users.GetByEmail(ctx, *in.Email); err == nil && other.ID != in.ID {
				return models.NewConflictError(msgEmailInUse)
			} else if err != nil && !repository.IsNotFound(err) {
				return err
			}
			updates["email"] = *in.Email
		}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Role != nil {
			updates["role"] = *in.Role
		}

		if len(updates) > 0 {
			if err := s.users.Update(ctx, in.ID, updates); err != nil {
				return conflict(err, msgEmailInUse)
			}
		}

		user, err = s.users.GetByID(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete soft-deletes a live user and returns it as it was.
func (s *UserService) Delete(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByID(ctx, id)
		if err != nil {
			return notFound(err, models.NewNotFoundError("User", id))
		}
		return notFound(s.users.SoftDelete(ctx, id), models.NewNotFoundError("User", id))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
