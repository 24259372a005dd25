package service

import (
	"context"
	"fmt"

	"inkwell/internal/events"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const (
	msgCategoryTaken    = "Category with this name or slug already exists"
	msgCategoryHasPosts = "Cannot delete category that has associated posts"
)

type CategoryService struct {
	tx         repository.Transactor
	categories repository.CategoryRepository
	events     EventPublisher
}

func NewCategoryService(tx repository.Transactor, categories repository.CategoryRepository, publisher EventPublisher) *CategoryService {
	return &CategoryService{tx: tx, categories: categories, events: publisherOrNoop(publisher)}
}

// List returns every category by name with its post count.
func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	return categories, nil
}

// GetByID returns the category with its post associations.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.GetDetail(ctx, id)
	if err != nil {
		return nil, notFound(err, models.NewNotFoundError("Category", id))
	}
	for i := range category.Posts {
		if p := category.Posts[i].Post; p != nil {
			p.AuthorSummary = p.Author.Summary(models.SummaryName)
		}
	}
	return category, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, models.NewNotFoundMessage(fmt.Sprintf("Category with slug %q not found", slug)))
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	category := &models.Category{Name: in.Name, Slug: in.Slug}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.categories.NameOrSlugTaken(ctx, &in.Name, &in.Slug, "")
		if err != nil {
			return err
		}
		if taken {
			return models.NewConflictError(msgCategoryTaken)
		}
		return conflict(s.categories.Create(ctx, category), msgCategoryTaken)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.CategoryCreated, category.ID, category))
	return category, nil
}

// Update changes the supplied fields, checking uniqueness against every other category.
func (s *CategoryService) Update(ctx context.Context, in UpdateCategoryInput) (*models.Category, error) {
	var category *models.Category
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.categories.GetByID(ctx, in.ID); err != nil {
			return notFound(err, models.NewNotFoundError("Category", in.ID))
		}

		taken, err := s.categories.NameOrSlugTaken(ctx, in.Name, in.Slug, in.ID)
		if err != nil {
			return err
		}
		if taken {
			return models.NewConflictError(msgCategoryTaken)
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Slug != nil {
			updates["slug"] = *in.Slug
		}
		if len(updates) > 0 {
			if err := s.categories.Update(ctx, in.ID, updates); err != nil {
				return conflict(err, msgCategoryTaken)
			}
		}

		category, err = s.categories.GetByID(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category that no post references.
func (s *CategoryService) Delete(ctx context.Context, id string) (*models.Category, error) {
	var category *models.Category
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		category, err = s.categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, models.NewNotFoundError("Category", id))
		}

		count, err := s.categories.CountPosts(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return models.NewPreconditionFailedError(msgCategoryHasPosts)
		}
		return notFound(s.categories.Delete(ctx, id), models.NewNotFoundError("Category", id))
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}
