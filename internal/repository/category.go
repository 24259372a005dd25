package repository

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetDetail(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	CountExisting(ctx context.Context, ids []string) (int64, error)
	NameOrSlugTaken(ctx context.Context, name, slug *string, excludeID string) (bool, error)
	CountPosts(ctx context.Context, id string) (int64, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db, log: observability.NewRepoLogger("categories")}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) (err error) {
	ctx, done := track(ctx, "categories", "Create")
	defer func() { done(err) }()

	if err = conn(ctx, r.db).Create(category).Error; err != nil {
		r.log.LogError(ctx, "create", err)
		return err
	}
	r.log.LogCreate(ctx, category.ID)
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (_ *models.Category, err error) {
	ctx, done := track(ctx, "categories", "GetByID")
	defer func() { done(err) }()

	var category models.Category
	if err = conn(ctx, r.db).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetDetail loads a category with every post association and its author.
// Associations of soft-deleted posts are included; they still block deletion.
func (r *categoryRepository) GetDetail(ctx context.Context, id string) (_ *models.Category, err error) {
	ctx, done := track(ctx, "categories", "GetDetail")
	defer func() { done(err) }()

	var category models.Category
	err = conn(ctx, r.db).
		Preload("Posts", func(db *gorm.DB) *gorm.DB { return db.Order("assigned_at DESC") }).
		Preload("Posts.Post", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Posts.Post.Author", unscopedAuthor).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	category.PostCount = int64(len(category.Posts))
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (_ *models.Category, err error) {
	ctx, done := track(ctx, "categories", "GetBySlug")
	defer func() { done(err) }()

	var category models.Category
	if err = conn(ctx, r.db).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	if err = r.attachPostCounts(ctx, []*models.Category{&category}); err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns every category ordered by name with its association count.
func (r *categoryRepository) List(ctx context.Context) (_ []*models.Category, err error) {
	ctx, done := track(ctx, "categories", "List")
	defer func() { done(err) }()

	var categories []*models.Category
	if err = conn(ctx, r.db).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	if err = r.attachPostCounts(ctx, categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CountExisting counts how many of the distinct ids name a category.
func (r *categoryRepository) CountExisting(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := conn(ctx, r.db).Model(&models.Category{}).Where("id IN ?", dedupe(ids)).Count(&count).Error
	return count, err
}

// NameOrSlugTaken reports whether another category already uses the given
// name or slug. Nil arguments are not checked.
func (r *categoryRepository) NameOrSlugTaken(ctx context.Context, name, slug *string, excludeID string) (bool, error) {
	if name == nil && slug == nil {
		return false, nil
	}

	var clauses []string
	var args []interface{}
	if name != nil {
		clauses = append(clauses, "name = ?")
		args = append(args, *name)
	}
	if slug != nil {
		clauses = append(clauses, "slug = ?")
		args = append(args, *slug)
	}

	q := conn(ctx, r.db).Model(&models.Category{}).Where("("+strings.Join(clauses, " OR ")+")", args...)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// CountPosts counts join rows referencing the category, soft-deleted posts included.
func (r *categoryRepository) CountPosts(ctx context.Context, id string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.PostCategory{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

func (r *categoryRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (err error) {
	ctx, done := track(ctx, "categories", "Update")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
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

func (r *categoryRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, "categories", "Delete")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Where("id = ?", id).Delete(&models.Category{})
	if err = res.Error; err != nil {
		r.log.LogError(ctx, "delete", err)
		return err
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogDelete(ctx, id, false)
	return nil
}

func (r *categoryRepository) attachPostCounts(ctx context.Context, categories []*models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}

	var rows []countRow
	if err := conn(ctx, r.db).Model(&models.PostCategory{}).
		Select("category_id AS id, COUNT(*) AS count").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return err
	}

	counts := countsByKey(rows)
	for _, c := range categories {
		c.PostCount = counts[c.ID]
	}
	return nil
}
