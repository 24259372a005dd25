package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/pagination"

	"gorm.io/gorm"
)

// UserFilter narrows a user listing. Empty fields do not filter.
type UserFilter struct {
	Search string
	Role   models.Role
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetDetail(ctx context.Context, id string, recentPosts int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter UserFilter, page pagination.Offset) ([]*models.User, int64, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, id string) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := track(ctx, "users", "Create")
	defer func() { done(err) }()

	if err = conn(ctx, r.db).Create(user).Error; err != nil {
		r.log.LogError(ctx, "create", err)
		return err
	}
	r.log.LogCreate(ctx, user.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (_ *models.User, err error) {
	ctx, done := track(ctx, "users", "GetByID")
	defer func() { done(err) }()

	var user models.User
	if err = conn(ctx, r.db).Preload("Profile").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDetail loads a live user with its profile, its most recent live posts
// and post and comment counts.
func (r *userRepository) GetDetail(ctx context.Context, id string, recentPosts int) (_ *models.User, err error) {
	ctx, done := track(ctx, "users", "GetDetail")
	defer func() { done(err) }()

	var user models.User
	err = conn(ctx, r.db).
		Preload("Profile").
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(pagination.OrderScope("posts")).Limit(recentPosts)
		}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	if err = r.attachCounts(ctx, []*models.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail matches the address exactly, soft-deleted users included, since
// the unique index covers them too.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (_ *models.User, err error) {
	ctx, done := track(ctx, "users", "GetByEmail")
	defer func() { done(err) }()

	var user models.User
	if err = conn(ctx, r.db).Unscoped().Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) filtered(ctx context.Context, filter UserFilter) *gorm.DB {
	q := conn(ctx, r.db).Model(&models.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := containsPattern(filter.Search)
		q = q.Where(`(LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(email) LIKE LOWER(?) ESCAPE '\')`, like, like)
	}
	return q
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page pagination.Offset) (_ []*models.User, total int64, err error) {
	ctx, done := track(ctx, "users", "List")
	defer func() { done(err) }()

	if err = r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	err = r.filtered(ctx, filter).
		Preload("Profile").
		Scopes(pagination.OrderScope("users"), page.Scope).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	if err = r.attachCounts(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (err error) {
	ctx, done := track(ctx, "users", "Update")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(updates)
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

// SoftDelete fails with gorm.ErrRecordNotFound when the user is absent or already deleted.
func (r *userRepository) SoftDelete(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, "users", "SoftDelete")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Where("id = ?", id).Delete(&models.User{})
	if err = res.Error; err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogDelete(ctx, id, true)
	return nil
}

// attachCounts fills PostCount (live posts) and CommentCount in two grouped queries.
func (r *userRepository) attachCounts(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	var postRows, commentRows []countRow
	if err := conn(ctx, r.db).Model(&models.Post{}).
		Select("author_id AS id, COUNT(*) AS count").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&postRows).Error; err != nil {
		return err
	}
	if err := conn(ctx, r.db).Model(&models.Comment{}).
		Select("author_id AS id, COUNT(*) AS count").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&commentRows).Error; err != nil {
		return err
	}

	posts, comments := countsByKey(postRows), countsByKey(commentRows)
	for _, u := range users {
		u.PostCount = posts[u.ID]
		u.CommentCount = comments[u.ID]
	}
	return nil
}

func mapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
