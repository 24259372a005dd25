package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/pagination"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Empty fields do not filter.
type PostFilter struct {
	Status   models.PostStatus
	AuthorID string
	Search   string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetDetail(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, page pagination.Cursor) ([]*models.Post, *string, error)
	ListByAuthor(ctx context.Context, authorID string, status models.PostStatus) ([]*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	ReplaceCategories(ctx context.Context, postID string, categoryIDs []string) error
	SoftDelete(ctx context.Context, id string) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func unscopedAuthor(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func categoriesInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("assigned_at ASC")
}

// Create inserts the post together with any join rows already set in post.Categories.
func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, done := track(ctx, "posts", "Create")
	defer func() { done(err) }()

	if err = conn(ctx, r.db).Create(post).Error; err != nil {
		r.log.LogError(ctx, "create", err)
		return err
	}
	r.log.LogCreate(ctx, post.ID)
	return nil
}

// GetByID loads a live post without relations.
func (r *postRepository) GetByID(ctx context.Context, id string) (_ *models.Post, err error) {
	ctx, done := track(ctx, "posts", "GetByID")
	defer func() { done(err) }()

	var post models.Post
	if err = conn(ctx, r.db).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetDetail loads a live post with its author, categories, top-level comments
// (newest first) with their replies (oldest first), and its comment count.
func (r *postRepository) GetDetail(ctx context.Context, id string) (_ *models.Post, err error) {
	ctx, done := track(ctx, "posts", "GetDetail")
	defer func() { done(err) }()

	var post models.Post
	err = conn(ctx, r.db).
		Preload("Author", unscopedAuthor).
		Preload("Categories", categoriesInOrder).
		Preload("Categories.Category").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Where("parent_id IS NULL").Scopes(pagination.OrderScope("comments"))
		}).
		Preload("Comments.Author", unscopedAuthor).
		Preload("Comments.Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Comments.Replies.Author", unscopedAuthor).
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	if err = r.attachCommentCounts(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns one cursor page of live posts with author, categories and comment counts.
func (r *postRepository) List(ctx context.Context, filter PostFilter, page pagination.Cursor) (_ []*models.Post, next *string, err error) {
	ctx, done := track(ctx, "posts", "List")
	defer func() { done(err) }()

	q := conn(ctx, r.db).Model(&models.Post{})
	if filter.Status != "" {
		q = q.Where("posts.status = ?", filter.Status)
	}
	if filter.AuthorID != "" {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.Search != "" {
		like := containsPattern(filter.Search)
		q = q.Where(`(LOWER(posts.title) LIKE LOWER(?) ESCAPE '\' OR LOWER(posts.content) LIKE LOWER(?) ESCAPE '\')`, like, like)
	}

	var posts []*models.Post
	err = q.
		Preload("Author", unscopedAuthor).
		Preload("Categories", categoriesInOrder).
		Preload("Categories.Category").
		Scopes(pagination.CursorScope("posts", page)).
		Find(&posts).Error
	if err != nil {
		return nil, nil, err
	}

	posts, next = pagination.Trim(posts, page.Limit, func(p *models.Post) string { return p.ID })
	if err = r.attachCommentCounts(ctx, posts); err != nil {
		return nil, nil, err
	}
	return posts, next, nil
}

// ListByAuthor returns every live post by the author, newest first.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID string, status models.PostStatus) (_ []*models.Post, err error) {
	ctx, done := track(ctx, "posts", "ListByAuthor")
	defer func() { done(err) }()

	q := conn(ctx, r.db).Where("author_id = ?", authorID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var posts []*models.Post
	err = q.
		Preload("Categories", categoriesInOrder).
		Preload("Categories.Category").
		Scopes(pagination.OrderScope("posts")).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	if err = r.attachCommentCounts(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *postRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (err error) {
	ctx, done := track(ctx, "posts", "Update")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Model(&models.Post{}).Where("id = ?", id).Updates(updates)
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

// ReplaceCategories swaps the post's join rows for categoryIDs. Call it inside
// a transaction so the swap is all-or-nothing.
func (r *postRepository) ReplaceCategories(ctx context.Context, postID string, categoryIDs []string) (err error) {
	ctx, done := track(ctx, "post_categories", "Replace")
	defer func() { done(err) }()

	db := conn(ctx, r.db)
	if err = db.Where("post_id = ?", postID).Delete(&models.PostCategory{}).Error; err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]models.PostCategory, 0, len(categoryIDs))
	for _, id := range dedupe(categoryIDs) {
		rows = append(rows, models.PostCategory{PostID: postID, CategoryID: id})
	}
	return db.Create(&rows).Error
}

// SoftDelete fails with gorm.ErrRecordNotFound when the post is absent or already deleted.
func (r *postRepository) SoftDelete(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, "posts", "SoftDelete")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Where("id = ?", id).Delete(&models.Post{})
	if err = res.Error; err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogDelete(ctx, id, true)
	return nil
}

func (r *postRepository) attachCommentCounts(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var rows []countRow
	if err := conn(ctx, r.db).Model(&models.Comment{}).
		Select("post_id AS id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return err
	}

	counts := countsByKey(rows)
	for _, p := range posts {
		p.CommentCount = counts[p.ID]
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
