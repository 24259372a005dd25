package repository

import (
	"context"
	"fmt"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/pagination"

	"gorm.io/gorm"
)

// maxAncestry bounds parent walks so a corrupted parent cycle cannot loop forever.
const maxAncestry = 64

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	GetWithAuthor(ctx context.Context, id string) (*models.Comment, error)
	Depth(ctx context.Context, id string) (int, error)
	ListThreads(ctx context.Context, postID string, page pagination.Cursor) ([]*models.Comment, *string, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func oldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (err error) {
	ctx, done := track(ctx, "comments", "Create")
	defer func() { done(err) }()

	if err = conn(ctx, r.db).Create(comment).Error; err != nil {
		r.log.LogError(ctx, "create", err)
		return err
	}
	r.log.LogCreate(ctx, comment.ID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (_ *models.Comment, err error) {
	ctx, done := track(ctx, "comments", "GetByID")
	defer func() { done(err) }()

	var comment models.Comment
	if err = conn(ctx, r.db).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) GetWithAuthor(ctx context.Context, id string) (_ *models.Comment, err error) {
	ctx, done := track(ctx, "comments", "GetWithAuthor")
	defer func() { done(err) }()

	var comment models.Comment
	if err = conn(ctx, r.db).Preload("Author", unscopedAuthor).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Depth returns how many ancestors the comment has: 0 for a top-level comment.
func (r *commentRepository) Depth(ctx context.Context, id string) (int, error) {
	depth := 0
	current := id
	for depth <= maxAncestry {
		var parent struct{ ParentID *string }
		err := conn(ctx, r.db).Model(&models.Comment{}).Select("parent_id").Where("id = ?", current).Take(&parent).Error
		if err != nil {
			return 0, err
		}
		if parent.ParentID == nil {
			return depth, nil
		}
		depth++
		current = *parent.ParentID
	}
	return 0, fmt.Errorf("comment %s: ancestry deeper than %d", id, maxAncestry)
}

// ListThreads returns one cursor page of a post's top-level comments, newest
// first. Each carries its replies and their replies, oldest first, and a
// count of direct replies.
func (r *commentRepository) ListThreads(ctx context.Context, postID string, page pagination.Cursor) (_ []*models.Comment, next *string, err error) {
	ctx, done := track(ctx, "comments", "ListThreads")
	defer func() { done(err) }()

	var comments []*models.Comment
	err = conn(ctx, r.db).
		Model(&models.Comment{}).
		Where("comments.post_id = ? AND comments.parent_id IS NULL", postID).
		Preload("Author", unscopedAuthor).
		Preload("Replies", oldestFirst).
		Preload("Replies.Author", unscopedAuthor).
		Preload("Replies.Replies", oldestFirst).
		Preload("Replies.Replies.Author", unscopedAuthor).
		Scopes(pagination.CursorScope("comments", page)).
		Find(&comments).Error
	if err != nil {
		return nil, nil, err
	}

	comments, next = pagination.Trim(comments, page.Limit, func(c *models.Comment) string { return c.ID })
	for _, c := range comments {
		n := int64(len(c.Replies))
		c.ReplyCount = &n
	}
	return comments, next, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id, content string) (err error) {
	ctx, done := track(ctx, "comments", "UpdateContent")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if err = res.Error; err != nil {
		r.log.LogError(ctx, "update", err)
		return err
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogUpdate(ctx, id, "content")
	return nil
}

// Delete removes the comment; the storage layer cascades to its replies.
func (r *commentRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, "comments", "Delete")
	defer func() { done(err) }()

	res := conn(ctx, r.db).Where("id = ?", id).Delete(&models.Comment{})
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
