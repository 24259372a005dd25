package service

import (
	"context"

	"inkwell/internal/events"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
)

const (
	msgPostNotFound        = "Post not found"
	msgParentNotFound      = "Parent comment not found"
	msgParentOtherPost     = "Parent comment does not belong to this post"
	defaultCommentMaxDepth = 2
)

type CommentService struct {
	tx       repository.Transactor
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	flags    *featureflags.Manager
	maxDepth int
	events   EventPublisher
}

// CommentServiceConfig tunes comment threading.
type CommentServiceConfig struct {
	// MaxDepth is the deepest reply level stored; top-level comments are depth 0.
	MaxDepth int
	Flags    *featureflags.Manager
}

func NewCommentService(
	tx repository.Transactor,
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	cfg CommentServiceConfig,
	publisher EventPublisher,
) *CommentService {
	if cfg.MaxDepth < 1 {
		cfg.MaxDepth = defaultCommentMaxDepth
	}
	return &CommentService{
		tx:       tx,
		comments: comments,
		posts:    posts,
		users:    users,
		flags:    cfg.Flags,
		maxDepth: cfg.MaxDepth,
		events:   publisherOrNoop(publisher),
	}
}

// GetByPost returns one cursor page of the post's top-level comments with two reply levels.
func (s *CommentService) GetByPost(ctx context.Context, in GetCommentsInput) (*models.CommentPage, error) {
	page := pagination.Cursor{Limit: intOr(in.Limit, pagination.DefaultCommentLimit), Cursor: strOr(in.Cursor)}
	comments, next, err := s.comments.ListThreads(ctx, in.PostID, page)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	for _, c := range comments {
		summarizeThread(c)
	}
	return &models.CommentPage{Items: comments, NextCursor: next}, nil
}

func summarizeThread(c *models.Comment) {
	c.AuthorSummary = c.Author.Summary(models.SummaryName)
	for i := range c.Replies {
		summarizeThread(&c.Replies[i])
	}
}

// Create adds a comment to a live post. A reply to a comment already at the
// depth cap is attached to that comment's parent instead.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	var comment *models.Comment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.posts.Exists(ctx, in.PostID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundMessage(msgPostNotFound)
		}

		if s.flags.Enabled(featureflags.VerifyCommentAuthor, in.AuthorID) {
			ok, err := s.users.Exists(ctx, in.AuthorID)
			if err != nil {
				return err
			}
			if !ok {
				return models.NewNotFoundMessage(msgAuthorNotFound)
			}
		}

		parentID, err := s.resolveParent(ctx, in.PostID, in.ParentID)
		if err != nil {
			return err
		}

		created := &models.Comment{
			Content:  in.Content,
			AuthorID: in.AuthorID,
			PostID:   in.PostID,
			ParentID: parentID,
		}
		if err := s.comments.Create(ctx, created); err != nil {
			return err
		}
		comment, err = s.comments.GetWithAuthor(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	comment.AuthorSummary = comment.Author.Summary(models.SummaryName)
	s.events.Publish(ctx, events.New(events.CommentCreated, comment.ID, map[string]interface{}{
		"postId":   comment.PostID,
		"parentId": comment.ParentID,
		"authorId": comment.AuthorID,
	}))
	return comment, nil
}

// resolveParent checks the requested parent and returns the parent id to store.
func (s *CommentService) resolveParent(ctx context.Context, postID string, requested *string) (*string, error) {
	if requested == nil {
		return nil, nil
	}

	parent, err := s.comments.GetByID(ctx, *requested)
	if err != nil {
		return nil, notFound(err, models.NewNotFoundMessage(msgParentNotFound))
	}
	if parent.PostID != postID {
		return nil, models.NewBadRequestError(msgParentOtherPost)
	}

	depth, err := s.comments.Depth(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	for depth >= s.maxDepth && parent.ParentID != nil {
		parent, err = s.comments.GetByID(ctx, *parent.ParentID)
		if err != nil {
			return nil, err
		}
		depth--
	}
	return &parent.ID, nil
}

func (s *CommentService) Update(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	var comment *models.Comment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.comments.UpdateContent(ctx, in.ID, in.Content); err != nil {
			return notFound(err, models.NewNotFoundError("Comment", in.ID))
		}
		var err error
		comment, err = s.comments.GetWithAuthor(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	comment.AuthorSummary = comment.Author.Summary(models.SummaryName)
	return comment, nil
}

// Delete removes the comment and, through the storage layer, its replies.
func (s *CommentService) Delete(ctx context.Context, id string) (*models.Comment, error) {
	var comment *models.Comment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		comment, err = s.comments.GetByID(ctx, id)
		if err != nil {
			return notFound(err, models.NewNotFoundError("Comment", id))
		}
		return notFound(s.comments.Delete(ctx, id), models.NewNotFoundError("Comment", id))
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
