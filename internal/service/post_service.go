package service

import (
	"context"

	"inkwell/internal/events"
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
)

const (
	msgOnlyDraftPublish   = "Only draft posts can be published"
	msgOnlyPublishArchive = "Only published posts can be archived"
	msgAuthorNotFound     = "Author not found"
)

type PostService struct {
	tx         repository.Transactor
	posts      repository.PostRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	events     EventPublisher
}

func NewPostService(
	tx repository.Transactor,
	posts repository.PostRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	publisher EventPublisher,
) *PostService {
	return &PostService{
		tx:         tx,
		posts:      posts,
		users:      users,
		categories: categories,
		events:     publisherOrNoop(publisher),
	}
}

// List returns one cursor page of live posts.
func (s *PostService) List(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	filter := repository.PostFilter{AuthorID: strOr(in.AuthorID), Search: strOr(in.Search)}
	if in.Status != nil {
		filter.Status = *in.Status
	}
	page := pagination.Cursor{Limit: intOr(in.Limit, pagination.DefaultPostLimit), Cursor: strOr(in.Cursor)}

	posts, next, err := s.posts.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	for _, p := range posts {
		p.AuthorSummary = p.Author.Summary(models.SummaryEmail)
	}
	return &models.PostPage{Items: posts, NextCursor: next}, nil
}

// GetByID returns a live post with author, categories and comment threads.
func (s *PostService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.GetDetail(ctx, id)
	if err != nil {
		return nil, notFound(err, models.NewNotFoundError("Post", id))
	}
	summarizeDetail(post)
	return post, nil
}

func summarizeDetail(post *models.Post) {
	post.AuthorSummary = post.Author.Summary(models.SummaryFull)
	for i := range post.Comments {
		c := &post.Comments[i]
		c.AuthorSummary = c.Author.Summary(models.SummaryName)
		for j := range c.Replies {
			c.Replies[j].AuthorSummary = c.Replies[j].Author.Summary(models.SummaryName)
		}
	}
}

// GetByUser lists every live post of one author, newest first.
func (s *PostService) GetByUser(ctx context.Context, in GetPostsByUserInput) ([]*models.Post, error) {
	var status models.PostStatus
	if in.Status != nil {
		status = *in.Status
	}
	posts, err := s.posts.ListByAuthor(ctx, in.UserID, status)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// Create stores a DRAFT post for a live author. Every category must exist.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	var post *models.Post
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.users.Exists(ctx, in.AuthorID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundMessage(msgAuthorNotFound)
		}
		if err := s.requireCategories(ctx, in.CategoryIDs); err != nil {
			return err
		}

		created := &models.Post{
			Title:    in.Title,
			Content:  in.Content,
			Status:   models.PostStatusDraft,
			AuthorID: in.AuthorID,
		}
		for _, id := range uniqueIDs(in.CategoryIDs) {
			created.Categories = append(created.Categories, models.PostCategory{CategoryID: id})
		}
		if err := s.posts.Create(ctx, created); err != nil {
			return err
		}

		post, err = s.posts.GetDetail(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	summarizeDetail(post)
	s.events.Publish(ctx, events.New(events.PostCreated, post.ID, postEventPayload(post)))
	return post, nil
}

// Update replaces the supplied fields in any status. Category replacement is all-or-nothing.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	var post *models.Post
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.posts.GetByID(ctx, in.ID); err != nil {
			return notFound(err, models.NewNotFoundError("Post", in.ID))
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.Content != nil {
			updates["content"] = *in.Content
		}
		if len(updates) > 0 {
			if err := s.posts.Update(ctx, in.ID, updates); err != nil {
				return err
			}
		}

		if in.CategoryIDs != nil {
			if err := s.requireCategories(ctx, *in.CategoryIDs); err != nil {
				return err
			}
			if err := s.posts.ReplaceCategories(ctx, in.ID, *in.CategoryIDs); err != nil {
				return err
			}
		}

		var err error
		post, err = s.posts.GetDetail(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	summarizeDetail(post)
	return post, nil
}

// Publish moves a DRAFT post to PUBLISHED.
func (s *PostService) Publish(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.transition(ctx, id, models.PostStatusDraft, models.PostStatusPublished, msgOnlyDraftPublish)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.New(events.PostPublished, post.ID, postEventPayload(post)))
	return post, nil
}

// Archive moves a PUBLISHED post to ARCHIVED.
func (s *PostService) Archive(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.transition(ctx, id, models.PostStatusPublished, models.PostStatusArchived, msgOnlyPublishArchive)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.New(events.PostArchived, post.ID, postEventPayload(post)))
	return post, nil
}

func (s *PostService) transition(ctx context.Context, id string, from, to models.PostStatus, refusal string) (*models.Post, error) {
	var post *models.Post
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return notFound(err, models.NewNotFoundError("Post", id))
		}
		if current.Status != from {
			return models.NewBadRequestError(refusal)
		}
		if err := s.posts.Update(ctx, id, map[string]interface{}{"status": to}); err != nil {
			return err
		}
		post, err = s.posts.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Delete soft-deletes a live post in any status and returns it as it was.
func (s *PostService) Delete(ctx context.Context, id string) (*models.Post, error) {
	var post *models.Post
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		post, err = s.posts.GetByID(ctx, id)
		if err != nil {
			return notFound(err, models.NewNotFoundError("Post", id))
		}
		return notFound(s.posts.SoftDelete(ctx, id), models.NewNotFoundError("Post", id))
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.New(events.PostDeleted, post.ID, postEventPayload(post)))
	return post, nil
}

// requireCategories checks every id in one count and only looks ids up one by
// one to name the missing category.
func (s *PostService) requireCategories(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	found, err := s.categories.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if found == int64(len(ids)) {
		return nil
	}
	for _, id := range ids {
		if _, err := s.categories.GetByID(ctx, id); err != nil {
			return notFound(err, models.NewNotFoundError("Category", id))
		}
	}
	return nil
}

type postEvent struct {
	Title    string            `json:"title"`
	Status   models.PostStatus `json:"status"`
	AuthorID string            `json:"authorId"`
}

func postEventPayload(p *models.Post) postEvent {
	return postEvent{Title: p.Title, Status: p.Status, AuthorID: p.AuthorID}
}

func uniqueIDs(ids []string) []string {
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
