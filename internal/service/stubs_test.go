package service

import (
	"context"
	"sync"

	"inkwell/internal/events"
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

// passTx runs fn inline; stubs have no transaction to join.
type passTx struct{}

func (passTx) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn     func(context.Context, *models.User) error
	getByIDFn    func(context.Context, string) (*models.User, error)
	getDetailFn  func(context.Context, string, int) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	existsFn     func(context.Context, string) (bool, error)
	listFn       func(context.Context, repository.UserFilter, pagination.Offset) ([]*models.User, int64, error)
	updateFn     func(context.Context, string, map[string]interface{}) error
	softDeleteFn func(context.Context, string) error
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetDetail(ctx context.Context, id string, n int) (*models.User, error) {
	return s.getDetailFn(ctx, id, n)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id string) (bool, error) { return s.existsFn(ctx, id) }
func (s *userRepoStub) List(ctx context.Context, f repository.UserFilter, p pagination.Offset) ([]*models.User, int64, error) {
	return s.listFn(ctx, f, p)
}
func (s *userRepoStub) Update(ctx context.Context, id string, u map[string]interface{}) error {
	return s.updateFn(ctx, id, u)
}
func (s *userRepoStub) SoftDelete(ctx context.Context, id string) error { return s.softDeleteFn(ctx, id) }

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = models.NewID()
			return nil
		},
		getByIDFn:    func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
		getDetailFn:  func(_ context.Context, id string, _ int) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, gorm.ErrRecordNotFound },
		existsFn:     func(_ context.Context, _ string) (bool, error) { return true, nil },
		listFn: func(_ context.Context, _ repository.UserFilter, _ pagination.Offset) ([]*models.User, int64, error) {
			return nil, 0, nil
		},
		updateFn:     func(_ context.Context, _ string, _ map[string]interface{}) error { return nil },
		softDeleteFn: func(_ context.Context, _ string) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn            func(context.Context, *models.Post) error
	getByIDFn           func(context.Context, string) (*models.Post, error)
	getDetailFn         func(context.Context, string) (*models.Post, error)
	listFn              func(context.Context, repository.PostFilter, pagination.Cursor) ([]*models.Post, *string, error)
	listByAuthorFn      func(context.Context, string, models.PostStatus) ([]*models.Post, error)
	existsFn            func(context.Context, string) (bool, error)
	updateFn            func(context.Context, string, map[string]interface{}) error
	replaceCategoriesFn func(context.Context, string, []string) error
	softDeleteFn        func(context.Context, string) error
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetDetail(ctx context.Context, id string) (*models.Post, error) {
	return s.getDetailFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, c pagination.Cursor) ([]*models.Post, *string, error) {
	return s.listFn(ctx, f, c)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, id string, st models.PostStatus) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, id, st)
}
func (s *postRepoStub) Exists(ctx context.Context, id string) (bool, error) { return s.existsFn(ctx, id) }
func (s *postRepoStub) Update(ctx context.Context, id string, u map[string]interface{}) error {
	return s.updateFn(ctx, id, u)
}
func (s *postRepoStub) ReplaceCategories(ctx context.Context, id string, ids []string) error {
	return s.replaceCategoriesFn(ctx, id, ids)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id string) error { return s.softDeleteFn(ctx, id) }

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = models.NewID()
			return nil
		},
		getByIDFn: func(_ context.Context, id string) (*models.Post, error) {
			return &models.Post{ID: id, Status: models.PostStatusDraft}, nil
		},
		getDetailFn: func(_ context.Context, id string) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn: func(_ context.Context, _ repository.PostFilter, _ pagination.Cursor) ([]*models.Post, *string, error) {
			return nil, nil, nil
		},
		listByAuthorFn:      func(_ context.Context, _ string, _ models.PostStatus) ([]*models.Post, error) { return nil, nil },
		existsFn:            func(_ context.Context, _ string) (bool, error) { return true, nil },
		updateFn:            func(_ context.Context, _ string, _ map[string]interface{}) error { return nil },
		replaceCategoriesFn: func(_ context.Context, _ string, _ []string) error { return nil },
		softDeleteFn:        func(_ context.Context, _ string) error { return nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	createFn        func(context.Context, *models.Category) error
	getByIDFn       func(context.Context, string) (*models.Category, error)
	getDetailFn     func(context.Context, string) (*models.Category, error)
	getBySlugFn     func(context.Context, string) (*models.Category, error)
	listFn          func(context.Context) ([]*models.Category, error)
	countExistingFn func(context.Context, []string) (int64, error)
	takenFn         func(context.Context, *string, *string, string) (bool, error)
	countPostsFn    func(context.Context, string) (int64, error)
	updateFn        func(context.Context, string, map[string]interface{}) error
	deleteFn        func(context.Context, string) error
}

func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) GetDetail(ctx context.Context, id string) (*models.Category, error) {
	return s.getDetailFn(ctx, id)
}
func (s *categoryRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *categoryRepoStub) List(ctx context.Context) ([]*models.Category, error) { return s.listFn(ctx) }
func (s *categoryRepoStub) CountExisting(ctx context.Context, ids []string) (int64, error) {
	return s.countExistingFn(ctx, ids)
}
func (s *categoryRepoStub) NameOrSlugTaken(ctx context.Context, name, slug *string, exclude string) (bool, error) {
	return s.takenFn(ctx, name, slug, exclude)
}
func (s *categoryRepoStub) CountPosts(ctx context.Context, id string) (int64, error) {
	return s.countPostsFn(ctx, id)
}
func (s *categoryRepoStub) Update(ctx context.Context, id string, u map[string]interface{}) error {
	return s.updateFn(ctx, id, u)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id string) error { return s.deleteFn(ctx, id) }

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		createFn: func(_ context.Context, c *models.Category) error {
			c.ID = models.NewID()
			return nil
		},
		getByIDFn:       func(_ context.Context, id string) (*models.Category, error) { return &models.Category{ID: id}, nil },
		getDetailFn:     func(_ context.Context, id string) (*models.Category, error) { return &models.Category{ID: id}, nil },
		getBySlugFn:     func(_ context.Context, s string) (*models.Category, error) { return &models.Category{Slug: s}, nil },
		listFn:          func(_ context.Context) ([]*models.Category, error) { return nil, nil },
		countExistingFn: func(_ context.Context, ids []string) (int64, error) { return int64(len(ids)), nil },
		takenFn:         func(_ context.Context, _, _ *string, _ string) (bool, error) { return false, nil },
		countPostsFn:    func(_ context.Context, _ string) (int64, error) { return 0, nil },
		updateFn:        func(_ context.Context, _ string, _ map[string]interface{}) error { return nil },
		deleteFn:        func(_ context.Context, _ string) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, string) (*models.Comment, error)
	getWithAuthorFn func(context.Context, string) (*models.Comment, error)
	depthFn         func(context.Context, string) (int, error)
	listThreadsFn   func(context.Context, string, pagination.Cursor) ([]*models.Comment, *string, error)
	updateContentFn func(context.Context, string, string) error
	deleteFn        func(context.Context, string) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetWithAuthor(ctx context.Context, id string) (*models.Comment, error) {
	return s.getWithAuthorFn(ctx, id)
}
func (s *commentRepoStub) Depth(ctx context.Context, id string) (int, error) { return s.depthFn(ctx, id) }
func (s *commentRepoStub) ListThreads(ctx context.Context, postID string, c pagination.Cursor) ([]*models.Comment, *string, error) {
	return s.listThreadsFn(ctx, postID, c)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, id, content string) error {
	return s.updateContentFn(ctx, id, content)
}
func (s *commentRepoStub) Delete(ctx context.Context, id string) error { return s.deleteFn(ctx, id) }

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = models.NewID()
			return nil
		},
		getByIDFn:       func(_ context.Context, id string) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		getWithAuthorFn: func(_ context.Context, id string) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		depthFn:         func(_ context.Context, _ string) (int, error) { return 0, nil },
		listThreadsFn: func(_ context.Context, _ string, _ pagination.Cursor) ([]*models.Comment, *string, error) {
			return nil, nil, nil
		},
		updateContentFn: func(_ context.Context, _, _ string) error { return nil },
		deleteFn:        func(_ context.Context, _ string) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByUserIDFn func(context.Context, string) (*models.Profile, error)
	createFn      func(context.Context, *models.Profile) error
	updateFn      func(context.Context, string, map[string]interface{}) error
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) Create(ctx context.Context, p *models.Profile) error {
	return s.createFn(ctx, p)
}
func (s *profileRepoStub) Update(ctx context.Context, id string, u map[string]interface{}) error {
	return s.updateFn(ctx, id, u)
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
