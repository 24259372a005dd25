package service

import (
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/validation"
)

const (
	maxTitleLen       = 255
	maxCommentLen     = 5000
	maxCategoryLen    = 100
	maxBioLen         = 500
	maxNameLen        = 255
	recentPostsOnUser = 10
)

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func strOr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// IDInput addresses one record.
type IDInput struct {
	ID string `json:"id"`
}

func (in IDInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("id", in.ID)
	return errs.Err()
}

// ListUsersInput selects one offset page of users.
type ListUsersInput struct {
	Page   *int         `json:"page"`
	Limit  *int         `json:"limit"`
	Search *string      `json:"search"`
	Role   *models.Role `json:"role"`
}

func (in ListUsersInput) Validate() error {
	errs := validation.Errors{}
	errs.Min("page", in.Page, 1)
	errs.Range("limit", in.Limit, 1, pagination.MaxPageLimit)
	errs.Role("role", in.Role)
	return errs.Err()
}

func (in ListUsersInput) offset() pagination.Offset {
	return pagination.Offset{
		Page:  intOr(in.Page, pagination.DefaultPage),
		Limit: intOr(in.Limit, pagination.DefaultPageLimit),
	}
}

type CreateUserInput struct {
	Email string       `json:"email"`
	Name  *string      `json:"name"`
	Role  *models.Role `json:"role"`
}

func (in CreateUserInput) Validate() error {
	errs := validation.Errors{}
	errs.Email("email", in.Email)
	if in.Name != nil {
		errs.Length("name", *in.Name, 1, maxNameLen)
	}
	errs.Role("role", in.Role)
	return errs.Err()
}

type UpdateUserInput struct {
	ID    string       `json:"id"`
	Email *string      `json:"email"`
	Name  *string      `json:"name"`
	Role  *models.Role `json:"role"`
}

func (in UpdateUserInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("id", in.ID)
	if in.Email != nil {
		errs.Email("email", *in.Email)
	}
	if in.Name != nil {
		errs.Length("name", *in.Name, 1, maxNameLen)
	}
	errs.Role("role", in.Role)
	return errs.Err()
}

// ListPostsInput selects one cursor page of posts.
type ListPostsInput struct {
	Limit    *int               `json:"limit"`
	Cursor   *string            `json:"cursor"`
	Status   *models.PostStatus `json:"status"`
	AuthorID *string            `json:"authorId"`
	Search   *string            `json:"search"`
}

func (in ListPostsInput) Validate() error {
	errs := validation.Errors{}
	errs.Range("limit", in.Limit, 1, pagination.MaxPostLimit)
	errs.OptionalID("cursor", in.Cursor)
	errs.Status("status", in.Status)
	errs.OptionalID("authorId", in.AuthorID)
	return errs.Err()
}

type GetPostsByUserInput struct {
	UserID string             `json:"userId"`
	Status *models.PostStatus `json:"status"`
}

func (in GetPostsByUserInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("userId", in.UserID)
	errs.Status("status", in.Status)
	return errs.Err()
}

type CreatePostInput struct {
	Title       string   `json:"title"`
	Content     *string  `json:"content"`
	AuthorID    string   `json:"authorId"`
	CategoryIDs []string `json:"categoryIds"`
}

func (in CreatePostInput) Validate() error {
	errs := validation.Errors{}
	errs.Length("title", in.Title, 1, maxTitleLen)
	errs.ID("authorId", in.AuthorID)
	errs.IDs("categoryIds", in.CategoryIDs)
	return errs.Err()
}

// UpdatePostInput replaces the supplied fields. A non-nil CategoryIDs replaces
// every category association, an empty list removing them all.
type UpdatePostInput struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	CategoryIDs *[]string `json:"categoryIds"`
}

func (in UpdatePostInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("id", in.ID)
	if in.Title != nil {
		errs.Length("title", *in.Title, 1, maxTitleLen)
	}
	if in.CategoryIDs != nil {
		errs.IDs("categoryIds", *in.CategoryIDs)
	}
	return errs.Err()
}

type SlugInput struct {
	Slug string `json:"slug"`
}

func (in SlugInput) Validate() error {
	errs := validation.Errors{}
	errs.Slug("slug", in.Slug, maxCategoryLen)
	return errs.Err()
}

type CreateCategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (in CreateCategoryInput) Validate() error {
	errs := validation.Errors{}
	errs.Length("name", in.Name, 1, maxCategoryLen)
	errs.Slug("slug", in.Slug, maxCategoryLen)
	return errs.Err()
}

type UpdateCategoryInput struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

func (in UpdateCategoryInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("id", in.ID)
	if in.Name != nil {
		errs.Length("name", *in.Name, 1, maxCategoryLen)
	}
	if in.Slug != nil {
		errs.Slug("slug", *in.Slug, maxCategoryLen)
	}
	return errs.Err()
}

// GetCommentsInput selects one cursor page of a post's comment threads.
type GetCommentsInput struct {
	PostID string  `json:"postId"`
	Limit  *int    `json:"limit"`
	Cursor *string `json:"cursor"`
}

func (in GetCommentsInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("postId", in.PostID)
	errs.Range("limit", in.Limit, 1, pagination.MaxCommentLimit)
	errs.OptionalID("cursor", in.Cursor)
	return errs.Err()
}

type CreateCommentInput struct {
	Content  string  `json:"content"`
	AuthorID string  `json:"authorId"`
	PostID   string  `json:"postId"`
	ParentID *string `json:"parentId"`
}

func (in CreateCommentInput) Validate() error {
	errs := validation.Errors{}
	errs.Length("content", in.Content, 1, maxCommentLen)
	errs.ID("authorId", in.AuthorID)
	errs.ID("postId", in.PostID)
	errs.OptionalID("parentId", in.ParentID)
	return errs.Err()
}

type UpdateCommentInput struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func (in UpdateCommentInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("id", in.ID)
	errs.Length("content", in.Content, 1, maxCommentLen)
	return errs.Err()
}

type UserIDInput struct {
	UserID string `json:"userId"`
}

func (in UserIDInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("userId", in.UserID)
	return errs.Err()
}

// UpsertProfileInput sets the supplied profile fields; absent fields keep
// their stored value, or stay null on creation.
type UpsertProfileInput struct {
	UserID  string  `json:"userId"`
	Bio     *string `json:"bio"`
	Avatar  *string `json:"avatar"`
	Website *string `json:"website"`
}

func (in UpsertProfileInput) Validate() error {
	errs := validation.Errors{}
	errs.ID("userId", in.UserID)
	if in.Bio != nil {
		errs.Length("bio", *in.Bio, 0, maxBioLen)
	}
	if in.Avatar != nil {
		errs.URL("avatar", *in.Avatar)
	}
	if in.Website != nil {
		errs.URL("website", *in.Website)
	}
	return errs.Err()
}
