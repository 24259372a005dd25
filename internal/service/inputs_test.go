package service

import (
	"strings"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/stretchr/testify/assert"
)

func TestInputValidation(t *testing.T) {
	t.Parallel()
	id := models.NewID()
	badRole := models.Role("ROOT")
	badStatus := models.PostStatus("GONE")

	tests := []struct {
		name    string
		input   validation.Validator
		wantErr bool
	}{
		{"id ok", IDInput{ID: id}, false},
		{"id malformed", IDInput{ID: "42"}, true},
		{"list users defaults", ListUsersInput{}, false},
		{"list users page zero", ListUsersInput{Page: intPtr(0)}, true},
		{"list users limit over", ListUsersInput{Limit: intPtr(101)}, true},
		{"list users bad role", ListUsersInput{Role: &badRole}, true},
		{"create user", CreateUserInput{Email: "ada@example.com"}, false},
		{"create user bad email", CreateUserInput{Email: "ada"}, true},
		{"create user empty name", CreateUserInput{Email: "ada@example.com", Name: strPtr("")}, true},
		{"list posts limit 100", ListPostsInput{Limit: intPtr(100)}, false},
		{"list posts limit 0", ListPostsInput{Limit: intPtr(0)}, true},
		{"list posts bad cursor", ListPostsInput{Cursor: strPtr("x")}, true},
		{"list posts bad status", ListPostsInput{Status: &badStatus}, true},
		{"create post", CreatePostInput{Title: "t", AuthorID: id}, false},
		{"create post long title", CreatePostInput{Title: strings.Repeat("t", 256), AuthorID: id}, true},
		{"create post bad category", CreatePostInput{Title: "t", AuthorID: id, CategoryIDs: []string{"c"}}, true},
		{"update post empty title", UpdatePostInput{ID: id, Title: strPtr("")}, true},
		{"create category", CreateCategoryInput{Name: "Tech", Slug: "tech"}, false},
		{"create category bad slug", CreateCategoryInput{Name: "Tech", Slug: "Tech"}, true},
		{"update category long name", UpdateCategoryInput{ID: id, Name: strPtr(strings.Repeat("n", 101))}, true},
		{"comments limit 50", GetCommentsInput{PostID: id, Limit: intPtr(50)}, false},
		{"comments limit 51", GetCommentsInput{PostID: id, Limit: intPtr(51)}, true},
		{"create comment too long", CreateCommentInput{Content: strings.Repeat("c", 5001), AuthorID: id, PostID: id}, true},
		{"create comment", CreateCommentInput{Content: "c", AuthorID: id, PostID: id, ParentID: &id}, false},
		{"update comment empty", UpdateCommentInput{ID: id}, true},
		{"upsert profile", UpsertProfileInput{UserID: id, Bio: strPtr(""), Website: strPtr("https://x.dev")}, false},
		{"upsert profile long bio", UpsertProfileInput{UserID: id, Bio: strPtr(strings.Repeat("b", 501))}, true},
		{"upsert profile bad avatar", UpsertProfileInput{UserID: id, Avatar: strPtr("not a url")}, true},
		{"slug", SlugInput{Slug: "go"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.True(t, models.IsValidation(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
