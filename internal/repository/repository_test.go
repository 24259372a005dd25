package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type repos struct {
	db         *gorm.DB
	tx         Transactor
	users      UserRepository
	posts      PostRepository
	categories CategoryRepository
	comments   CommentRepository
	profiles   ProfileRepository
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return repos{
		db:         db,
		tx:         NewTransactor(db),
		users:      NewUserRepository(db),
		posts:      NewPostRepository(db),
		categories: NewCategoryRepository(db),
		comments:   NewCommentRepository(db),
		profiles:   NewProfileRepository(db),
	}
}

func strPtr(s string) *string { return &s }

func (r repos) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: strPtr("User " + email)}
	require.NoError(t, r.users.Create(context.Background(), u))
	return u
}

func (r repos) post(t *testing.T, authorID, title string, categoryIDs ...string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, AuthorID: authorID}
	for _, id := range categoryIDs {
		p.Categories = append(p.Categories, models.PostCategory{CategoryID: id})
	}
	require.NoError(t, r.posts.Create(context.Background(), p))
	return p
}

func (r repos) category(t *testing.T, name, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slug}
	require.NoError(t, r.categories.Create(context.Background(), c))
	return c
}

func (r repos) comment(t *testing.T, postID, authorID string, parentID *string) *models.Comment {
	t.Helper()
	c := &models.Comment{Content: "hello", PostID: postID, AuthorID: authorID, ParentID: parentID}
	require.NoError(t, r.comments.Create(context.Background(), c))
	return c
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, r.users.Create(ctx, &models.User{Email: "tx@example.com"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = r.users.GetByEmail(ctx, "tx@example.com")
	assert.True(t, IsNotFound(err))
}

func TestTransactor_NestedCallsJoin(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return r.users.Create(ctx, &models.User{Email: "nested@example.com"})
		})
	})
	require.NoError(t, err)

	u, err := r.users.GetByEmail(ctx, "nested@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	r := setupRepos(t)
	r.user(t, "dup@example.com")

	err := r.users.Create(context.Background(), &models.User{Email: "dup@example.com"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestUserRepository_ListOffsetTotals(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		r.user(t, fmt.Sprintf("user%02d@example.com", i))
	}
	admin := &models.User{Email: "boss@example.com", Role: models.RoleAdmin}
	require.NoError(t, r.users.Create(ctx, admin))

	users, total, err := r.users.List(ctx, UserFilter{}, pagination.Offset{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(26), total)
	assert.Len(t, users, 6)

	users, total, err = r.users.List(ctx, UserFilter{}, pagination.Offset{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(26), total)
	assert.Empty(t, users)

	users, total, err = r.users.List(ctx, UserFilter{Role: models.RoleAdmin}, pagination.Offset{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, admin.ID, users[0].ID)

	_, total, err = r.users.List(ctx, UserFilter{Search: "USER0"}, pagination.Offset{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestUserRepository_SoftDelete(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "gone@example.com")

	require.NoError(t, r.users.SoftDelete(ctx, u.ID))
	assert.True(t, IsNotFound(r.users.SoftDelete(ctx, u.ID)))

	_, err := r.users.GetByID(ctx, u.ID)
	assert.True(t, IsNotFound(err))

	found, err := r.users.GetByEmail(ctx, "gone@example.com")
	require.NoError(t, err)
	assert.True(t, found.DeletedAt.Valid)
}

func TestUserRepository_GetDetail(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "author@example.com")
	for i := 0; i < 12; i++ {
		r.post(t, u.ID, fmt.Sprintf("Post %d", i))
	}
	deleted := r.post(t, u.ID, "Deleted")
	require.NoError(t, r.posts.SoftDelete(ctx, deleted.ID))
	first := r.post(t, u.ID, "Commented")
	r.comment(t, first.ID, u.ID, nil)

	detail, err := r.users.GetDetail(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Len(t, detail.Posts, 10)
	assert.Equal(t, int64(13), detail.PostCount)
	assert.Equal(t, int64(1), detail.CommentCount)
	for _, p := range detail.Posts {
		assert.NotEqual(t, deleted.ID, p.ID)
	}
}

func TestPostRepository_ElevenPostsTwoPages(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "paging@example.com")
	for i := 0; i < 11; i++ {
		r.post(t, u.ID, fmt.Sprintf("Post %d", i))
	}

	first, next, err := r.posts.List(ctx, PostFilter{}, pagination.Cursor{Limit: 10})
	require.NoError(t, err)
	require.Len(t, first, 10)
	require.NotNil(t, next)

	second, last, err := r.posts.List(ctx, PostFilter{}, pagination.Cursor{Limit: 10, Cursor: *next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, last)

	seen := map[string]bool{}
	for _, p := range append(first, second...) {
		assert.False(t, seen[p.ID], "duplicate %s", p.ID)
		seen[p.ID] = true
		require.NotNil(t, p.Author)
	}
	assert.Len(t, seen, 11)
}

func TestPostRepository_ListFilters(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	alice := r.user(t, "alice@example.com")
	bob := r.user(t, "bob@example.com")
	tech := r.category(t, "Tech", "tech")

	p1 := r.post(t, alice.ID, "Go Generics", tech.ID)
	r.post(t, bob.ID, "Gardening")
	require.NoError(t, r.posts.Update(ctx, p1.ID, map[string]interface{}{"status": models.PostStatusPublished}))
	hidden := r.post(t, alice.ID, "generics again")
	require.NoError(t, r.posts.SoftDelete(ctx, hidden.ID))

	posts, _, err := r.posts.List(ctx, PostFilter{Search: "GENERICS"}, pagination.Cursor{Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, p1.ID, posts[0].ID)
	require.Len(t, posts[0].Categories, 1)
	assert.Equal(t, "tech", posts[0].Categories[0].Category.Slug)

	posts, _, err = r.posts.List(ctx, PostFilter{Status: models.PostStatusDraft}, pagination.Cursor{Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, bob.ID, posts[0].AuthorID)

	posts, _, err = r.posts.List(ctx, PostFilter{AuthorID: alice.ID}, pagination.Cursor{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestPostRepository_ReplaceCategoriesInTransaction(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "cats@example.com")
	a := r.category(t, "A", "a")
	b := r.category(t, "B", "b")
	p := r.post(t, u.ID, "Post", a.ID)

	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return r.posts.ReplaceCategories(ctx, p.ID, []string{b.ID, "missing-category"})
	})
	require.Error(t, err)

	detail, err := r.posts.GetDetail(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Categories, 1)
	assert.Equal(t, a.ID, detail.Categories[0].CategoryID)

	require.NoError(t, r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return r.posts.ReplaceCategories(ctx, p.ID, []string{b.ID, b.ID})
	}))
	detail, err = r.posts.GetDetail(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Categories, 1)
	assert.Equal(t, b.ID, detail.Categories[0].CategoryID)
}

func TestPostRepository_GetDetailThreads(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "thread@example.com")
	p := r.post(t, u.ID, "Thread")
	top := r.comment(t, p.ID, u.ID, nil)
	reply := r.comment(t, p.ID, u.ID, &top.ID)
	r.comment(t, p.ID, u.ID, nil)

	detail, err := r.posts.GetDetail(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.CommentCount)
	require.Len(t, detail.Comments, 2)

	var withReply *models.Comment
	for i := range detail.Comments {
		if detail.Comments[i].ID == top.ID {
			withReply = &detail.Comments[i]
		}
	}
	require.NotNil(t, withReply)
	require.Len(t, withReply.Replies, 1)
	assert.Equal(t, reply.ID, withReply.Replies[0].ID)
	assert.NotNil(t, withReply.Replies[0].Author)
}

func TestCategoryRepository_CountsIncludeDeletedPosts(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "cat@example.com")
	c := r.category(t, "Tech", "tech")
	r.category(t, "Art", "art")
	p := r.post(t, u.ID, "Post", c.ID)
	require.NoError(t, r.posts.SoftDelete(ctx, p.ID))

	count, err := r.categories.CountPosts(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	list, err := r.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Art", list[0].Name)
	assert.Equal(t, int64(1), list[1].PostCount)

	detail, err := r.categories.GetDetail(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, detail.Posts, 1)
	require.NotNil(t, detail.Posts[0].Post)
	assert.Equal(t, "Post", detail.Posts[0].Post.Title)

	err = r.categories.Delete(ctx, c.ID)
	assert.Error(t, err)
}

func TestCategoryRepository_NameOrSlugTaken(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	c := r.category(t, "Tech", "tech")

	taken, err := r.categories.NameOrSlugTaken(ctx, strPtr("Other"), strPtr("tech"), "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = r.categories.NameOrSlugTaken(ctx, strPtr("Tech"), nil, c.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = r.categories.NameOrSlugTaken(ctx, nil, nil, "")
	require.NoError(t, err)
	assert.False(t, taken)

	err = r.categories.Create(ctx, &models.Category{Name: "Tech", Slug: "tech-2"})
	assert.True(t, IsUniqueViolation(err))
}

func TestCommentRepository_ThreadsDepthAndCascade(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "c@example.com")
	p := r.post(t, u.ID, "Post")
	top := r.comment(t, p.ID, u.ID, nil)
	reply := r.comment(t, p.ID, u.ID, &top.ID)
	nested := r.comment(t, p.ID, u.ID, &reply.ID)
	for i := 0; i < 3; i++ {
		r.comment(t, p.ID, u.ID, nil)
	}

	depth, err := r.comments.Depth(ctx, nested.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	page, next, err := r.comments.ListThreads(ctx, p.ID, pagination.Cursor{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	require.NotNil(t, next)

	all, next, err := r.comments.ListThreads(ctx, p.ID, pagination.Cursor{Limit: 50})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, all, 4)
	for _, c := range all {
		require.NotNil(t, c.ReplyCount)
		if c.ID == top.ID {
			assert.Equal(t, int64(1), *c.ReplyCount)
			require.Len(t, c.Replies[0].Replies, 1)
			assert.Equal(t, nested.ID, c.Replies[0].Replies[0].ID)
		}
	}

	require.NoError(t, r.comments.Delete(ctx, top.ID))
	_, err = r.comments.GetByID(ctx, nested.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(r.comments.Delete(ctx, top.ID)))
}

func TestProfileRepository_CreateThenUpdate(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := r.user(t, "p@example.com")

	_, err := r.profiles.GetByUserID(ctx, u.ID)
	assert.True(t, IsNotFound(err))

	profile := &models.Profile{UserID: u.ID, Bio: strPtr("hi")}
	require.NoError(t, r.profiles.Create(ctx, profile))
	require.NoError(t, r.profiles.Update(ctx, profile.ID, map[string]interface{}{"website": "https://example.com"}))

	got, err := r.profiles.GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", *got.Bio)
	assert.Equal(t, "https://example.com", *got.Website)
	assert.Nil(t, got.Avatar)
	require.NotNil(t, got.User)
	assert.Equal(t, u.Email, got.User.Email)
}

func TestPostRepository_SearchMatchesLiterally(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	alice := r.user(t, "alice@example.com")
	r.post(t, alice.ID, "plain title")
	snake := r.post(t, alice.ID, "snake_case")
	pct := r.post(t, alice.ID, "100% done")

	tests := []struct {
		search string
		want   []string
	}{
		{"_", []string{snake.ID}},
		{"%", []string{pct.ID}},
		{"e_c", []string{snake.ID}},
		{`\`, nil},
		{"0%", []string{pct.ID}},
	}
	for _, tt := range tests {
		posts, _, err := r.posts.List(ctx, PostFilter{Search: tt.search}, pagination.Cursor{Limit: 10})
		require.NoError(t, err)
		var got []string
		for _, p := range posts {
			got = append(got, p.ID)
		}
		assert.Equal(t, tt.want, got, "search %q", tt.search)
	}
}

func TestUserRepository_SearchMatchesLiterally(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	r.user(t, "plain@example.com")
	snake := r.user(t, "snake_case@example.com")

	users, total, err := r.users.List(ctx, UserFilter{Search: "_"}, pagination.Offset{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, snake.ID, users[0].ID)

	_, total, err = r.users.List(ctx, UserFilter{Search: "%"}, pagination.Offset{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestUserRepository_PageFarBeyondRange(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		r.user(t, fmt.Sprintf("far%d@example.com", i))
	}

	users, total, err := r.users.List(ctx, UserFilter{}, pagination.Offset{Page: 92233720368547760, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, users)
}

func TestPostRepository_DeletedCursorResumes(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	alice := r.user(t, "alice@example.com")
	for i := 0; i < 3; i++ {
		r.post(t, alice.ID, fmt.Sprintf("post %d", i))
	}

	first, next, err := r.posts.List(ctx, PostFilter{}, pagination.Cursor{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NotNil(t, next)
	require.NoError(t, r.posts.SoftDelete(ctx, *next))

	rest, last, err := r.posts.List(ctx, PostFilter{}, pagination.Cursor{Limit: 10, Cursor: *next})
	require.NoError(t, err)
	assert.Nil(t, last)
	require.Len(t, rest, 1)
	assert.NotEqual(t, first[0].ID, rest[0].ID)
	assert.NotEqual(t, *next, rest[0].ID)
}

func TestCategoryRepository_CountExisting(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	tech := r.category(t, "Tech", "tech")
	life := r.category(t, "Life", "life")

	n, err := r.categories.CountExisting(ctx, []string{tech.ID, life.ID, tech.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = r.categories.CountExisting(ctx, []string{tech.ID, models.NewID()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.categories.CountExisting(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
