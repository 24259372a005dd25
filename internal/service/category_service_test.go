package service

import (
	"context"
	"testing"

	"inkwell/internal/events"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCategoryService_CreateConflict(t *testing.T) {
	t.Parallel()
	cats := noopCategoryRepo()
	cats.takenFn = func(_ context.Context, name, slug *string, exclude string) (bool, error) {
		return *slug == "tech", nil
	}
	pub := &recordingPublisher{}
	svc := NewCategoryService(passTx{}, cats, pub)

	created, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Tech", Slug: "tech-news"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = svc.Create(context.Background(), CreateCategoryInput{Name: "Technology", Slug: "tech"})
	assertCode(t, err, models.CodeConflict)
	assert.Equal(t, msgCategoryTaken, err.Error())
	assert.Equal(t, []string{events.CategoryCreated}, pub.types())
}

func TestCategoryService_CreateUniqueViolationRace(t *testing.T) {
	t.Parallel()
	cats := noopCategoryRepo()
	cats.createFn = func(_ context.Context, _ *models.Category) error { return gorm.ErrDuplicatedKey }
	svc := NewCategoryService(passTx{}, cats, nil)

	_, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Tech", Slug: "tech"})
	assertCode(t, err, models.CodeConflict)
}

func TestCategoryService_UpdateExcludesSelfAndChecksSuppliedFields(t *testing.T) {
	t.Parallel()
	var gotName, gotSlug *string
	var gotExclude string
	cats := noopCategoryRepo()
	cats.takenFn = func(_ context.Context, name, slug *string, exclude string) (bool, error) {
		gotName, gotSlug, gotExclude = name, slug, exclude
		return false, nil
	}
	svc := NewCategoryService(passTx{}, cats, nil)

	_, err := svc.Update(context.Background(), UpdateCategoryInput{ID: "c1", Slug: strPtr("new-slug")})
	require.NoError(t, err)
	assert.Nil(t, gotName)
	assert.Equal(t, "new-slug", *gotSlug)
	assert.Equal(t, "c1", gotExclude)
}

func TestCategoryService_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("blocked by associations", func(t *testing.T) {
		t.Parallel()
		deleted := false
		cats := noopCategoryRepo()
		cats.countPostsFn = func(_ context.Context, _ string) (int64, error) { return 2, nil }
		cats.deleteFn = func(_ context.Context, _ string) error {
			deleted = true
			return nil
		}
		_, err := NewCategoryService(passTx{}, cats, nil).Delete(ctx, "c1")
		assertCode(t, err, models.CodePreconditionFailed)
		assert.Equal(t, msgCategoryHasPosts, err.Error())
		assert.False(t, deleted)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		cats := noopCategoryRepo()
		cats.getByIDFn = func(_ context.Context, _ string) (*models.Category, error) { return nil, gorm.ErrRecordNotFound }
		_, err := NewCategoryService(passTx{}, cats, nil).Delete(ctx, "c1")
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("unreferenced", func(t *testing.T) {
		t.Parallel()
		category, err := NewCategoryService(passTx{}, noopCategoryRepo(), nil).Delete(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "c1", category.ID)
	})
}

func TestCategoryService_GetBySlugNotFound(t *testing.T) {
	t.Parallel()
	cats := noopCategoryRepo()
	cats.getBySlugFn = func(_ context.Context, _ string) (*models.Category, error) { return nil, gorm.ErrRecordNotFound }

	_, err := NewCategoryService(passTx{}, cats, nil).GetBySlug(context.Background(), "nope")
	assertCode(t, err, models.CodeNotFound)
	assert.Equal(t, `Category with slug "nope" not found`, err.Error())
}
