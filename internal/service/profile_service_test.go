package service

import (
	"context"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryProfiles keeps at most one profile per user in memory.
func memoryProfiles() *profileRepoStub {
	byUser := map[string]*models.Profile{}
	return &profileRepoStub{
		getByUserIDFn: func(_ context.Context, userID string) (*models.Profile, error) {
			p, ok := byUser[userID]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			cp := *p
			cp.User = &models.User{ID: userID, Email: userID + "@example.com", Role: models.RoleUser}
			return &cp, nil
		},
		createFn: func(_ context.Context, p *models.Profile) error {
			p.ID = "profile-" + p.UserID
			byUser[p.UserID] = p
			return nil
		},
		updateFn: func(_ context.Context, id string, u map[string]interface{}) error {
			for _, p := range byUser {
				if p.ID != id {
					continue
				}
				for k, v := range u {
					s := v.(string)
					switch k {
					case "bio":
						p.Bio = &s
					case "avatar":
						p.Avatar = &s
					case "website":
						p.Website = &s
					}
				}
				return nil
			}
			return gorm.ErrRecordNotFound
		},
	}
}

func TestProfileService_UpsertCreateThenUpdate(t *testing.T) {
	t.Parallel()
	svc := NewProfileService(passTx{}, memoryProfiles(), noopUserRepo())
	ctx := context.Background()

	created, err := svc.Upsert(ctx, UpsertProfileInput{UserID: "u1", Bio: strPtr("hello")})
	require.NoError(t, err)
	assert.Equal(t, "hello", *created.Bio)
	assert.Nil(t, created.Avatar)
	assert.Nil(t, created.Website)
	require.NotNil(t, created.Owner)
	assert.Equal(t, models.RoleUser, created.Owner.Role)

	updated, err := svc.Upsert(ctx, UpsertProfileInput{UserID: "u1", Website: strPtr("https://example.com")})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Equal(t, "https://example.com", *updated.Website)
}

func TestProfileService_UserMustBeLive(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }
	svc := NewProfileService(passTx{}, memoryProfiles(), users)

	_, err := svc.Upsert(context.Background(), UpsertProfileInput{UserID: "u1"})
	assertCode(t, err, models.CodeNotFound)
	assert.Equal(t, msgUserNotFound, err.Error())
}

func TestProfileService_GetByUserMissing(t *testing.T) {
	t.Parallel()
	svc := NewProfileService(passTx{}, memoryProfiles(), noopUserRepo())

	_, err := svc.GetByUser(context.Background(), "u9")
	assertCode(t, err, models.CodeNotFound)
	assert.Equal(t, "Profile for user u9 not found", err.Error())
}
