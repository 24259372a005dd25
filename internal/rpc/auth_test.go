package rpc

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerMap(m map[string]string) Headers {
	return func(name string) string { return m[name] }
}

func TestHeaderAuthenticator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string]string
		wantID   *Identity
		wantCode string
	}{
		{"anonymous", map[string]string{}, nil, ""},
		{"user default role", map[string]string{"x-user-id": "u1"}, &Identity{UserID: "u1", Role: models.RoleUser}, ""},
		{"admin lowercase", map[string]string{"x-user-id": "u2", "x-user-role": "admin"}, &Identity{UserID: "u2", Role: models.RoleAdmin}, ""},
		{"unknown role", map[string]string{"x-user-id": "u3", "x-user-role": "ROOT"}, nil, models.CodeUnauthorized},
		{"role without id", map[string]string{"x-user-role": "ADMIN"}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, err := HeaderAuthenticator{}.Authenticate(context.Background(), headerMap(tt.headers))
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, models.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	t.Parallel()

	auth := NewJWTAuthenticator("test-secret")
	token, err := auth.Mint("user-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	id, err := auth.Authenticate(context.Background(), headerMap(map[string]string{"Authorization": "Bearer " + token}))
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "user-1", Role: models.RoleAdmin}, id)
	assert.True(t, id.IsAdmin())
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	t.Parallel()

	auth := NewJWTAuthenticator("test-secret")
	other := NewJWTAuthenticator("other-secret")

	foreign, err := other.Mint("user-1", models.RoleUser, time.Hour)
	require.NoError(t, err)
	expired, err := auth.Mint("user-1", models.RoleUser, -time.Minute)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": "owner",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"wrong scheme":   "Basic abc",
		"no token":       "Bearer",
		"foreign secret": "Bearer " + foreign,
		"expired":        "Bearer " + expired,
		"missing sub":    "Bearer " + noSubject,
		"unknown role":   "Bearer " + badRole,
		"alg none":       "Bearer " + unsigned,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			id, err := auth.Authenticate(context.Background(), headerMap(map[string]string{"Authorization": header}))
			assert.Nil(t, id)
			require.Error(t, err)
			assert.Equal(t, models.CodeUnauthorized, models.CodeOf(err))
		})
	}
}

func TestJWTAuthenticator_Anonymous(t *testing.T) {
	t.Parallel()

	id, err := NewJWTAuthenticator("s").Authenticate(context.Background(), headerMap(nil))
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestJWTAuthenticator_MintWithoutSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTAuthenticator("").Mint("u", models.RoleUser, time.Hour)
	assert.Error(t, err)
}

func TestAccessAuthorizer(t *testing.T) {
	t.Parallel()

	user := &Identity{UserID: "u", Role: models.RoleUser}
	admin := &Identity{UserID: "a", Role: models.RoleAdmin}

	tests := []struct {
		name   string
		access Access
		caller *Identity
		want   string
	}{
		{"public anonymous", AccessPublic, nil, ""},
		{"protected anonymous", AccessProtected, nil, models.CodeUnauthorized},
		{"protected user", AccessProtected, user, ""},
		{"admin anonymous", AccessAdmin, nil, models.CodeUnauthorized},
		{"admin as user", AccessAdmin, user, models.CodeForbidden},
		{"admin as admin", AccessAdmin, admin, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := AccessAuthorizer{}.Authorize(context.Background(), Procedure{Name: "x", Access: tt.access}, tt.caller)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, models.CodeOf(err))
		})
	}
}
