package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/rpc"
	"inkwell/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:            "8080",
		Env:             "test",
		DBDriver:        "sqlite",
		DBPath:          filepath.Join(t.TempDir(), "inkwell.db"),
		DBSchemaMode:    "hybrid",
		AuthMode:        "header",
		CommentMaxDepth: 2,
		EventsEnabled:   true,
	}
}

func TestNewAuthenticator(t *testing.T) {
	t.Parallel()

	a, err := NewAuthenticator(&config.Config{AuthMode: "header"})
	require.NoError(t, err)
	assert.IsType(t, rpc.HeaderAuthenticator{}, a)

	a, err = NewAuthenticator(&config.Config{AuthMode: "jwt", JWTSecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &rpc.JWTAuthenticator{}, a)

	_, err = NewAuthenticator(&config.Config{AuthMode: "oauth"})
	assert.Error(t, err)
}

func TestInitRuntime_SQLite(t *testing.T) {
	cfg := sqliteConfig(t)

	rt, err := InitRuntime(context.Background(), cfg, Options{ApplySchema: true, SkipRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Nil(t, rt.Redis)
	require.NotNil(t, rt.Publisher)

	u, err := rt.Services.Users.Create(context.Background(), service.CreateUserInput{Email: "boot@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	p, err := rt.NewPipeline()
	require.NoError(t, err)
	out, err := p.Dispatch(context.Background(), "user.getById", rpc.KindQuery,
		func(string) string { return "" }, []byte(`{"id":"`+u.ID+`"}`))
	require.NoError(t, err)
	assert.Equal(t, u.ID, out.(*models.User).ID)
}

func TestNewPipeline_Policy(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{AuthMode: "jwt", JWTSecret: "secret", RequireAuthForMutations: true}
	rt := &Runtime{Config: cfg}

	p, err := rt.NewPipeline()
	require.NoError(t, err)
	assert.IsType(t, &rpc.JWTAuthenticator{}, p.Authenticator)

	proc, ok := p.Registry.Lookup("category.delete")
	require.True(t, ok)
	assert.Equal(t, rpc.AccessAdmin, proc.Access)
}
