// Package bootstrap assembles the runtime from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/events"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/redisclient"
	"inkwell/internal/rpc"
	"inkwell/internal/server"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs DB_SCHEMA_MODE on connect. Tools that manage the
	// schema themselves turn it off.
	ApplySchema bool
	// SkipRedis leaves Redis unconnected even when configured.
	SkipRedis bool
}

// Runtime is the wired set of long-lived dependencies.
type Runtime struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Flags     *featureflags.Manager
	Publisher *events.Publisher
	Services  rpc.Services
}

// InitRuntime connects to the database and, optionally, Redis, then wires the services.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis may be nil: rate limiting falls back to in-process and events are dropped.
	var rdb *redis.Client
	if !opts.SkipRedis {
		rdb = redisclient.Connect(ctx, cfg.RedisURL)
	}

	return NewRuntime(cfg, db, rdb), nil
}

// NewRuntime wires services over already-initialized connections.
func NewRuntime(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Runtime {
	flags := featureflags.NewManager(cfg.FeatureFlags)

	var publisher *events.Publisher
	if cfg.EventsEnabled {
		publisher = events.NewPublisher(rdb, middleware.Logger)
	}

	opts := rpc.ServiceOptions{CommentMaxDepth: cfg.CommentMaxDepth, Flags: flags}
	if publisher != nil {
		opts.Publisher = publisher
	}

	return &Runtime{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Flags:     flags,
		Publisher: publisher,
		Services:  rpc.NewServices(db, opts),
	}
}

// NewAuthenticator picks the identity source named by AUTH_MODE.
func NewAuthenticator(cfg *config.Config) (rpc.Authenticator, error) {
	switch cfg.AuthMode {
	case "", "header":
		return rpc.HeaderAuthenticator{}, nil
	case "jwt":
		return rpc.NewJWTAuthenticator(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("unsupported AUTH_MODE %q", cfg.AuthMode)
	}
}

// NewPipeline builds the procedure pipeline over the runtime's services.
func (rt *Runtime) NewPipeline() (*rpc.Pipeline, error) {
	auth, err := NewAuthenticator(rt.Config)
	if err != nil {
		return nil, err
	}
	policy := rpc.Policy{RequireAuthForMutations: rt.Config.RequireAuthForMutations}
	return &rpc.Pipeline{
		Registry:      rpc.NewRegistry(rpc.Procedures(rt.Services, policy)...),
		Authenticator: auth,
		Authorizer:    rpc.AccessAuthorizer{},
		Observers:     []rpc.Observer{rpc.LogObserver(), rpc.MetricsObserver()},
	}, nil
}

// NewServer builds the HTTP server. The metrics collector registers
// globally, so call this once per process.
func (rt *Runtime) NewServer() (*server.Server, error) {
	pipeline, err := rt.NewPipeline()
	if err != nil {
		return nil, err
	}

	deps := server.Deps{
		Config:    rt.Config,
		DB:        rt.DB,
		Redis:     rt.Redis,
		Pipeline:  pipeline,
		Publisher: rt.Publisher,
		Prom:      middleware.InitMetrics("inkwell"),
	}
	if rt.Publisher != nil && rt.Redis != nil {
		deps.Hub = events.NewHub(middleware.Logger)
	}
	return server.New(deps), nil
}

// Close releases the database and Redis connections.
func (rt *Runtime) Close() error {
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	return database.Close(rt.DB)
}
