package rpc

import (
	"context"

	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"gorm.io/gorm"
)

// Services groups the domain services the procedures route to.
type Services struct {
	Users      *service.UserService
	Posts      *service.PostService
	Categories *service.CategoryService
	Comments   *service.CommentService
	Profiles   *service.ProfileService
}

// ServiceOptions carries the runtime knobs of the services.
type ServiceOptions struct {
	CommentMaxDepth int
	Flags           *featureflags.Manager
	Publisher       service.EventPublisher
}

// NewServices wires repositories over db into the domain services.
func NewServices(db *gorm.DB, opts ServiceOptions) Services {
	tx := repository.NewTransactor(db)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	categories := repository.NewCategoryRepository(db)
	comments := repository.NewCommentRepository(db)
	profiles := repository.NewProfileRepository(db)

	return Services{
		Users:      service.NewUserService(tx, users, opts.Publisher),
		Posts:      service.NewPostService(tx, posts, users, categories, opts.Publisher),
		Categories: service.NewCategoryService(tx, categories, opts.Publisher),
		Comments: service.NewCommentService(tx, comments, posts, users, service.CommentServiceConfig{
			MaxDepth: opts.CommentMaxDepth,
			Flags:    opts.Flags,
		}, opts.Publisher),
		Profiles: service.NewProfileService(tx, profiles, users),
	}
}

// Policy tunes procedure access levels.
type Policy struct {
	// RequireAuthForMutations makes every mutation Protected, and the
	// category mutations plus user.delete Admin.
	RequireAuthForMutations bool
}

var adminMutations = map[string]bool{
	"category.create": true,
	"category.update": true,
	"category.delete": true,
	"user.delete":     true,
}

// Procedures builds the full procedure set over svc.
func Procedures(svc Services, policy Policy) []Procedure {
	procs := []Procedure{
		// user
		Query("user.list", func(ctx context.Context, in service.ListUsersInput) (pagination.Page[*models.User], error) {
			return svc.Users.List(ctx, in)
		}),
		Query("user.getById", func(ctx context.Context, in service.IDInput) (*models.User, error) {
			return svc.Users.GetByID(ctx, in.ID)
		}),
		Mutation("user.create", svc.Users.Create),
		Mutation("user.update", svc.Users.Update),
		Mutation("user.delete", func(ctx context.Context, in service.IDInput) (*models.User, error) {
			return svc.Users.Delete(ctx, in.ID)
		}),

		// category
		Query("category.list", func(ctx context.Context, _ NoInput) ([]*models.Category, error) {
			return svc.Categories.List(ctx)
		}),
		Query("category.getById", func(ctx context.Context, in service.IDInput) (*models.Category, error) {
			return svc.Categories.GetByID(ctx, in.ID)
		}),
		Query("category.getBySlug", func(ctx context.Context, in service.SlugInput) (*models.Category, error) {
			return svc.Categories.GetBySlug(ctx, in.Slug)
		}),
		Mutation("category.create", svc.Categories.Create),
		Mutation("category.update", svc.Categories.Update),
		Mutation("category.delete", func(ctx context.Context, in service.IDInput) (*models.Category, error) {
			return svc.Categories.Delete(ctx, in.ID)
		}),

		// post
		Query("post.list", svc.Posts.List),
		Query("post.getById", func(ctx context.Context, in service.IDInput) (*models.Post, error) {
			return svc.Posts.GetByID(ctx, in.ID)
		}),
		Query("post.getByUser", svc.Posts.GetByUser),
		Mutation("post.create", svc.Posts.Create),
		Mutation("post.update", svc.Posts.Update),
		Mutation("post.publish", func(ctx context.Context, in service.IDInput) (*models.Post, error) {
			return svc.Posts.Publish(ctx, in.ID)
		}),
		Mutation("post.archive", func(ctx context.Context, in service.IDInput) (*models.Post, error) {
			return svc.Posts.Archive(ctx, in.ID)
		}),
		Mutation("post.delete", func(ctx context.Context, in service.IDInput) (*models.Post, error) {
			return svc.Posts.Delete(ctx, in.ID)
		}),

		// comment
		Query("comment.getByPost", svc.Comments.GetByPost),
		Mutation("comment.create", svc.Comments.Create),
		Mutation("comment.update", svc.Comments.Update),
		Mutation("comment.delete", func(ctx context.Context, in service.IDInput) (*models.Comment, error) {
			return svc.Comments.Delete(ctx, in.ID)
		}),

		// profile
		Query("profile.getByUser", func(ctx context.Context, in service.UserIDInput) (*models.Profile, error) {
			return svc.Profiles.GetByUser(ctx, in.UserID)
		}),
		Mutation("profile.upsert", svc.Profiles.Upsert),
	}

	for i := range procs {
		procs[i].Access = policy.access(procs[i])
	}
	return procs
}

func (p Policy) access(proc Procedure) Access {
	if !p.RequireAuthForMutations || proc.Kind != KindMutation {
		return AccessPublic
	}
	if adminMutations[proc.Name] {
		return AccessAdmin
	}
	return AccessProtected
}
