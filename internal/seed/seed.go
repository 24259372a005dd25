// Package seed fills a database with demo data. Every record is created through
// the domain services, so seeded data obeys the same rules as API writes.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/rpc"
	"inkwell/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixture.yaml
var fixtureYAML []byte

// Fixture is the fixed demo data set.
type Fixture struct {
	Users []struct {
		Email   string      `yaml:"email"`
		Name    string      `yaml:"name"`
		Role    models.Role `yaml:"role"`
		Profile struct {
			Bio     string `yaml:"bio"`
			Avatar  string `yaml:"avatar"`
			Website string `yaml:"website"`
		} `yaml:"profile"`
	} `yaml:"users"`
	Categories []struct {
		Name string `yaml:"name"`
		Slug string `yaml:"slug"`
	} `yaml:"categories"`
	Posts struct {
		Content string   `yaml:"content"`
		Titles  []string `yaml:"titles"`
	} `yaml:"posts"`
	Comments struct {
		Threads int      `yaml:"threads"`
		Root    string   `yaml:"root"`
		Replies []string `yaml:"replies"`
	} `yaml:"comments"`
}

// LoadFixture parses the embedded fixture.
func LoadFixture() (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(fixtureYAML, &f); err != nil {
		return nil, fmt.Errorf("parse seed fixture: %w", err)
	}
	if len(f.Users) == 0 || len(f.Categories) == 0 {
		return nil, fmt.Errorf("seed fixture needs users and categories")
	}
	return &f, nil
}

// Options configuration for the seeder
type Options struct {
	// ExtraUsers adds generated users on top of the fixture.
	ExtraUsers int
	// ExtraComments adds generated top-level comments spread over the seeded posts.
	ExtraComments int
	ShouldClean   bool
	// FakerSeed makes generated data reproducible when non-zero.
	FakerSeed int64
}

// Result counts what was created.
type Result struct {
	Users      int
	Categories int
	Posts      int
	Comments   int
}

// Seeder creates demo data through the services.
type Seeder struct {
	db   *gorm.DB
	svc  rpc.Services
	opts Options
}

// NewSeeder creates a Seeder over db.
func NewSeeder(db *gorm.DB, svc rpc.Services, opts Options) *Seeder {
	gofakeit.Seed(opts.FakerSeed)
	return &Seeder{db: db, svc: svc, opts: opts}
}

// Run seeds the fixture plus any generated extras.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	fixture, err := LoadFixture()
	if err != nil {
		return nil, err
	}

	if s.opts.ShouldClean {
		if err := Clean(s.db); err != nil {
			return nil, fmt.Errorf("clean database: %w", err)
		}
	}

	res := &Result{}
	users, err := s.createUsers(ctx, fixture)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	res.Users = len(users)

	categories, err := s.createCategories(ctx, fixture)
	if err != nil {
		return nil, fmt.Errorf("failed to create categories: %w", err)
	}
	res.Categories = len(categories)

	posts, err := s.createPosts(ctx, fixture, users, categories)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	res.Posts = len(posts)

	comments, err := s.createComments(ctx, fixture, users, posts)
	if err != nil {
		return nil, fmt.Errorf("failed to create comments: %w", err)
	}
	res.Comments = comments

	middleware.Logger.InfoContext(ctx, "seeding completed",
		slog.Int("users", res.Users),
		slog.Int("categories", res.Categories),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

func (s *Seeder) createUsers(ctx context.Context, fixture *Fixture) ([]*models.User, error) {
	users := make([]*models.User, 0, len(fixture.Users)+s.opts.ExtraUsers)

	for _, fu := range fixture.Users {
		in := service.CreateUserInput{Email: fu.Email, Name: optional(fu.Name)}
		if fu.Role != "" {
			role := fu.Role
			in.Role = &role
		}
		u, err := s.svc.Users.Create(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", fu.Email, err)
		}
		if _, err := s.svc.Profiles.Upsert(ctx, service.UpsertProfileInput{
			UserID:  u.ID,
			Bio:     optional(fu.Profile.Bio),
			Avatar:  optional(fu.Profile.Avatar),
			Website: optional(fu.Profile.Website),
		}); err != nil {
			return nil, fmt.Errorf("profile for %s: %w", fu.Email, err)
		}
		users = append(users, u)
	}

	for i := 0; i < s.opts.ExtraUsers; i++ {
		name := gofakeit.Name()
		u, err := s.svc.Users.Create(ctx, service.CreateUserInput{
			Email: fmt.Sprintf("%d.%s", i+1, gofakeit.Email()),
			Name:  &name,
		})
		if err != nil {
			return nil, fmt.Errorf("generated user %d: %w", i+1, err)
		}
		bio := gofakeit.Sentence(10)
		avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", u.ID)
		if _, err := s.svc.Profiles.Upsert(ctx, service.UpsertProfileInput{UserID: u.ID, Bio: &bio, Avatar: &avatar}); err != nil {
			return nil, fmt.Errorf("generated profile %d: %w", i+1, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) createCategories(ctx context.Context, fixture *Fixture) ([]*models.Category, error) {
	categories := make([]*models.Category, 0, len(fixture.Categories))
	for _, fc := range fixture.Categories {
		c, err := s.svc.Categories.Create(ctx, service.CreateCategoryInput{Name: fc.Name, Slug: fc.Slug})
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", fc.Slug, err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// createPosts cycles statuses DRAFT, PUBLISHED, ARCHIVED and tags each post
// with two neighbouring categories.
func (s *Seeder) createPosts(ctx context.Context, fixture *Fixture, users []*models.User, categories []*models.Category) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(fixture.Posts.Titles))
	for i, title := range fixture.Posts.Titles {
		content := fmt.Sprintf(fixture.Posts.Content, i+1)
		p, err := s.svc.Posts.Create(ctx, service.CreatePostInput{
			Title:    fmt.Sprintf("Sample Post %d: %s", i+1, title),
			Content:  &content,
			AuthorID: users[i%len(users)].ID,
			CategoryIDs: []string{
				categories[i%len(categories)].ID,
				categories[(i+1)%len(categories)].ID,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("post %d: %w", i+1, err)
		}

		switch i % 3 {
		case 1:
			p, err = s.svc.Posts.Publish(ctx, p.ID)
		case 2:
			if _, err = s.svc.Posts.Publish(ctx, p.ID); err == nil {
				p, err = s.svc.Posts.Archive(ctx, p.ID)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("post %d status: %w", i+1, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Seeder) createComments(ctx context.Context, fixture *Fixture, users []*models.User, posts []*models.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	created := 0
	threads := min(fixture.Comments.Threads, len(posts))
	for _, p := range posts[:threads] {
		root, err := s.svc.Comments.Create(ctx, service.CreateCommentInput{
			Content:  fmt.Sprintf(fixture.Comments.Root, p.Title),
			AuthorID: randomUser(users).ID,
			PostID:   p.ID,
		})
		if err != nil {
			return created, err
		}
		created++

		for i, reply := range fixture.Comments.Replies {
			author := randomUser(users)
			if i == 0 {
				author = users[0]
			}
			if _, err := s.svc.Comments.Create(ctx, service.CreateCommentInput{
				Content:  reply,
				AuthorID: author.ID,
				PostID:   p.ID,
				ParentID: &root.ID,
			}); err != nil {
				return created, err
			}
			created++
		}
	}

	for i := 0; i < s.opts.ExtraComments; i++ {
		p := posts[i%len(posts)]
		if _, err := s.svc.Comments.Create(ctx, service.CreateCommentInput{
			Content:  gofakeit.Sentence(12),
			AuthorID: randomUser(users).ID,
			PostID:   p.ID,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Clean removes every record, children first.
func Clean(db *gorm.DB) error {
	all := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
	for _, model := range []interface{}{
		&models.Comment{},
		&models.PostCategory{},
		&models.Post{},
		&models.Profile{},
		&models.Category{},
		&models.User{},
	} {
		if err := all.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func randomUser(users []*models.User) *models.User {
	return users[gofakeit.Number(0, len(users)-1)]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
