// Command seed fills the configured database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/seed"
)

func main() {
	extraUsers := flag.Int("users", 0, "Generated users to add on top of the fixture")
	extraComments := flag.Int("comments", 0, "Generated comments to add on top of the fixture")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fakerSeed := flag.Int64("faker-seed", 0, "Seed for generated data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{ApplySchema: true, SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rt.Close() }()

	s := seed.NewSeeder(rt.DB, rt.Services, seed.Options{
		ExtraUsers:    *extraUsers,
		ExtraComments: *extraComments,
		ShouldClean:   *shouldClean,
		FakerSeed:     *fakerSeed,
	})
	res, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d categories, %d posts, %d comments",
		res.Users, res.Categories, res.Posts, res.Comments)
}
