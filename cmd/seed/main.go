// Command seed fills the database with demo users and portfolios.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"ratefolio/internal/bootstrap"
	"ratefolio/internal/config"
	"ratefolio/internal/seed"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	portfolios := flag.Int("portfolios", 2, "Portfolios per user")
	ratings := flag.Int("ratings", 5, "Ratings per portfolio")
	feedbacks := flag.Int("feedbacks", 3, "Feedback entries per portfolio")
	follows := flag.Int("follows", 6, "Follows per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a built-in preset (small, demo, populated); overrides count flags")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated content")
	flag.Parse()

	p := seed.Preset{
		Users:                 *numUsers,
		PortfoliosPerUser:     *portfolios,
		RatingsPerPortfolio:   *ratings,
		FeedbacksPerPortfolio: *feedbacks,
		FollowsPerUser:        *follows,
	}
	if *preset != "" {
		var err error
		if p, err = seed.BuiltinPreset(*preset); err != nil {
			log.Fatalf("Invalid preset: %v", err)
		}
		log.Printf("Applying preset: %s", *preset)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{Migrate: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, *randSeed, bcrypt.DefaultCost)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, p)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d portfolios, %d ratings, %d feedbacks, %d follows",
		sum.Users, sum.Portfolios, sum.Ratings, sum.Feedbacks, sum.Follows)
	log.Printf("All generated users have the password: %s", seed.DemoPassword)
}
