package seed

import (
	"context"
	"fmt"

	"ratefolio/internal/middleware"
	"ratefolio/internal/models"

	"gorm.io/gorm"
)

// Summary counts what a run created.
type Summary struct {
	Users      int
	Portfolios int
	Ratings    int
	Feedbacks  int
	Follows    int
}

// Seeder populates a database from a Preset.
type Seeder struct {
	db         *gorm.DB
	seed       int64
	bcryptCost int
}

// NewSeeder returns a Seeder. seed makes runs reproducible.
func NewSeeder(db *gorm.DB, seed int64, bcryptCost int) *Seeder {
	return &Seeder{db: db, seed: seed, bcryptCost: bcryptCost}
}

// ClearAll deletes every row the application owns, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{
		&models.Rating{},
		&models.Feedback{},
		&models.Follow{},
		&models.Portfolio{},
		&models.Image{},
		&models.User{},
	} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// Run generates data for p inside one transaction. Ratings and follows pair
// each user with the next users in creation order, so no pair repeats and
// nobody rates their own portfolio or follows themselves.
func (s *Seeder) Run(ctx context.Context, p Preset) (Summary, error) {
	if err := p.Validate(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := NewFactory(tx, s.seed, s.bcryptCost)
		if err != nil {
			return err
		}

		users := make([]*models.User, 0, p.Users)
		for i := 0; i < p.Users; i++ {
			u, err := f.CreateUser(i + 1)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		sum.Users = len(users)

		for i, author := range users {
			for k := 0; k < p.PortfoliosPerUser; k++ {
				portfolio, err := f.CreatePortfolio(author)
				if err != nil {
					return err
				}
				sum.Portfolios++

				for j := 1; j <= p.RatingsPerPortfolio; j++ {
					if _, err := f.Rate(portfolio, users[(i+j)%len(users)]); err != nil {
						return err
					}
					sum.Ratings++
				}
				for j := 1; j <= p.FeedbacksPerPortfolio; j++ {
					if _, err := f.Comment(portfolio, users[(i+j)%len(users)]); err != nil {
						return err
					}
					sum.Feedbacks++
				}
			}

			for j := 1; j <= p.FollowsPerUser; j++ {
				if err := f.Follow(author, users[(i+j)%len(users)]); err != nil {
					return err
				}
				sum.Follows++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	middleware.Logger.InfoContext(ctx, "seed completed",
		"users", sum.Users,
		"portfolios", sum.Portfolios,
		"ratings", sum.Ratings,
		"feedbacks", sum.Feedbacks,
		"follows", sum.Follows,
	)
	return sum, nil
}
