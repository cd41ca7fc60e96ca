// Package seed generates demo users, portfolios, ratings, feedback and
// follow edges for development databases.
package seed

import (
	"fmt"
	"strings"
	"time"

	"ratefolio/internal/models"
	"ratefolio/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated user.
const DemoPassword = "Password123!"

// Factory builds and persists domain entities with fake content.
type Factory struct {
	db           *gorm.DB
	faker        *gofakeit.Faker
	passwordHash string
	now          func() time.Time
}

// NewFactory returns a Factory. The same seed yields the same content.
func NewFactory(db *gorm.DB, seed int64, bcryptCost int) (*Factory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	return &Factory{
		db:           db,
		faker:        gofakeit.New(seed),
		passwordHash: string(hash),
		now:          time.Now,
	}, nil
}

// CreateUser inserts a user. n keeps generated usernames unique.
func (f *Factory) CreateUser(n int) (*models.User, error) {
	username := f.username(n)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("generated username %q: %w", username, err)
	}
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.passwordHash,
		CreatedAt: f.pastTime(),
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return user, nil
}

func (f *Factory) username(n int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(f.faker.Username()) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	return fmt.Sprintf("%s_%d", base, n)
}

// CreatePortfolio inserts a portfolio owned by author.
func (f *Factory) CreatePortfolio(author *models.User) (*models.Portfolio, error) {
	p := &models.Portfolio{
		UserID:          author.ID,
		PortfolioAuthor: author.Username,
		PortfolioText:   f.faker.Paragraph(1, 3, 12, " "),
		PortfolioImage:  fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", f.faker.UUID()),
		PortfolioLink:   f.faker.URL(),
		CreatedAt:       f.pastTime(),
	}
	if err := f.db.Create(p).Error; err != nil {
		return nil, fmt.Errorf("create portfolio for %s: %w", author.Username, err)
	}
	return p, nil
}

// Rate records rater's score for p.
func (f *Factory) Rate(p *models.Portfolio, rater *models.User) (*models.Rating, error) {
	r := &models.Rating{
		PortfolioID:  p.ID,
		UserID:       rater.ID,
		RatingAuthor: rater.Username,
		RatingNumber: f.faker.Number(validation.MinRating, validation.MaxRating),
	}
	if err := f.db.Create(r).Error; err != nil {
		return nil, fmt.Errorf("rate portfolio %d: %w", p.ID, err)
	}
	return r, nil
}

// Comment adds feedback from author on p.
func (f *Factory) Comment(p *models.Portfolio, author *models.User) (*models.Feedback, error) {
	fb := &models.Feedback{
		PortfolioID:    p.ID,
		UserID:         author.ID,
		FeedbackAuthor: author.Username,
		FeedbackText:   f.faker.Sentence(f.faker.Number(6, 18)),
	}
	if err := f.db.Create(fb).Error; err != nil {
		return nil, fmt.Errorf("comment on portfolio %d: %w", p.ID, err)
	}
	return fb, nil
}

// Follow makes follower follow target.
func (f *Factory) Follow(follower, target *models.User) error {
	edge := &models.Follow{FollowerID: follower.ID, FollowingID: target.ID}
	if err := f.db.Create(edge).Error; err != nil {
		return fmt.Errorf("follow %s -> %s: %w", follower.Username, target.Username, err)
	}
	return nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, 90*24*60)) * time.Minute
	return f.now().Add(-back)
}
