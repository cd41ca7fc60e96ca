package repository

import (
	"context"
	"errors"

	"ratefolio/internal/cache"
	"ratefolio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingRepository stores per-author ratings. A user holds at most one rating per portfolio.
type RatingRepository interface {
	Add(ctx context.Context, rating *models.Rating) error
	Upsert(ctx context.Context, rating *models.Rating) error
	Get(ctx context.Context, portfolioID, ratingID uint) (*models.Rating, error)
	Delete(ctx context.Context, rating *models.Rating) error
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Add inserts a new rating and returns ErrDuplicate if the author already rated the portfolio.
func (r *ratingRepository) Add(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Create(rating).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePortfolio(ctx, rating.PortfolioID)
	return nil
}

// Upsert replaces the author's rating on the portfolio, inserting it when absent.
// Other authors' ratings are never touched.
func (r *ratingRepository) Upsert(ctx context.Context, rating *models.Rating) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "portfolio_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating_number", "rating_author", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePortfolio(ctx, rating.PortfolioID)
	return nil
}

func (r *ratingRepository) Get(ctx context.Context, portfolioID, ratingID uint) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("id = ? AND portfolio_id = ?", ratingID, portfolioID).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Rating", ratingID)
		}
		return nil, models.NewInternalError(err)
	}
	return &rating, nil
}

func (r *ratingRepository) Delete(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Delete(&models.Rating{}, rating.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePortfolio(ctx, rating.PortfolioID)
	return nil
}
