package repository

import (
	"context"
	"errors"

	"ratefolio/internal/cache"
	"ratefolio/internal/models"

	"gorm.io/gorm"
)

// PortfolioUpdate carries editable portfolio fields. Nil fields are left untouched.
type PortfolioUpdate struct {
	PortfolioText  *string
	PortfolioImage *string
	PortfolioLink  *string
}

// PortfolioRepository defines persistence operations for portfolios and their children.
type PortfolioRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Portfolio, error)
	List(ctx context.Context, author *string) ([]models.Portfolio, error)
	Create(ctx context.Context, portfolio *models.Portfolio) error
	Update(ctx context.Context, id uint, update PortfolioUpdate) error
	Delete(ctx context.Context, id uint) error
}

type portfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository returns a new PortfolioRepository implementation.
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

// GetByID loads a portfolio with its ratings and feedbacks. Missing rows yield a NotFound AppError.
func (r *portfolioRepository) GetByID(ctx context.Context, id uint) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := cache.Aside(ctx, cache.PortfolioKey(id), &portfolio, cache.PortfolioTTL, func() error {
		err := r.db.WithContext(ctx).
			Preload("Ratings", orderByID).
			Preload("Feedbacks", orderByID).
			First(&portfolio, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Portfolio", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}

func (r *portfolioRepository) List(ctx context.Context, author *string) ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	q := r.db.WithContext(ctx).
		Preload("Ratings", orderByID).
		Preload("Feedbacks", orderByID).
		Order("created_at DESC, id DESC")
	if author != nil {
		q = q.Where("portfolio_author = ?", *author)
	}
	if err := q.Find(&portfolios).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return portfolios, nil
}

func (r *portfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	if err := r.db.WithContext(ctx).Omit("Ratings", "Feedbacks").Create(portfolio).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, portfolio.UserID)
	return nil
}

func (r *portfolioRepository) Update(ctx context.Context, id uint, update PortfolioUpdate) error {
	fields := map[string]interface{}{}
	if update.PortfolioText != nil {
		fields["portfolio_text"] = *update.PortfolioText
	}
	if update.PortfolioImage != nil {
		fields["portfolio_image"] = *update.PortfolioImage
	}
	if update.PortfolioLink != nil {
		fields["portfolio_link"] = *update.PortfolioLink
	}
	if len(fields) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&models.Portfolio{ID: id}).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Portfolio", id)
	}
	cache.InvalidatePortfolio(ctx, id)
	return nil
}

// Delete removes the portfolio and its ratings and feedbacks in one transaction.
func (r *portfolioRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Feedback{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Portfolio{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Portfolio", id)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePortfolio(ctx, id)
	return nil
}
