package repository

import (
	"context"
	"errors"

	"ratefolio/internal/cache"
	"ratefolio/internal/models"

	"gorm.io/gorm"
)

// FeedbackRepository defines persistence operations for feedback entries.
type FeedbackRepository interface {
	Add(ctx context.Context, feedback *models.Feedback) error
	Get(ctx context.Context, portfolioID, feedbackID uint) (*models.Feedback, error)
	UpdateText(ctx context.Context, feedback *models.Feedback, text string) error
	Delete(ctx context.Context, feedback *models.Feedback) error
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Add(ctx context.Context, feedback *models.Feedback) error {
	if err := r.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePortfolio(ctx, feedback.PortfolioID)
	return nil
}

func (r *feedbackRepository) Get(ctx context.Context, portfolioID, feedbackID uint) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.db.WithContext(ctx).
		Where("id = ? AND portfolio_id = ?", feedbackID, portfolioID).
		First(&feedback).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Feedback", feedbackID)
		}
		return nil, models.NewInternalError(err)
	}
	return &feedback, nil
}

// UpdateText changes only the text column.
func (r *feedbackRepository) UpdateText(ctx context.Context, feedback *models.Feedback, text string) error {
	if err := r.db.WithContext(ctx).Model(feedback).Update("feedback_text", text).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePortfolio(ctx, feedback.PortfolioID)
	return nil
}

func (r *feedbackRepository) Delete(ctx context.Context, feedback *models.Feedback) error {
	if err := r.db.WithContext(ctx).Delete(&models.Feedback{}, feedback.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePortfolio(ctx, feedback.PortfolioID)
	return nil
}
