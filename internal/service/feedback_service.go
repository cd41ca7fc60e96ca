package service

import (
	"context"

	"ratefolio/internal/models"
	"ratefolio/internal/repository"
	"ratefolio/internal/validation"
)

const (
	MsgOnlyEditOwnFeedback   = "You can only edit your own feedback"
	MsgOnlyRemoveOwnFeedback = "You can only remove your own feedback"
)

// FeedbackService manages free-text feedback on portfolios.
type FeedbackService struct {
	portfolioRepo repository.PortfolioRepository
	feedbackRepo  repository.FeedbackRepository
	userRepo      repository.UserRepository
	events        EventPublisher
}

// NewFeedbackService returns a new FeedbackService. A nil publisher disables notifications.
func NewFeedbackService(
	portfolioRepo repository.PortfolioRepository,
	feedbackRepo repository.FeedbackRepository,
	userRepo repository.UserRepository,
	events EventPublisher,
) *FeedbackService {
	return &FeedbackService{
		portfolioRepo: portfolioRepo,
		feedbackRepo:  feedbackRepo,
		userRepo:      userRepo,
		events:        publisherOrNoop(events),
	}
}

// Add appends feedback authored by the caller. Authors may comment on their own portfolio.
func (s *FeedbackService) Add(ctx context.Context, portfolioID uint, text string) (*models.Portfolio, error) {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	p, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateFeedbackText(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	fb := &models.Feedback{
		PortfolioID:    p.ID,
		UserID:         user.ID,
		FeedbackText:   text,
		FeedbackAuthor: user.Username,
	}
	if err := s.feedbackRepo.Add(ctx, fb); err != nil {
		return nil, err
	}

	if p.UserID != user.ID {
		s.events.PublishUserEvent(ctx, p.UserID, EventFeedbackAdded, map[string]interface{}{
			"portfolio_id":    p.ID,
			"feedback_id":     fb.ID,
			"feedback_author": fb.FeedbackAuthor,
		})
	}
	return s.portfolioRepo.GetByID(ctx, p.ID)
}

// Update replaces the text of feedback the caller authored.
func (s *FeedbackService) Update(ctx context.Context, portfolioID, feedbackID uint, text string) (*models.Portfolio, error) {
	fb, err := s.ownFeedback(ctx, portfolioID, feedbackID, MsgOnlyEditOwnFeedback)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateFeedbackText(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.feedbackRepo.UpdateText(ctx, fb, text); err != nil {
		return nil, err
	}
	return s.portfolioRepo.GetByID(ctx, portfolioID)
}

// Remove deletes feedback the caller authored.
func (s *FeedbackService) Remove(ctx context.Context, portfolioID, feedbackID uint) (*models.Portfolio, error) {
	fb, err := s.ownFeedback(ctx, portfolioID, feedbackID, MsgOnlyRemoveOwnFeedback)
	if err != nil {
		return nil, err
	}
	if err := s.feedbackRepo.Delete(ctx, fb); err != nil {
		return nil, err
	}
	return s.portfolioRepo.GetByID(ctx, portfolioID)
}

func (s *FeedbackService) ownFeedback(ctx context.Context, portfolioID, feedbackID uint, forbidden string) (*models.Feedback, error) {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	fb, err := s.feedbackRepo.Get(ctx, portfolioID, feedbackID)
	if err != nil {
		return nil, err
	}
	if fb.UserID != user.ID {
		return nil, models.NewForbiddenError(forbidden)
	}
	return fb, nil
}
