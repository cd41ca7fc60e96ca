package service

import (
	"context"
	"errors"

	"ratefolio/internal/models"
	"ratefolio/internal/repository"
	"ratefolio/internal/validation"
)

const (
	MsgNoSelfRating        = "You can not give rating to your portfolio"
	MsgAlreadyRated        = "You have already rated this portfolio"
	MsgOnlyRemoveOwnRating = "You can only remove your own rating"
)

// RatingService manages per-author ratings on portfolios.
type RatingService struct {
	portfolioRepo repository.PortfolioRepository
	ratingRepo    repository.RatingRepository
	userRepo      repository.UserRepository
	events        EventPublisher
}

// NewRatingService returns a new RatingService. A nil publisher disables notifications.
func NewRatingService(
	portfolioRepo repository.PortfolioRepository,
	ratingRepo repository.RatingRepository,
	userRepo repository.UserRepository,
	events EventPublisher,
) *RatingService {
	return &RatingService{
		portfolioRepo: portfolioRepo,
		ratingRepo:    ratingRepo,
		userRepo:      userRepo,
		events:        publisherOrNoop(events),
	}
}

// Add records the caller's first rating of the portfolio.
func (s *RatingService) Add(ctx context.Context, portfolioID uint, ratingNumber int) (*models.Portfolio, error) {
	user, p, err := s.rateable(ctx, portfolioID, ratingNumber)
	if err != nil {
		return nil, err
	}

	rating := &models.Rating{
		PortfolioID:  p.ID,
		UserID:       user.ID,
		RatingNumber: ratingNumber,
		RatingAuthor: user.Username,
	}
	if err := s.ratingRepo.Add(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewValidationError(MsgAlreadyRated)
		}
		return nil, err
	}

	s.notify(ctx, p, rating)
	return s.portfolioRepo.GetByID(ctx, p.ID)
}

// Update sets the caller's rating, creating it if needed. Other authors' ratings are untouched.
func (s *RatingService) Update(ctx context.Context, portfolioID uint, ratingNumber int) (*models.Portfolio, error) {
	user, p, err := s.rateable(ctx, portfolioID, ratingNumber)
	if err != nil {
		return nil, err
	}

	rating := &models.Rating{
		PortfolioID:  p.ID,
		UserID:       user.ID,
		RatingNumber: ratingNumber,
		RatingAuthor: user.Username,
	}
	if err := s.ratingRepo.Upsert(ctx, rating); err != nil {
		return nil, err
	}

	s.notify(ctx, p, rating)
	return s.portfolioRepo.GetByID(ctx, p.ID)
}

// Remove deletes a rating the caller authored.
func (s *RatingService) Remove(ctx context.Context, portfolioID, ratingID uint) (*models.Portfolio, error) {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratingRepo.Get(ctx, portfolioID, ratingID)
	if err != nil {
		return nil, err
	}
	if rating.UserID != user.ID {
		return nil, models.NewForbiddenError(MsgOnlyRemoveOwnRating)
	}
	if err := s.ratingRepo.Delete(ctx, rating); err != nil {
		return nil, err
	}
	return s.portfolioRepo.GetByID(ctx, portfolioID)
}

func (s *RatingService) rateable(ctx context.Context, portfolioID uint, ratingNumber int) (*models.User, *models.Portfolio, error) {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, nil, err
	}
	if p.UserID == user.ID {
		return nil, nil, models.NewForbiddenError(MsgNoSelfRating)
	}
	if err := validation.ValidateRatingNumber(ratingNumber); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}
	return user, p, nil
}

func (s *RatingService) notify(ctx context.Context, p *models.Portfolio, r *models.Rating) {
	s.events.PublishUserEvent(ctx, p.UserID, EventPortfolioRated, map[string]interface{}{
		"portfolio_id":  p.ID,
		"rating_number": r.RatingNumber,
		"rating_author": r.RatingAuthor,
	})
}
