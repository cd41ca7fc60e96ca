package service

import (
	"context"

	"ratefolio/internal/models"
	"ratefolio/internal/repository"
	"ratefolio/internal/validation"
)

const (
	MsgOnlyUpdateOwnPortfolio = "You can only update your portfolio"
	MsgOnlyRemoveOwnPortfolio = "You can only remove your portfolio"
)

// CreatePortfolioInput carries the fields of a new portfolio.
type CreatePortfolioInput struct {
	PortfolioText  string
	PortfolioImage string
	PortfolioLink  string
}

// UpdatePortfolioInput carries optional replacements. Nil fields are kept.
type UpdatePortfolioInput struct {
	PortfolioText  *string
	PortfolioImage *string
	PortfolioLink  *string
}

// PortfolioService provides portfolio lifecycle operations.
type PortfolioService struct {
	portfolioRepo repository.PortfolioRepository
	userRepo      repository.UserRepository
}

// NewPortfolioService returns a new PortfolioService.
func NewPortfolioService(portfolioRepo repository.PortfolioRepository, userRepo repository.UserRepository) *PortfolioService {
	return &PortfolioService{portfolioRepo: portfolioRepo, userRepo: userRepo}
}

// List returns portfolios newest first, optionally by one author.
func (s *PortfolioService) List(ctx context.Context, author *string) ([]models.Portfolio, error) {
	return s.portfolioRepo.List(ctx, author)
}

// Get returns the portfolio or nil when it does not exist.
func (s *PortfolioService) Get(ctx context.Context, id uint) (*models.Portfolio, error) {
	p, err := s.portfolioRepo.GetByID(ctx, id)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create stores a portfolio owned by and attributed to the caller.
func (s *PortfolioService) Create(ctx context.Context, in CreatePortfolioInput) (*models.Portfolio, error) {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if err := validatePortfolioFields(&in.PortfolioText, &in.PortfolioImage, &in.PortfolioLink); err != nil {
		return nil, err
	}

	p := &models.Portfolio{
		UserID:          user.ID,
		PortfolioAuthor: user.Username,
		PortfolioText:   in.PortfolioText,
		PortfolioImage:  in.PortfolioImage,
		PortfolioLink:   in.PortfolioLink,
	}
	if err := s.portfolioRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.portfolioRepo.GetByID(ctx, p.ID)
}

// Update edits the caller's own portfolio and returns it after the change.
func (s *PortfolioService) Update(ctx context.Context, id uint, in UpdatePortfolioInput) (*models.Portfolio, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}
	p, err := s.portfolioRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, p, MsgOnlyUpdateOwnPortfolio); err != nil {
		return nil, err
	}
	if err := validatePortfolioFields(in.PortfolioText, in.PortfolioImage, in.PortfolioLink); err != nil {
		return nil, err
	}

	if err := s.portfolioRepo.Update(ctx, id, repository.PortfolioUpdate{
		PortfolioText:  in.PortfolioText,
		PortfolioImage: in.PortfolioImage,
		PortfolioLink:  in.PortfolioLink,
	}); err != nil {
		return nil, err
	}
	return s.portfolioRepo.GetByID(ctx, id)
}

// Delete removes the caller's own portfolio with its ratings and feedbacks.
func (s *PortfolioService) Delete(ctx context.Context, id uint) (*models.Portfolio, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}
	p, err := s.portfolioRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, p, MsgOnlyRemoveOwnPortfolio); err != nil {
		return nil, err
	}
	if err := s.portfolioRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PortfolioService) requireOwner(ctx context.Context, p *models.Portfolio, msg string) error {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return err
	}
	if p.UserID != user.ID {
		return models.NewForbiddenError(msg)
	}
	return nil
}

func validatePortfolioFields(text, image, link *string) error {
	if text != nil {
		if err := validation.ValidatePortfolioText(*text); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if image != nil {
		if err := validation.ValidateLink("portfolioImage", *image); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if link != nil {
		if err := validation.ValidateLink("portfolioLink", *link); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}
