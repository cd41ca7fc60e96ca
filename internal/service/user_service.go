package service

import (
	"context"

	"ratefolio/internal/models"
	"ratefolio/internal/repository"
)

// Expansion selects which relations of a User are loaded up front.
type Expansion struct {
	Portfolios bool
	Followers  bool
	Followings bool
}

// ExpandAll loads every relation.
var ExpandAll = Expansion{Portfolios: true, Followers: true, Followings: true}

// UserService answers read-only user queries.
type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo}
}

// List returns users newest first, optionally restricted to one username.
func (s *UserService) List(ctx context.Context, username *string, exp Expansion) ([]models.User, error) {
	users, err := s.userRepo.List(ctx, repository.UserFilter{
		Username:       username,
		WithPortfolios: exp.Portfolios,
	})
	if err != nil {
		return nil, err
	}
	if err := s.expandFollows(ctx, users, exp); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByUsername returns the user with every relation expanded, or nil if absent.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := s.List(ctx, &username, ExpandAll)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// Me returns the caller with every relation expanded.
func (s *UserService) Me(ctx context.Context) (*models.User, error) {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	return s.Expanded(ctx, user.ID)
}

// Expanded loads a user by id with every relation.
func (s *UserService) Expanded(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx, repository.UserFilter{Username: &user.Username, WithPortfolios: true})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, models.NewNotFoundError("User", id)
	}
	if err := s.expandFollows(ctx, users, ExpandAll); err != nil {
		return nil, err
	}
	return &users[0], nil
}

// Portfolios loads the portfolios owned by username, newest first.
func (s *UserService) Portfolios(ctx context.Context, username string) ([]models.Portfolio, error) {
	users, err := s.userRepo.List(ctx, repository.UserFilter{Username: &username, WithPortfolios: true})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0].Portfolios, nil
}

// Followers returns the users following userID.
func (s *UserService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	m, err := s.followRepo.Followers(ctx, []uint{userID})
	if err != nil {
		return nil, err
	}
	return m[userID], nil
}

// Followings returns the users userID follows.
func (s *UserService) Followings(ctx context.Context, userID uint) ([]models.User, error) {
	m, err := s.followRepo.Followings(ctx, []uint{userID})
	if err != nil {
		return nil, err
	}
	return m[userID], nil
}

func (s *UserService) expandFollows(ctx context.Context, users []models.User, exp Expansion) error {
	if len(users) == 0 || (!exp.Followers && !exp.Followings) {
		return nil
	}
	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}

	if exp.Followers {
		m, err := s.followRepo.Followers(ctx, ids)
		if err != nil {
			return err
		}
		for i := range users {
			users[i].Followers = nonNilUsers(m[users[i].ID])
		}
	}
	if exp.Followings {
		m, err := s.followRepo.Followings(ctx, ids)
		if err != nil {
			return err
		}
		for i := range users {
			users[i].Followings = nonNilUsers(m[users[i].ID])
		}
	}
	return nil
}

func nonNilUsers(u []models.User) []models.User {
	if u == nil {
		return []models.User{}
	}
	return u
}
