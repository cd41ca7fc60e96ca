package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ratefolio/internal/auth"
	"ratefolio/internal/models"
	"ratefolio/internal/repository"

	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	listFn          func(context.Context, repository.UserFilter) ([]models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, uint, repository.UserUpdate) (*models.User, error)
	deleteCascadeFn func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	return s.listFn(ctx, filter)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, id uint, update repository.UserUpdate) (*models.User, error) {
	return s.updateFn(ctx, id, update)
}
func (s *userRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		listFn:          func(_ context.Context, _ repository.UserFilter) ([]models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn: func(_ context.Context, id uint, _ repository.UserUpdate) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// portfolioRepoStub is a stub for repository.PortfolioRepository.
type portfolioRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Portfolio, error)
	listFn    func(context.Context, *string) ([]models.Portfolio, error)
	createFn  func(context.Context, *models.Portfolio) error
	updateFn  func(context.Context, uint, repository.PortfolioUpdate) error
	deleteFn  func(context.Context, uint) error
}

func (s *portfolioRepoStub) GetByID(ctx context.Context, id uint) (*models.Portfolio, error) {
	return s.getByIDFn(ctx, id)
}
func (s *portfolioRepoStub) List(ctx context.Context, author *string) ([]models.Portfolio, error) {
	return s.listFn(ctx, author)
}
func (s *portfolioRepoStub) Create(ctx context.Context, p *models.Portfolio) error {
	return s.createFn(ctx, p)
}
func (s *portfolioRepoStub) Update(ctx context.Context, id uint, update repository.PortfolioUpdate) error {
	return s.updateFn(ctx, id, update)
}
func (s *portfolioRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPortfolioRepo() *portfolioRepoStub {
	return &portfolioRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Portfolio, error) {
			return &models.Portfolio{ID: id}, nil
		},
		listFn:   func(_ context.Context, _ *string) ([]models.Portfolio, error) { return nil, nil },
		createFn: func(_ context.Context, _ *models.Portfolio) error { return nil },
		updateFn: func(_ context.Context, _ uint, _ repository.PortfolioUpdate) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// ratingRepoStub is a stub for repository.RatingRepository.
type ratingRepoStub struct {
	addFn    func(context.Context, *models.Rating) error
	upsertFn func(context.Context, *models.Rating) error
	getFn    func(context.Context, uint, uint) (*models.Rating, error)
	deleteFn func(context.Context, *models.Rating) error
}

func (s *ratingRepoStub) Add(ctx context.Context, r *models.Rating) error { return s.addFn(ctx, r) }
func (s *ratingRepoStub) Upsert(ctx context.Context, r *models.Rating) error {
	return s.upsertFn(ctx, r)
}
func (s *ratingRepoStub) Get(ctx context.Context, portfolioID, ratingID uint) (*models.Rating, error) {
	return s.getFn(ctx, portfolioID, ratingID)
}
func (s *ratingRepoStub) Delete(ctx context.Context, r *models.Rating) error {
	return s.deleteFn(ctx, r)
}

func noopRatingRepo() *ratingRepoStub {
	return &ratingRepoStub{
		addFn:    func(_ context.Context, _ *models.Rating) error { return nil },
		upsertFn: func(_ context.Context, _ *models.Rating) error { return nil },
		getFn: func(_ context.Context, _, id uint) (*models.Rating, error) {
			return &models.Rating{ID: id}, nil
		},
		deleteFn: func(_ context.Context, _ *models.Rating) error { return nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn     func(context.Context, uint, uint) error
	deleteFn     func(context.Context, uint, uint) error
	existsFn     func(context.Context, uint, uint) (bool, error)
	followersFn  func(context.Context, []uint) (map[uint][]models.User, error)
	followingsFn func(context.Context, []uint) (map[uint][]models.User, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followingID uint) error {
	return s.createFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) error {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Followers(ctx context.Context, ids []uint) (map[uint][]models.User, error) {
	return s.followersFn(ctx, ids)
}
func (s *followRepoStub) Followings(ctx context.Context, ids []uint) (map[uint][]models.User, error) {
	return s.followingsFn(ctx, ids)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn: func(_ context.Context, _, _ uint) error { return nil },
		deleteFn: func(_ context.Context, _, _ uint) error { return nil },
		existsFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		followersFn: func(_ context.Context, _ []uint) (map[uint][]models.User, error) {
			return map[uint][]models.User{}, nil
		},
		followingsFn: func(_ context.Context, _ []uint) (map[uint][]models.User, error) {
			return map[uint][]models.User{}, nil
		},
	}
}

// imageRepoStub is a stub for repository.ImageRepository.
type imageRepoStub struct {
	createFn    func(context.Context, *models.Image) error
	getByHashFn func(context.Context, string) (*models.Image, error)
}

func (s *imageRepoStub) Create(ctx context.Context, img *models.Image) error {
	return s.createFn(ctx, img)
}
func (s *imageRepoStub) GetByHash(ctx context.Context, hash string) (*models.Image, error) {
	return s.getByHashFn(ctx, hash)
}

func noopImageRepo() *imageRepoStub {
	return &imageRepoStub{
		createFn:    func(_ context.Context, _ *models.Image) error { return nil },
		getByHashFn: func(_ context.Context, _ string) (*models.Image, error) { return nil, nil },
	}
}

type publishedEvent struct {
	UserID  uint
	Type    string
	Payload any
}

// recordingPublisher captures published notifications.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishUserEvent(_ context.Context, userID uint, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

func asUser(id uint, username string) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{ID: id, Username: username})
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}

func ptr[T any](v T) *T { return &v }
