package service

import (
	"context"
	"errors"

	"ratefolio/internal/models"
	"ratefolio/internal/repository"
)

const (
	MsgNoSelfFollow    = "You can not follow yourself"
	MsgAlreadyFollowed = "You have already followed this user"
)

// SocialService maintains the follow graph.
type SocialService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	users      *UserService
	events     EventPublisher
}

// NewSocialService returns a new SocialService. A nil publisher disables notifications.
func NewSocialService(followRepo repository.FollowRepository, userRepo repository.UserRepository, events EventPublisher) *SocialService {
	return &SocialService{
		followRepo: followRepo,
		userRepo:   userRepo,
		users:      NewUserService(userRepo, followRepo),
		events:     publisherOrNoop(events),
	}
}

// Follow makes the caller follow targetID and returns the caller with relations expanded.
func (s *SocialService) Follow(ctx context.Context, targetID uint) (*models.User, error) {
	me, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if targetID == me.ID {
		return nil, models.NewForbiddenError(MsgNoSelfFollow)
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	already, err := s.followRepo.Exists(ctx, me.ID, targetID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, models.NewForbiddenError(MsgAlreadyFollowed)
	}

	// The unique index still catches a concurrent duplicate.
	if err := s.followRepo.Create(ctx, me.ID, targetID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewForbiddenError(MsgAlreadyFollowed)
		}
		return nil, err
	}

	s.events.PublishUserEvent(ctx, targetID, EventUserFollowed, map[string]interface{}{
		"follower_id":       me.ID,
		"follower_username": me.Username,
	})
	return s.users.Expanded(ctx, me.ID)
}

// Unfollow removes the edge if present and returns the caller with relations expanded.
func (s *SocialService) Unfollow(ctx context.Context, targetID uint) (*models.User, error) {
	me, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if err := s.followRepo.Delete(ctx, me.ID, targetID); err != nil {
		return nil, err
	}
	return s.users.Expanded(ctx, me.ID)
}
