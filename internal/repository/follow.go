package repository

import (
	"context"

	"ratefolio/internal/cache"
	"ratefolio/internal/models"

	"gorm.io/gorm"
)

// FollowRepository stores the follow graph. One row encodes both the
// follower's followings entry and the target's followers entry.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID uint) error
	Delete(ctx context.Context, followerID, followingID uint) error
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	Followers(ctx context.Context, userIDs []uint) (map[uint][]models.User, error)
	Followings(ctx context.Context, userIDs []uint) (map[uint][]models.User, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge. A second insert of the same pair yields ErrDuplicate.
func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) error {
	edge := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.UserKey(followerID), cache.UserKey(followingID))
	return nil
}

// Delete removes the edge if present. Removing a missing edge is not an error.
func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.UserKey(followerID), cache.UserKey(followingID))
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Followers returns, for each id, the users following it.
func (r *followRepository) Followers(ctx context.Context, userIDs []uint) (map[uint][]models.User, error) {
	return r.neighbours(ctx, userIDs, "following_id", func(f models.Follow) (uint, uint) {
		return f.FollowingID, f.FollowerID
	})
}

// Followings returns, for each id, the users it follows.
func (r *followRepository) Followings(ctx context.Context, userIDs []uint) (map[uint][]models.User, error) {
	return r.neighbours(ctx, userIDs, "follower_id", func(f models.Follow) (uint, uint) {
		return f.FollowerID, f.FollowingID
	})
}

// neighbours loads the edges keyed by column and then the users on the other
// end in a single query, preserving edge creation order.
func (r *followRepository) neighbours(
	ctx context.Context,
	userIDs []uint,
	column string,
	ends func(models.Follow) (owner, other uint),
) (map[uint][]models.User, error) {
	out := make(map[uint][]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var edges []models.Follow
	if err := r.db.WithContext(ctx).
		Where(column+" IN ?", userIDs).
		Order("id ASC").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(edges) == 0 {
		return out, nil
	}

	otherIDs := make([]uint, 0, len(edges))
	seen := make(map[uint]struct{}, len(edges))
	for _, e := range edges {
		_, other := ends(e)
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			otherIDs = append(otherIDs, other)
		}
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", otherIDs).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, e := range edges {
		owner, other := ends(e)
		if u, ok := byID[other]; ok {
			out[owner] = append(out[owner], u)
		}
	}
	return out, nil
}
