package repository

import (
	"context"
	"errors"

	"ratefolio/internal/cache"
	"ratefolio/internal/models"

	"gorm.io/gorm"
)

// UserFilter narrows List. A nil Username returns every user.
type UserFilter struct {
	Username       *string
	WithPortfolios bool
}

// UserUpdate carries the mutable account fields. Nil fields are left untouched.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, update UserUpdate) (*models.User, error)
	DeleteCascade(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filter.Username != nil {
		q = q.Where("username = ?", *filter.Username)
	}
	if filter.WithPortfolios {
		q = preloadPortfolios(q, "Portfolios")
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update applies the allow-listed fields. A username change rewrites every
// denormalized author column in the same transaction.
func (r *userRepository) Update(ctx context.Context, id uint, update UserUpdate) (*models.User, error) {
	var (
		user     models.User
		touched  []uint
		renaming bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if update.Username != nil && *update.Username != user.Username {
			fields["username"] = *update.Username
			renaming = true
		}
		if update.Email != nil {
			fields["email"] = *update.Email
		}
		if update.PasswordHash != nil {
			fields["password"] = *update.PasswordHash
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&models.User{ID: id}).Updates(fields).Error; err != nil {
			return err
		}
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if !renaming {
			return nil
		}

		ids, err := portfoliosTouchedBy(tx, id)
		if err != nil {
			return err
		}
		touched = ids

		name := *update.Username
		if err := tx.Model(&models.Portfolio{}).Where("user_id = ?", id).
			Update("portfolio_author", name).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Rating{}).Where("user_id = ?", id).
			Update("rating_author", name).Error; err != nil {
			return err
		}
		return tx.Model(&models.Feedback{}).Where("user_id = ?", id).
			Update("feedback_author", name).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, id)
	if renaming {
		cache.InvalidatePortfolios(ctx, touched)
	}
	return &user, nil
}

// DeleteCascade removes the user, its follow edges, its portfolios with their
// children and every rating or feedback it authored elsewhere.
func (r *userRepository) DeleteCascade(ctx context.Context, id uint) error {
	var touched []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		ids, err := portfoliosTouchedBy(tx, id)
		if err != nil {
			return err
		}
		touched = ids

		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}

		if err := tx.Where("portfolio_id IN (?) OR user_id = ?", ownedPortfolioIDs(tx, id), id).
			Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("portfolio_id IN (?) OR user_id = ?", ownedPortfolioIDs(tx, id), id).
			Delete(&models.Feedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Portfolio{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("User", id)
		}
		return models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, id)
	cache.InvalidatePortfolios(ctx, touched)
	return nil
}

func ownedPortfolioIDs(tx *gorm.DB, userID uint) *gorm.DB {
	return tx.Model(&models.Portfolio{}).Select("id").Where("user_id = ?", userID)
}

// portfoliosTouchedBy lists portfolios owned, rated or commented on by userID.
func portfoliosTouchedBy(tx *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Portfolio{}).
		Where("user_id = ?", userID).
		Or("id IN (?)", tx.Model(&models.Rating{}).Select("portfolio_id").Where("user_id = ?", userID)).
		Or("id IN (?)", tx.Model(&models.Feedback{}).Select("portfolio_id").Where("user_id = ?", userID)).
		Pluck("id", &ids).Error
	return ids, err
}

func preloadPortfolios(q *gorm.DB, assoc string) *gorm.DB {
	return q.
		Preload(assoc, func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload(assoc+".Ratings", orderByID).
		Preload(assoc+".Feedbacks", orderByID)
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
