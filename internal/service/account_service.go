package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"ratefolio/internal/models"
	"ratefolio/internal/repository"
	"ratefolio/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	MsgNoUserForEmail     = "No user found with this email address"
	MsgIncorrectCreds     = "Incorrect credentials"
	MsgUserAlreadyExists  = "Username or email is already taken"
	msgCredentialsMissing = "Username, email, and password are required"
)

// TokenSigner issues bearer tokens for a user.
type TokenSigner interface {
	Sign(userID uint, username string) (string, error)
}

// AuthPayload is returned by signup and login.
type AuthPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RegisterInput carries signup fields.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateAccountInput is the allow-list of fields a caller may change on their own account.
type UpdateAccountInput struct {
	Username *string
	Email    *string
	Password *string
}

// AccountService owns signup, login and self-service account changes.
type AccountService struct {
	userRepo   repository.UserRepository
	tokens     TokenSigner
	bcryptCost int

	comparePassword func(hash, password []byte) error
	dummyOnce       sync.Once
	dummyHash       []byte
}

// NewAccountService returns a new AccountService.
func NewAccountService(userRepo repository.UserRepository, tokens TokenSigner) *AccountService {
	return &AccountService{
		userRepo:        userRepo,
		tokens:          tokens,
		bcryptCost:      bcrypt.DefaultCost,
		comparePassword: bcrypt.CompareHashAndPassword,
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *AccountService) WithBcryptCost(cost int) *AccountService {
	s.bcryptCost = cost
	return s
}

// Register validates input, stores a new user with a hashed password and issues a token.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthPayload, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError(msgCredentialsMissing)
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewValidationError(MsgUserAlreadyExists)
		}
		return nil, err
	}

	return s.issue(user)
}

// Login checks credentials. Unknown email and wrong password are distinct Unauthenticated errors.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Unknown emails still pay for one comparison.
		_ = s.comparePassword(s.unknownUserHash(), []byte(password))
		return nil, models.NewUnauthenticatedError(MsgNoUserForEmail)
	}
	if err := s.comparePassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthenticatedError(MsgIncorrectCreds)
	}
	return s.issue(user)
}

// unknownUserHash is a hash at the configured cost that no password matches.
func (s *AccountService) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ratefolio-unknown-user"), s.bcryptCost)
	})
	return s.dummyHash
}

// UpdateAccount applies the allow-listed fields to the caller's own account.
func (s *AccountService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	var update repository.UserUpdate
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Username = &name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Email = &email
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	user, err := s.userRepo.Update(ctx, id.ID, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, models.NewValidationError(MsgUserAlreadyExists)
		case models.ErrorCode(err) == models.CodeNotFound:
			return nil, models.NewUnauthenticatedError(MsgLoginRequired)
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the caller's own account. No other account can be targeted.
func (s *AccountService) DeleteAccount(ctx context.Context) (*models.User, error) {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.DeleteCascade(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(b), nil
}

func (s *AccountService) issue(user *models.User) (*AuthPayload, error) {
	token, err := s.tokens.Sign(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthPayload{Token: token, User: user}, nil
}
