package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ratefolio/internal/auth"
	"ratefolio/internal/models"
	"ratefolio/internal/repository"
	"ratefolio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAccountService(t *testing.T, users repository.UserRepository) (*AccountService, *auth.TokenIssuer) {
	t.Helper()
	issuer := auth.NewTokenIssuer("test-secret-that-is-long-enough-123", time.Hour)
	return NewAccountService(users, issuer).WithBcryptCost(bcrypt.MinCost), issuer
}

func TestAccountServiceRegisterValidation(t *testing.T) {
	svc, _ := newAccountService(t, noopUserRepo())

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing fields", RegisterInput{Username: "ada"}},
		{"bad username", RegisterInput{Username: "a!", Email: "ada@example.com", Password: "SecurePass12!"}},
		{"bad email", RegisterInput{Username: "ada", Email: "nope", Password: "SecurePass12!"}},
		{"weak password", RegisterInput{Username: "ada", Email: "ada@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestAccountServiceRegisterDuplicate(t *testing.T) {
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, _ *models.User) error { return repository.ErrDuplicate }
	svc, _ := newAccountService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "ada", Email: "ada@example.com", Password: "SecurePass12!",
	})
	assertAppError(t, err, models.CodeValidation)
}

func TestAccountServiceRegisterAndLogin(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc, issuer := newAccountService(t, repository.NewUserRepository(db))
	ctx := context.Background()

	payload, err := svc.Register(ctx, RegisterInput{
		Username: "ada", Email: "  Ada@Example.com ", Password: "SecurePass12!",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", payload.User.Email)
	assert.NotEqual(t, "SecurePass12!", payload.User.Password)

	claims, err := issuer.Verify(payload.Token)
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, claims.UserID)

	login, err := svc.Login(ctx, "ada@example.com", "SecurePass12!")
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)

	_, err = svc.Login(ctx, "ada@example.com", "WrongPass12!!")
	assertAppError(t, err, models.CodeUnauthenticated)
	assert.Contains(t, err.Error(), MsgIncorrectCreds)

	_, err = svc.Login(ctx, "ghost@example.com", "SecurePass12!")
	assertAppError(t, err, models.CodeUnauthenticated)
	assert.Contains(t, err.Error(), MsgNoUserForEmail)

	_, err = svc.Register(ctx, RegisterInput{Username: "ada", Email: "other@example.com", Password: "SecurePass12!"})
	assertAppError(t, err, models.CodeValidation)
}

func TestAccountServiceLoginComparesForUnknownEmail(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc, _ := newAccountService(t, repository.NewUserRepository(db))
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "SecurePass12!"})
	require.NoError(t, err)

	var hashes [][]byte
	svc.comparePassword = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err = svc.Login(ctx, "ghost@example.com", "SecurePass12!")
	assertAppError(t, err, models.CodeUnauthenticated)
	_, err = svc.Login(ctx, "ada@example.com", "WrongPass12!!")
	assertAppError(t, err, models.CodeUnauthenticated)

	require.Len(t, hashes, 2)
	cost, err := bcrypt.Cost(hashes[0])
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.NotEqual(t, hashes[0], hashes[1])
}

func TestAccountServiceUpdateAccount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc, _ := newAccountService(t, repository.NewUserRepository(db))
	ada := testutil.CreateUser(t, db, "ada")
	testutil.CreateUser(t, db, "grace")
	p := testutil.CreatePortfolio(t, db, ada, "Compiler work")

	t.Run("requires identity", func(t *testing.T) {
		_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{Username: ptr("x")})
		assertAppError(t, err, models.CodeUnauthenticated)
	})

	t.Run("rejects taken username", func(t *testing.T) {
		_, err := svc.UpdateAccount(asUser(ada.ID, "ada"), UpdateAccountInput{Username: ptr("grace")})
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("rename rewrites authorship", func(t *testing.T) {
		updated, err := svc.UpdateAccount(asUser(ada.ID, "ada"), UpdateAccountInput{Username: ptr("lovelace")})
		require.NoError(t, err)
		assert.Equal(t, "lovelace", updated.Username)

		var stored models.Portfolio
		require.NoError(t, db.First(&stored, p.ID).Error)
		assert.Equal(t, "lovelace", stored.PortfolioAuthor)
	})

	t.Run("password change", func(t *testing.T) {
		_, err := svc.UpdateAccount(asUser(ada.ID, "lovelace"), UpdateAccountInput{Password: ptr("BrandNewPass99!")})
		require.NoError(t, err)
		_, err = svc.Login(context.Background(), "ada@example.com", "BrandNewPass99!")
		require.NoError(t, err)
	})

	t.Run("deleted account", func(t *testing.T) {
		_, err := svc.UpdateAccount(asUser(999, "ghost"), UpdateAccountInput{Email: ptr("ghost@example.com")})
		assertAppError(t, err, models.CodeUnauthenticated)
	})
}

func TestAccountServiceDeleteAccount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc, _ := newAccountService(t, repository.NewUserRepository(db))
	ada := testutil.CreateUser(t, db, "ada")
	grace := testutil.CreateUser(t, db, "grace")

	_, err := svc.DeleteAccount(context.Background())
	assertAppError(t, err, models.CodeUnauthenticated)

	deleted, err := svc.DeleteAccount(asUser(ada.ID, "ada"))
	require.NoError(t, err)
	assert.Equal(t, ada.ID, deleted.ID)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.First(&models.User{}, grace.ID).Error)
}

func TestAccountServiceDeleteAccountRepoError(t *testing.T) {
	repo := noopUserRepo()
	repo.deleteCascadeFn = func(_ context.Context, _ uint) error { return errors.New("db down") }
	svc, _ := newAccountService(t, repo)

	_, err := svc.DeleteAccount(asUser(1, "ada"))
	require.Error(t, err)
}
