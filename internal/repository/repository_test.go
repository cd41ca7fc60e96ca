package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"ratefolio/internal/cache"
	"ratefolio/internal/models"
	"ratefolio/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(1, 1).
		WillReturnError(errors.New("connection timeout"))

	user, err := repo.GetByID(context.Background(), 1)
	assert.Nil(t, user)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_PostgresUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "ada", Email: "ada@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_LookupsAndDuplicates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")

	got, err := repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)

	_, err = repo.GetByID(ctx, 999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.NotEmpty(t, byEmail.Password)

	missing, err := repo.GetByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &models.User{Username: "ada", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
	err = repo.Create(ctx, &models.User{Username: "other", Email: "ada@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_ListOrderAndFilter(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := testutil.CreateUser(t, db, "first")
	second := testutil.CreateUser(t, db, "second")
	require.NoError(t, db.Model(first).Update("created_at", time.Now().Add(-time.Hour)).Error)
	testutil.CreatePortfolio(t, db, second, "work")

	users, err := repo.List(ctx, UserFilter{WithPortfolios: true})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "second", users[0].Username)
	assert.Len(t, users[0].Portfolios, 1)

	only, err := repo.List(ctx, UserFilter{Username: strPtr("first")})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Empty(t, only[0].Portfolios)
}

func TestUserRepository_UpdateRenameRewritesAuthors(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	own := testutil.CreatePortfolio(t, db, ada, "mine")
	other := testutil.CreatePortfolio(t, db, bob, "bob's")
	require.NoError(t, db.Create(&models.Rating{PortfolioID: other.ID, UserID: ada.ID, RatingNumber: 4, RatingAuthor: "ada"}).Error)
	require.NoError(t, db.Create(&models.Feedback{PortfolioID: other.ID, UserID: ada.ID, FeedbackText: "nice", FeedbackAuthor: "ada"}).Error)

	updated, err := repo.Update(ctx, ada.ID, UserUpdate{Username: strPtr("lovelace"), Email: strPtr("l@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "lovelace", updated.Username)
	assert.Equal(t, "l@example.com", updated.Email)

	var p models.Portfolio
	require.NoError(t, db.First(&p, own.ID).Error)
	assert.Equal(t, "lovelace", p.PortfolioAuthor)

	var r models.Rating
	require.NoError(t, db.Where("portfolio_id = ?", other.ID).First(&r).Error)
	assert.Equal(t, "lovelace", r.RatingAuthor)

	var f models.Feedback
	require.NoError(t, db.Where("portfolio_id = ?", other.ID).First(&f).Error)
	assert.Equal(t, "lovelace", f.FeedbackAuthor)

	_, err = repo.Update(ctx, ada.ID, UserUpdate{Username: strPtr("bob")})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.Update(ctx, 999, UserUpdate{Email: strPtr("x@example.com")})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_DeleteCascade(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	own := testutil.CreatePortfolio(t, db, ada, "mine")
	other := testutil.CreatePortfolio(t, db, bob, "bob's")
	require.NoError(t, db.Create(&models.Rating{PortfolioID: own.ID, UserID: bob.ID, RatingNumber: 5, RatingAuthor: "bob"}).Error)
	require.NoError(t, db.Create(&models.Rating{PortfolioID: other.ID, UserID: ada.ID, RatingNumber: 2, RatingAuthor: "ada"}).Error)
	require.NoError(t, db.Create(&models.Feedback{PortfolioID: other.ID, UserID: bob.ID, FeedbackText: "self note", FeedbackAuthor: "bob"}).Error)
	require.NoError(t, follows.Create(ctx, ada.ID, bob.ID))
	require.NoError(t, follows.Create(ctx, bob.ID, ada.ID))

	require.NoError(t, repo.DeleteCascade(ctx, ada.ID))

	var count int64
	db.Model(&models.User{}).Where("id = ?", ada.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Portfolio{}).Where("id = ?", own.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Rating{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Feedback{}).Count(&count)
	assert.Equal(t, int64(1), count, "other users' feedback on surviving portfolios stays")

	assert.Equal(t, models.CodeNotFound, models.ErrorCode(repo.DeleteCascade(ctx, ada.ID)))
}

func TestPortfolioRepository_CRUD(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPortfolioRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")

	p := &models.Portfolio{UserID: ada.ID, PortfolioAuthor: "ada", PortfolioText: "T", PortfolioImage: "I", PortfolioLink: "L"}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)
	older := testutil.CreatePortfolio(t, db, bob, "older")
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.PortfolioText)
	assert.Equal(t, "ada", got.PortfolioAuthor)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, p.ID, all[0].ID)

	bobs, err := repo.List(ctx, strPtr("bob"))
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, older.ID, bobs[0].ID)

	require.NoError(t, repo.Update(ctx, p.ID, PortfolioUpdate{PortfolioText: strPtr("T2")}))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "T2", got.PortfolioText)
	assert.Equal(t, "I", got.PortfolioImage)

	assert.Equal(t, models.CodeNotFound, models.ErrorCode(repo.Update(ctx, 999, PortfolioUpdate{PortfolioText: strPtr("x")})))

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(repo.Delete(ctx, p.ID)))
}

func TestRatingRepository_AddAndUpsert(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ratings := NewRatingRepository(db)
	portfolios := NewPortfolioRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	cy := testutil.CreateUser(t, db, "cy")
	p := testutil.CreatePortfolio(t, db, ada, "work")

	require.NoError(t, ratings.Add(ctx, &models.Rating{PortfolioID: p.ID, UserID: bob.ID, RatingNumber: 3, RatingAuthor: "bob"}))
	err := ratings.Add(ctx, &models.Rating{PortfolioID: p.ID, UserID: bob.ID, RatingNumber: 4, RatingAuthor: "bob"})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, ratings.Upsert(ctx, &models.Rating{PortfolioID: p.ID, UserID: cy.ID, RatingNumber: 5, RatingAuthor: "cy"}))
	require.NoError(t, ratings.Upsert(ctx, &models.Rating{PortfolioID: p.ID, UserID: cy.ID, RatingNumber: 1, RatingAuthor: "cy"}))

	got, err := portfolios.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Ratings, 2)
	byAuthor := map[string]int{}
	for _, r := range got.Ratings {
		byAuthor[r.RatingAuthor] = r.RatingNumber
	}
	assert.Equal(t, map[string]int{"bob": 3, "cy": 1}, byAuthor)

	bobRating := got.Ratings[0]
	fetched, err := ratings.Get(ctx, p.ID, bobRating.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, fetched.UserID)

	_, err = ratings.Get(ctx, p.ID+1, bobRating.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	require.NoError(t, ratings.Delete(ctx, fetched))
	_, err = ratings.Get(ctx, p.ID, bobRating.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestFeedbackRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFeedbackRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	p := testutil.CreatePortfolio(t, db, ada, "work")

	fb := &models.Feedback{PortfolioID: p.ID, UserID: ada.ID, FeedbackText: "first", FeedbackAuthor: "ada"}
	require.NoError(t, repo.Add(ctx, fb))

	require.NoError(t, repo.UpdateText(ctx, fb, "second"))
	got, err := repo.Get(ctx, p.ID, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.FeedbackText)
	assert.Equal(t, "ada", got.FeedbackAuthor)

	require.NoError(t, repo.Delete(ctx, got))
	_, err = repo.Get(ctx, p.ID, fb.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestFollowRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	cy := testutil.CreateUser(t, db, "cy")

	require.NoError(t, repo.Create(ctx, ada.ID, bob.ID))
	require.NoError(t, repo.Create(ctx, cy.ID, bob.ID))
	assert.ErrorIs(t, repo.Create(ctx, ada.ID, bob.ID), ErrDuplicate)

	exists, err := repo.Exists(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, bob.ID, ada.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	followers, err := repo.Followers(ctx, []uint{bob.ID, ada.ID})
	require.NoError(t, err)
	require.Len(t, followers[bob.ID], 2)
	assert.Equal(t, "ada", followers[bob.ID][0].Username)
	assert.Equal(t, "cy", followers[bob.ID][1].Username)
	assert.Empty(t, followers[ada.ID])

	followings, err := repo.Followings(ctx, []uint{ada.ID})
	require.NoError(t, err)
	require.Len(t, followings[ada.ID], 1)
	assert.Equal(t, "bob", followings[ada.ID][0].Username)

	require.NoError(t, repo.Delete(ctx, ada.ID, bob.ID))
	require.NoError(t, repo.Delete(ctx, ada.ID, bob.ID))
	followers, err = repo.Followers(ctx, []uint{bob.ID})
	require.NoError(t, err)
	require.Len(t, followers[bob.ID], 1)
	assert.Equal(t, "cy", followers[bob.ID][0].Username)

	empty, err := repo.Followings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestImageRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewImageRepository(db)
	ctx := context.Background()

	img := &models.Image{Hash: "abc", UserID: 1, MimeType: "image/png"}
	require.NoError(t, repo.Create(ctx, img))
	assert.ErrorIs(t, repo.Create(ctx, &models.Image{Hash: "abc", UserID: 1}), ErrDuplicate)

	got, err := repo.GetByHash(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)

	missing, err := repo.GetByHash(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPortfolioRepository_CacheInvalidatedByRatingWrites(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer cache.SetClient(nil)

	db := testutil.NewSQLiteDB(t)
	portfolios := NewPortfolioRepository(db)
	ratings := NewRatingRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	p := testutil.CreatePortfolio(t, db, ada, "work")

	_, err = portfolios.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.PortfolioKey(p.ID)))

	require.NoError(t, ratings.Add(ctx, &models.Rating{PortfolioID: p.ID, UserID: bob.ID, RatingNumber: 5, RatingAuthor: "bob"}))
	assert.False(t, mr.Exists(cache.PortfolioKey(p.ID)))

	got, err := portfolios.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Ratings, 1)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.username")))
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueConstraintError(errors.New("connection reset")))
}
