package service

import (
	"context"
	"testing"

	"ratefolio/internal/models"
	"ratefolio/internal/repository"
	"ratefolio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type ratingFixture struct {
	db        *gorm.DB
	ratings   *RatingService
	feedbacks *FeedbackService
	events    *recordingPublisher
	owner     *models.User
	rater     *models.User
	portfolio *models.Portfolio
}

func newRatingFixture(t *testing.T) *ratingFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	events := &recordingPublisher{}
	portfolios := repository.NewPortfolioRepository(db)
	users := repository.NewUserRepository(db)
	owner := testutil.CreateUser(t, db, "owner")
	return &ratingFixture{
		db:        db,
		ratings:   NewRatingService(portfolios, repository.NewRatingRepository(db), users, events),
		feedbacks: NewFeedbackService(portfolios, repository.NewFeedbackRepository(db), users, events),
		events:    events,
		owner:     owner,
		rater:     testutil.CreateUser(t, db, "rater"),
		portfolio: testutil.CreatePortfolio(t, db, owner, "Landing pages"),
	}
}

func TestRatingServiceAdd(t *testing.T) {
	f := newRatingFixture(t)
	asRater := asUser(f.rater.ID, f.rater.Username)

	_, err := f.ratings.Add(context.Background(), f.portfolio.ID, 4)
	assertAppError(t, err, models.CodeUnauthenticated)

	_, err = f.ratings.Add(asUser(f.owner.ID, f.owner.Username), f.portfolio.ID, 4)
	assertAppError(t, err, models.CodeForbidden)
	assert.Contains(t, err.Error(), MsgNoSelfRating)

	_, err = f.ratings.Add(asRater, f.portfolio.ID, 9)
	assertAppError(t, err, models.CodeValidation)

	_, err = f.ratings.Add(asRater, 9999, 4)
	assertAppError(t, err, models.CodeNotFound)

	p, err := f.ratings.Add(asRater, f.portfolio.ID, 4)
	require.NoError(t, err)
	require.Len(t, p.Ratings, 1)
	assert.Equal(t, 4, p.Ratings[0].RatingNumber)
	assert.Equal(t, "rater", p.Ratings[0].RatingAuthor)

	_, err = f.ratings.Add(asRater, f.portfolio.ID, 2)
	assertAppError(t, err, models.CodeValidation)

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, f.owner.ID, events[0].UserID)
	assert.Equal(t, EventPortfolioRated, events[0].Type)
}

func TestRatingServiceUpdateOnlyTouchesCallersRating(t *testing.T) {
	f := newRatingFixture(t)
	other := testutil.CreateUser(t, f.db, "other")

	_, err := f.ratings.Add(asUser(other.ID, other.Username), f.portfolio.ID, 5)
	require.NoError(t, err)

	// Update without a prior rating creates one.
	p, err := f.ratings.Update(asUser(f.rater.ID, f.rater.Username), f.portfolio.ID, 2)
	require.NoError(t, err)
	require.Len(t, p.Ratings, 2)

	p, err = f.ratings.Update(asUser(f.rater.ID, f.rater.Username), f.portfolio.ID, 3)
	require.NoError(t, err)
	require.Len(t, p.Ratings, 2)

	byAuthor := map[string]int{}
	for _, r := range p.Ratings {
		byAuthor[r.RatingAuthor] = r.RatingNumber
	}
	assert.Equal(t, map[string]int{"other": 5, "rater": 3}, byAuthor)

	avg, ok := p.RatingAverage()
	require.True(t, ok)
	assert.InDelta(t, 4.0, avg, 0.0001)
}

func TestRatingServiceRemove(t *testing.T) {
	f := newRatingFixture(t)
	other := testutil.CreateUser(t, f.db, "other")

	p, err := f.ratings.Add(asUser(f.rater.ID, f.rater.Username), f.portfolio.ID, 4)
	require.NoError(t, err)
	ratingID := p.Ratings[0].ID

	_, err = f.ratings.Remove(asUser(other.ID, other.Username), f.portfolio.ID, ratingID)
	assertAppError(t, err, models.CodeForbidden)

	_, err = f.ratings.Remove(asUser(f.rater.ID, f.rater.Username), f.portfolio.ID, 9999)
	assertAppError(t, err, models.CodeNotFound)

	p, err = f.ratings.Remove(asUser(f.rater.ID, f.rater.Username), f.portfolio.ID, ratingID)
	require.NoError(t, err)
	assert.Empty(t, p.Ratings)
}

func TestRatingServiceSelfRatingCheckedBeforeRange(t *testing.T) {
	portfolios := noopPortfolioRepo()
	portfolios.getByIDFn = func(_ context.Context, id uint) (*models.Portfolio, error) {
		return &models.Portfolio{ID: id, UserID: 1}, nil
	}
	ratings := noopRatingRepo()
	ratings.addFn = func(_ context.Context, _ *models.Rating) error {
		t.Fatal("rating must not be stored")
		return nil
	}
	svc := NewRatingService(portfolios, ratings, noopUserRepo(), nil)

	_, err := svc.Add(asUser(1, "ada"), 5, 0)
	assertAppError(t, err, models.CodeForbidden)
}

func TestFeedbackService(t *testing.T) {
	f := newRatingFixture(t)
	asRater := asUser(f.rater.ID, f.rater.Username)
	asOwner := asUser(f.owner.ID, f.owner.Username)

	_, err := f.feedbacks.Add(context.Background(), f.portfolio.ID, "nice")
	assertAppError(t, err, models.CodeUnauthenticated)

	_, err = f.feedbacks.Add(asRater, f.portfolio.ID, "   ")
	assertAppError(t, err, models.CodeValidation)

	p, err := f.feedbacks.Add(asRater, f.portfolio.ID, "Great contrast")
	require.NoError(t, err)
	require.Len(t, p.Feedbacks, 1)
	fb := p.Feedbacks[0]
	assert.Equal(t, "rater", fb.FeedbackAuthor)

	// Owners may reply on their own portfolio without notifying themselves.
	p, err = f.feedbacks.Add(asOwner, f.portfolio.ID, "Thanks!")
	require.NoError(t, err)
	assert.Len(t, p.Feedbacks, 2)

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventFeedbackAdded, events[0].Type)
	assert.Equal(t, f.owner.ID, events[0].UserID)

	_, err = f.feedbacks.Update(asOwner, f.portfolio.ID, fb.ID, "edited by owner")
	assertAppError(t, err, models.CodeForbidden)

	p, err = f.feedbacks.Update(asRater, f.portfolio.ID, fb.ID, "Great contrast, tidy grid")
	require.NoError(t, err)
	assert.Equal(t, "Great contrast, tidy grid", p.Feedbacks[0].FeedbackText)

	_, err = f.feedbacks.Remove(asOwner, f.portfolio.ID, fb.ID)
	assertAppError(t, err, models.CodeForbidden)

	_, err = f.feedbacks.Remove(asRater, f.portfolio.ID, 9999)
	assertAppError(t, err, models.CodeNotFound)

	p, err = f.feedbacks.Remove(asRater, f.portfolio.ID, fb.ID)
	require.NoError(t, err)
	require.Len(t, p.Feedbacks, 1)
	assert.Equal(t, "owner", p.Feedbacks[0].FeedbackAuthor)
}
