package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeAndAuthFamily(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("follow: %w", NewForbiddenError("You can not follow yourself"))

	assert.Equal(t, CodeForbidden, ErrorCode(wrapped))
	assert.True(t, IsAuthError(wrapped))
	assert.True(t, IsAuthError(NewUnauthenticatedError("You need to be logged in")))
	assert.False(t, IsAuthError(NewNotFoundError("Portfolio", 3)))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, fiber.StatusUnauthorized, HTTPStatus(NewUnauthenticatedError("x")))
	assert.Equal(t, fiber.StatusForbidden, HTTPStatus(NewForbiddenError("x")))
	assert.Equal(t, fiber.StatusNotFound, HTTPStatus(NewNotFoundError("User", 1)))
	assert.Equal(t, fiber.StatusBadRequest, HTTPStatus(NewValidationError("x")))
	assert.Equal(t, fiber.StatusInternalServerError, HTTPStatus(errors.New("x")))
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("dial tcp: refused")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Internal server error", out.Error)
	assert.Equal(t, CodeInternal, out.Code)
	assert.Empty(t, out.Details)
}

func TestPortfolioRatingAverage(t *testing.T) {
	t.Parallel()

	p := &Portfolio{}
	_, ok := p.RatingAverage()
	assert.False(t, ok)

	p.Ratings = []Rating{{RatingNumber: 5}, {RatingNumber: 2}}
	avg, ok := p.RatingAverage()
	assert.True(t, ok)
	assert.InDelta(t, 3.5, avg, 0.001)
}
