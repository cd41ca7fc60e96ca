// Package service contains the business rules behind the GraphQL and REST surfaces.
package service

import (
	"context"

	"ratefolio/internal/auth"
	"ratefolio/internal/models"
	"ratefolio/internal/repository"
)

// MsgLoginRequired is returned whenever an identity-scoped operation runs without one.
const MsgLoginRequired = "You need to be logged in"

// Notification event types delivered to affected users.
const (
	EventUserFollowed   = "user_followed"
	EventPortfolioRated = "portfolio_rated"
	EventFeedbackAdded  = "feedback_added"
)

// EventPublisher delivers best-effort notifications. Implementations must not block on slow consumers.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any)
}

type noopPublisher struct{}

func (noopPublisher) PublishUserEvent(context.Context, uint, string, any) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func requireIdentity(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Identity{}, models.NewUnauthenticatedError(MsgLoginRequired)
	}
	return id, nil
}

// currentUser loads the caller. A token for a deleted account counts as anonymous.
func currentUser(ctx context.Context, users repository.UserRepository) (*models.User, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	user, err := users.GetByID(ctx, id.ID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewUnauthenticatedError(MsgLoginRequired)
		}
		return nil, err
	}
	return user, nil
}
