package graph

import (
	"context"

	"ratefolio/internal/auth"
	"ratefolio/internal/models"
	"ratefolio/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
)

// Account

func (r *Resolver) AddUser(ctx context.Context, args struct {
	Username string
	Email    string
	Password string
}) (*authResolver, error) {
	payload, err := r.svc.Accounts.Register(ctx, service.RegisterInput{
		Username: args.Username,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return &authResolver{payload: payload, users: r.svc.Users}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authResolver, error) {
	payload, err := r.svc.Accounts.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return &authResolver{payload: payload, users: r.svc.Users}, nil
}

// RemoveUser deletes the caller. The userId argument is accepted for
// compatibility and ignored.
func (r *Resolver) RemoveUser(ctx context.Context, _ struct{ UserID *graphql.ID }) (*userResolver, error) {
	u, err := r.svc.Accounts.DeleteAccount(ctx)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.detachedUser(u), nil
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct {
	Username *string
	Email    *string
	Password *string
}) (*userResolver, error) {
	u, err := r.svc.Accounts.UpdateAccount(ctx, service.UpdateAccountInput{
		Username: args.Username,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return newUserResolver(u, r.svc.Users, service.Expansion{}), nil
}

// Portfolio

func (r *Resolver) AddPortfolio(ctx context.Context, args struct {
	PortfolioText  string
	PortfolioImage *string
	PortfolioLink  *string
}) (*portfolioResolver, error) {
	in := service.CreatePortfolioInput{PortfolioText: args.PortfolioText}
	if args.PortfolioImage != nil {
		in.PortfolioImage = *args.PortfolioImage
	}
	if args.PortfolioLink != nil {
		in.PortfolioLink = *args.PortfolioLink
	}
	return r.portfolioResult(ctx)(r.svc.Portfolios.Create(ctx, in))
}

func (r *Resolver) RemovePortfolio(ctx context.Context, args struct{ PortfolioID graphql.ID }) (*portfolioResolver, error) {
	id, err := callerID(ctx, args.PortfolioID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Portfolios.Delete(ctx, id))
}

func (r *Resolver) UpdatePortfolio(ctx context.Context, args struct {
	PortfolioID    graphql.ID
	PortfolioText  *string
	PortfolioImage *string
	PortfolioLink  *string
}) (*portfolioResolver, error) {
	id, err := callerID(ctx, args.PortfolioID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Portfolios.Update(ctx, id, service.UpdatePortfolioInput{
		PortfolioText:  args.PortfolioText,
		PortfolioImage: args.PortfolioImage,
		PortfolioLink:  args.PortfolioLink,
	}))
}

// Rating

type ratingArgs struct {
	PortfolioID  graphql.ID
	RatingNumber int32
}

func (r *Resolver) AddRating(ctx context.Context, args ratingArgs) (*portfolioResolver, error) {
	id, err := callerID(ctx, args.PortfolioID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Ratings.Add(ctx, id, int(args.RatingNumber)))
}

func (r *Resolver) UpdateRating(ctx context.Context, args ratingArgs) (*portfolioResolver, error) {
	id, err := callerID(ctx, args.PortfolioID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Ratings.Update(ctx, id, int(args.RatingNumber)))
}

func (r *Resolver) RemoveRating(ctx context.Context, args struct {
	PortfolioID graphql.ID
	RatingID    graphql.ID
}) (*portfolioResolver, error) {
	portfolioID, ratingID, err := callerIDPair(ctx, args.PortfolioID, args.RatingID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Ratings.Remove(ctx, portfolioID, ratingID))
}

// Feedback

func (r *Resolver) AddFeedback(ctx context.Context, args struct {
	PortfolioID  graphql.ID
	FeedbackText string
}) (*portfolioResolver, error) {
	id, err := callerID(ctx, args.PortfolioID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Feedbacks.Add(ctx, id, args.FeedbackText))
}

func (r *Resolver) RemoveFeedback(ctx context.Context, args struct {
	PortfolioID graphql.ID
	FeedbackID  graphql.ID
}) (*portfolioResolver, error) {
	portfolioID, feedbackID, err := callerIDPair(ctx, args.PortfolioID, args.FeedbackID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Feedbacks.Remove(ctx, portfolioID, feedbackID))
}

func (r *Resolver) UpdateFeedback(ctx context.Context, args struct {
	PortfolioID  graphql.ID
	FeedbackID   graphql.ID
	FeedbackText string
}) (*portfolioResolver, error) {
	portfolioID, feedbackID, err := callerIDPair(ctx, args.PortfolioID, args.FeedbackID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return r.portfolioResult(ctx)(r.svc.Feedbacks.Update(ctx, portfolioID, feedbackID, args.FeedbackText))
}

// Social graph

func (r *Resolver) FollowUser(ctx context.Context, args struct{ UserID graphql.ID }) (*userResolver, error) {
	id, err := callerID(ctx, args.UserID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	u, err := r.svc.Social.Follow(ctx, id)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return newUserResolver(u, r.svc.Users, service.ExpandAll), nil
}

func (r *Resolver) UnfollowUser(ctx context.Context, args struct{ UserID graphql.ID }) (*userResolver, error) {
	id, err := callerID(ctx, args.UserID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	u, err := r.svc.Social.Unfollow(ctx, id)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return newUserResolver(u, r.svc.Users, service.ExpandAll), nil
}

func (r *Resolver) portfolioResult(ctx context.Context) func(*models.Portfolio, error) (*portfolioResolver, error) {
	return func(p *models.Portfolio, err error) (*portfolioResolver, error) {
		if err != nil {
			return nil, toResolverError(ctx, err)
		}
		return &portfolioResolver{p: p}, nil
	}
}

// detachedUser resolves a user that no longer exists; its relations are empty.
func (r *Resolver) detachedUser(u *models.User) *userResolver {
	u.Portfolios, u.Followers, u.Followings = nil, nil, nil
	return newUserResolver(u, r.svc.Users, service.ExpandAll)
}

// callerID parses an ID argument of an identity-scoped mutation. Anonymous
// callers get the authentication error regardless of the argument.
func callerID(ctx context.Context, id graphql.ID) (uint, error) {
	if _, ok := auth.FromContext(ctx); !ok {
		return 0, models.NewUnauthenticatedError(service.MsgLoginRequired)
	}
	return parseID(id)
}

func callerIDPair(ctx context.Context, a, b graphql.ID) (uint, uint, error) {
	first, err := callerID(ctx, a)
	if err != nil {
		return 0, 0, err
	}
	second, err := parseID(b)
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}
