package graph

import (
	"context"

	"ratefolio/internal/models"
	"ratefolio/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
)

// userResolver resolves User. Relations that were not loaded up front are
// fetched when selected. Sibling fields resolve concurrently, so nothing is memoized here.
type userResolver struct {
	u     *models.User
	users *service.UserService
	exp   service.Expansion
}

func newUserResolver(u *models.User, users *service.UserService, exp service.Expansion) *userResolver {
	return &userResolver{u: u, users: users, exp: exp}
}

func userList(list []models.User, users *service.UserService, exp service.Expansion) []*userResolver {
	out := make([]*userResolver, len(list))
	for i := range list {
		out[i] = newUserResolver(&list[i], users, exp)
	}
	return out
}

func (r *userResolver) ID() graphql.ID { return formatID(r.u.ID) }
func (r *userResolver) Username() string { return r.u.Username }
func (r *userResolver) Email() string { return r.u.Email }
func (r *userResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.u.CreatedAt} }

func (r *userResolver) Portfolios(ctx context.Context) ([]*portfolioResolver, error) {
	list := r.u.Portfolios
	if !r.exp.Portfolios {
		loaded, err := r.users.Portfolios(ctx, r.u.Username)
		if err != nil {
			return nil, toResolverError(ctx, err)
		}
		list = loaded
	}
	return portfolioList(list), nil
}

func (r *userResolver) Followers(ctx context.Context) ([]*userResolver, error) {
	list, err := r.followers(ctx)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return userList(list, r.users, service.Expansion{}), nil
}

func (r *userResolver) Followings(ctx context.Context) ([]*userResolver, error) {
	list, err := r.followings(ctx)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return userList(list, r.users, service.Expansion{}), nil
}

func (r *userResolver) FollowerCount(ctx context.Context) (int32, error) {
	list, err := r.followers(ctx)
	if err != nil {
		return 0, toResolverError(ctx, err)
	}
	return int32(len(list)), nil
}

func (r *userResolver) FollowingCount(ctx context.Context) (int32, error) {
	list, err := r.followings(ctx)
	if err != nil {
		return 0, toResolverError(ctx, err)
	}
	return int32(len(list)), nil
}

func (r *userResolver) followers(ctx context.Context) ([]models.User, error) {
	if r.exp.Followers {
		return r.u.Followers, nil
	}
	return r.users.Followers(ctx, r.u.ID)
}

func (r *userResolver) followings(ctx context.Context) ([]models.User, error) {
	if r.exp.Followings {
		return r.u.Followings, nil
	}
	return r.users.Followings(ctx, r.u.ID)
}

type portfolioResolver struct {
	p *models.Portfolio
}

func portfolioList(list []models.Portfolio) []*portfolioResolver {
	out := make([]*portfolioResolver, len(list))
	for i := range list {
		out[i] = &portfolioResolver{p: &list[i]}
	}
	return out
}

func (r *portfolioResolver) ID() graphql.ID { return formatID(r.p.ID) }
func (r *portfolioResolver) PortfolioText() string { return r.p.PortfolioText }
func (r *portfolioResolver) PortfolioImage() *string { return optional(r.p.PortfolioImage) }
func (r *portfolioResolver) PortfolioLink() *string { return optional(r.p.PortfolioLink) }
func (r *portfolioResolver) PortfolioAuthor() string { return r.p.PortfolioAuthor }
func (r *portfolioResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.p.CreatedAt} }
func (r *portfolioResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: r.p.UpdatedAt} }
func (r *portfolioResolver) RatingCount() int32 { return int32(len(r.p.Ratings)) }

func (r *portfolioResolver) RatingAverage() *float64 {
	avg, ok := r.p.RatingAverage()
	if !ok {
		return nil
	}
	return &avg
}

func (r *portfolioResolver) Ratings() []*ratingResolver {
	out := make([]*ratingResolver, len(r.p.Ratings))
	for i := range r.p.Ratings {
		out[i] = &ratingResolver{r: &r.p.Ratings[i]}
	}
	return out
}

func (r *portfolioResolver) Feedbacks() []*feedbackResolver {
	out := make([]*feedbackResolver, len(r.p.Feedbacks))
	for i := range r.p.Feedbacks {
		out[i] = &feedbackResolver{f: &r.p.Feedbacks[i]}
	}
	return out
}

type ratingResolver struct {
	r *models.Rating
}

func (r *ratingResolver) ID() graphql.ID { return formatID(r.r.ID) }
func (r *ratingResolver) RatingNumber() int32 { return int32(r.r.RatingNumber) }
func (r *ratingResolver) RatingAuthor() string { return r.r.RatingAuthor }
func (r *ratingResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.r.CreatedAt} }

type feedbackResolver struct {
	f *models.Feedback
}

func (r *feedbackResolver) ID() graphql.ID { return formatID(r.f.ID) }
func (r *feedbackResolver) FeedbackText() string { return r.f.FeedbackText }
func (r *feedbackResolver) FeedbackAuthor() string { return r.f.FeedbackAuthor }
func (r *feedbackResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.f.CreatedAt} }

type authResolver struct {
	payload *service.AuthPayload
	users   *service.UserService
}

func (r *authResolver) Token() graphql.ID { return graphql.ID(r.payload.Token) }

func (r *authResolver) User() *userResolver {
	if r.payload.User == nil {
		return nil
	}
	return newUserResolver(r.payload.User, r.users, service.Expansion{})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
