// Package graph exposes the services through a schema-first GraphQL API.
package graph

import (
	"context"

	"ratefolio/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
)

// Services groups the collaborators the root resolver delegates to.
type Services struct {
	Users      *service.UserService
	Accounts   *service.AccountService
	Portfolios *service.PortfolioService
	Ratings    *service.RatingService
	Feedbacks  *service.FeedbackService
	Social     *service.SocialService
}

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	svc Services
}

// NewResolver returns a root resolver backed by svc.
func NewResolver(svc Services) *Resolver {
	return &Resolver{svc: svc}
}

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	users, err := r.svc.Users.List(ctx, nil, service.ExpandAll)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return userList(users, r.svc.Users, service.ExpandAll), nil
}

func (r *Resolver) User(ctx context.Context, args struct{ Username string }) (*userResolver, error) {
	u, err := r.svc.Users.GetByUsername(ctx, args.Username)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	if u == nil {
		return nil, nil
	}
	return newUserResolver(u, r.svc.Users, service.ExpandAll), nil
}

func (r *Resolver) Portfolios(ctx context.Context, args struct{ Username *string }) ([]*portfolioResolver, error) {
	list, err := r.svc.Portfolios.List(ctx, args.Username)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return portfolioList(list), nil
}

func (r *Resolver) Portfolio(ctx context.Context, args struct{ PortfolioID graphql.ID }) (*portfolioResolver, error) {
	id, err := parseID(args.PortfolioID)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	p, err := r.svc.Portfolios.Get(ctx, id)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	if p == nil {
		return nil, nil
	}
	return &portfolioResolver{p: p}, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.svc.Users.Me(ctx)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return newUserResolver(u, r.svc.Users, service.ExpandAll), nil
}

func (r *Resolver) Followers(ctx context.Context, args struct{ Username *string }) ([]*userResolver, error) {
	exp := service.Expansion{Followers: true}
	users, err := r.svc.Users.List(ctx, args.Username, exp)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return userList(users, r.svc.Users, exp), nil
}

func (r *Resolver) Followings(ctx context.Context, args struct{ Username *string }) ([]*userResolver, error) {
	exp := service.Expansion{Followings: true}
	users, err := r.svc.Users.List(ctx, args.Username, exp)
	if err != nil {
		return nil, toResolverError(ctx, err)
	}
	return userList(users, r.svc.Users, exp), nil
}
