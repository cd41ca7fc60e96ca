package auth

import (
	"context"

	"ratefolio/internal/middleware"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	ID       uint
	Username string
}

type identityKey struct{}

// WithIdentity stores id in ctx. The user ID is also exposed under the
// logging key so structured logs carry it.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, id)
	return context.WithValue(ctx, middleware.UserIDKey, id.ID)
}

// FromContext returns the caller identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.ID != 0
}
