package graph

import (
	"context"
	"errors"
	"strconv"

	"ratefolio/internal/middleware"
	"ratefolio/internal/models"
	"ratefolio/internal/observability"

	graphql "github.com/graph-gophers/graphql-go"
)

const msgInternal = "Internal server error"

// resolverError is returned from every resolver so the executor copies the
// error code into the response's extensions.
type resolverError struct {
	code    string
	message string
}

func (e *resolverError) Error() string { return e.message }

func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// toResolverError maps service errors onto GraphQL errors. Internal causes are
// logged and replaced with a generic message.
func toResolverError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(ctx, "graphql resolver failed", "error", err)
		observability.GraphQLErrors.WithLabelValues(models.CodeInternal).Inc()
		return &resolverError{code: models.CodeInternal, message: msgInternal}
	}
	observability.GraphQLErrors.WithLabelValues(appErr.Code).Inc()
	return &resolverError{code: appErr.Code, message: appErr.Message}
}

func parseID(id graphql.ID) (uint, error) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || n == 0 {
		return 0, models.NewValidationError("Invalid id: " + string(id))
	}
	return uint(n), nil
}

func formatID(id uint) graphql.ID {
	return graphql.ID(strconv.FormatUint(uint64(id), 10))
}
