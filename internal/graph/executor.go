package graph

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"ratefolio/internal/observability"

	graphql "github.com/graph-gophers/graphql-go"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed schema.graphql
var schemaSDL string

// DefaultMaxDepth bounds query nesting when no limit is configured.
const DefaultMaxDepth = 10

// Request is a GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Executor runs operations against the parsed schema.
type Executor struct {
	schema *graphql.Schema
}

// NewExecutor parses the embedded schema against resolver.
func NewExecutor(resolver *Resolver, maxDepth int) (*Executor, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	schema, err := graphql.ParseSchema(schemaSDL, resolver, graphql.MaxDepth(maxDepth))
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return &Executor{schema: schema}, nil
}

// SDL returns the schema document served to clients.
func SDL() string {
	return schemaSDL
}

// Execute runs one operation. Resolver failures are reported inside the
// response, never as a Go error.
func (e *Executor) Execute(ctx context.Context, req Request) *graphql.Response {
	start := time.Now()
	span, ctx := observability.NewSpan(ctx, "graphql.execute")
	defer span.End()
	span.AddAttributes(attribute.String("graphql.operation", req.OperationName))

	resp := e.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	failed := len(resp.Errors) > 0
	if failed {
		span.SetError(resp.Errors[0])
	}
	observability.ObserveGraphQL(req.OperationName, start, failed)
	return resp
}
