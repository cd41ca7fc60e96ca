package server

import (
	"ratefolio/internal/graph"

	"github.com/gofiber/fiber/v2"
)

type graphQLErrorBody struct {
	Errors []fiber.Map `json:"errors"`
}

// GraphQL handles POST /graphql. It sits outside the /api REST surface and
// is described by the schema document served on GET /graphql, not swagger.
// Resolver failures are returned in "errors" with extensions.code.
func (s *Server) GraphQL(c *fiber.Ctx) error {
	var req graph.Request
	if err := c.BodyParser(&req); err != nil || req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(graphQLErrorBody{
			Errors: []fiber.Map{{
				"message":    "Request body must be JSON with a non-empty query",
				"extensions": fiber.Map{"code": "BAD_REQUEST"},
			}},
		})
	}

	resp := s.graph.Execute(c.UserContext(), req)
	return c.JSON(resp)
}

// GraphQLSchema handles GET /graphql and returns the schema document.
func (s *Server) GraphQLSchema(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/graphql; charset=utf-8")
	return c.SendString(graph.SDL())
}
