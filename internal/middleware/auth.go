package middleware

import (
	"strings"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/service"
	"supermarket-pos/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// Guard authenticates the bearer token and authorizes the resolved actor
type Guard struct {
	auth service.AuthService
}

func NewGuard(auth service.AuthService) *Guard {
	return &Guard{auth: auth}
}

// Require admits an active user holding one of roles. No roles admits any authenticated user.
func (g *Guard) Require(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Extract token from "Bearer <token>"
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.Unauthorized("Missing authorization token")
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return apperror.Unauthorized("Invalid authorization format. Use: Bearer <token>")
		}

		// Validate token, user state and session version
		user, err := g.auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			return err
		}

		if !user.HasRole(roles...) {
			return apperror.Forbidden("Access denied. Insufficient permissions")
		}

		// Set actor in context for downstream handlers
		c.Locals(actorKey, user)
		return c.Next()
	}
}

// Actor returns the user resolved by Guard, or nil on public routes
func Actor(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(actorKey).(*model.User)
	return user
}
