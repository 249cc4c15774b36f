package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docuvault/internal/access"
	"docuvault/internal/auth"
	"docuvault/internal/repository"
)

// ActorLocalKey is the key used to store the authenticated actor in Fiber's
// context locals.
const ActorLocalKey = "actor"

// Auth returns a middleware that authenticates requests with a Bearer token.
//
// The principal is re-read from the database on every request so role changes
// and deactivation take effect immediately, not at token expiry.
func Auth(secret string, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := auth.ParseToken(token, secret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		u, err := users.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown principal")
		}
		if !u.IsActive {
			return fiber.NewError(fiber.StatusUnauthorized, "account is deactivated")
		}

		c.Locals(ActorLocalKey, access.Actor{
			UserID:   u.ID,
			Username: u.Username,
			Role:     u.Role,
			IP:       c.IP(),
		})
		return c.Next()
	}
}

// ActorFromCtx extracts the authenticated actor stored by Auth. The zero
// Actor is returned on unauthenticated routes.
func ActorFromCtx(c *fiber.Ctx) access.Actor {
	if v := c.Locals(ActorLocalKey); v != nil {
		if a, ok := v.(access.Actor); ok {
			return a
		}
	}
	return access.Actor{}
}
