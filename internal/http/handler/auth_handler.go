package handler

import (
	"github.com/gofiber/fiber/v2"

	"docuvault/internal/http/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a principal and returns a signed token.
func (a *API) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	res, err := a.users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		// Login failures are always 401, never 403, so callers cannot probe
		// which usernames exist.
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
	}
	return c.JSON(res)
}

// Me returns the authenticated principal.
func (a *API) Me(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	return c.JSON(fiber.Map{
		"user_id":  actor.UserID,
		"username": actor.Username,
		"role":     actor.Role,
	})
}
