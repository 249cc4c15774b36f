package handler

import (
	"github.com/gofiber/fiber/v2"

	"docuvault/internal/http/middleware"
	"docuvault/internal/service"
)

// ListUsers returns all principals.
func (a *API) ListUsers(c *fiber.Ctx) error {
	users, err := a.users.List(c.UserContext(), middleware.ActorFromCtx(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(users)
}

// CreateUser adds a principal.
func (a *API) CreateUser(c *fiber.Ctx) error {
	var in service.UserInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	u, err := a.users.Create(c.UserContext(), middleware.ActorFromCtx(c), in)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// UpdateUser rewrites a principal's fields; empty fields are left unchanged.
func (a *API) UpdateUser(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}
	var in service.UserInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	u, err := a.users.Update(c.UserContext(), middleware.ActorFromCtx(c), id, in)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(u)
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetUserActive toggles a principal.
func (a *API) SetUserActive(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := a.users.SetActive(c.UserContext(), middleware.ActorFromCtx(c), id, req.IsActive); err != nil {
		return writeServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteUser removes a principal.
func (a *API) DeleteUser(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	if err := a.users.Delete(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
