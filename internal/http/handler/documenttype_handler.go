package handler

import (
	"github.com/gofiber/fiber/v2"

	"docuvault/internal/http/middleware"
	"docuvault/internal/service"
)

// ListDocumentTypes returns the document type catalog. active_only=true
// restricts the list to types still accepting uploads.
func (a *API) ListDocumentTypes(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active_only", false)

	types, err := a.types.List(c.UserContext(), middleware.ActorFromCtx(c), activeOnly)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(types)
}

// CreateDocumentType adds a new type to the catalog.
func (a *API) CreateDocumentType(c *fiber.Ctx) error {
	var in service.DocumentTypeInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	dt, err := a.types.Create(c.UserContext(), middleware.ActorFromCtx(c), in)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dt)
}

// UpdateDocumentType renames or re-describes a type.
func (a *API) UpdateDocumentType(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}
	var in service.DocumentTypeInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	dt, err := a.types.Update(c.UserContext(), middleware.ActorFromCtx(c), id, in)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(dt)
}

// DeleteDocumentType removes an unreferenced type, or deactivates it when
// documents still reference it.
func (a *API) DeleteDocumentType(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	if err := a.types.Delete(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ActivateDocumentType reopens a deactivated type for uploads.
func (a *API) ActivateDocumentType(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	if err := a.types.Activate(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
