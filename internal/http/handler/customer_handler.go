package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docuvault/internal/http/middleware"
	"docuvault/internal/service"
)

// ListCustomers returns a page of customers matching the search term.
func (a *API) ListCustomers(c *fiber.Ctx) error {
	limit, offset, ok := pageParams(c)
	if !ok {
		return nil
	}

	res, err := a.customers.List(c.UserContext(), middleware.ActorFromCtx(c), c.Query("search"), limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(res)
}

// GetCustomer returns one customer with its documents.
func (a *API) GetCustomer(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	detail, err := a.customers.Get(c.UserContext(), middleware.ActorFromCtx(c), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(detail)
}

// CreateCustomer creates a customer, optionally under a parent.
func (a *API) CreateCustomer(c *fiber.Ctx) error {
	var in service.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	customer, err := a.customers.Create(c.UserContext(), middleware.ActorFromCtx(c), in)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// UpdateCustomer rewrites a customer's mutable fields.
func (a *API) UpdateCustomer(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}
	var in service.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	customer, err := a.customers.Update(c.UserContext(), middleware.ActorFromCtx(c), id, in)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(customer)
}

// DeleteCustomer removes a customer, its documents, and its folder.
func (a *API) DeleteCustomer(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	if err := a.customers.Delete(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFamilyTree returns the customer's id closure: itself and all
// transitive children.
func (a *API) GetFamilyTree(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	ids, err := a.customers.FamilyTree(c.UserContext(), middleware.ActorFromCtx(c), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{"customer_ids": ids})
}

type portalEnableRequest struct {
	Email string `json:"email"`
}

// EnablePortal grants client-portal access for a customer and returns the
// one-time credentials.
func (a *API) EnablePortal(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}
	var req portalEnableRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	creds, err := a.portal.Enable(c.UserContext(), middleware.ActorFromCtx(c), id, req.Email)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(creds)
}

// DisablePortal revokes a customer's client-portal access.
func (a *API) DisablePortal(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	if err := a.portal.Disable(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// uuidParam reads and validates a UUID path parameter. When ok is false the
// error response has already been written.
func uuidParam(c *fiber.Ctx, name string) (id string, ok bool) {
	id = c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	return id, true
}

// pageParams reads limit/offset query parameters. When ok is false the error
// response has already been written.
func pageParams(c *fiber.Ctx) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		return 0, 0, false
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		return 0, 0, false
	}
	return limit, offset, true
}
