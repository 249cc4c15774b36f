package handler

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"docuvault/internal/access"
	"docuvault/internal/http/middleware"
	"docuvault/internal/repository"
)

// GetCustomFieldSchema returns the allow-list of custom field keys accepted
// on customer records. An unset schema is an empty list.
func (a *API) GetCustomFieldSchema(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if !access.Can(actor.Role, access.ActionViewCustomers) {
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "you do not have permission to view settings")
	}

	raw, err := a.settings.Get(c.UserContext(), repository.SettingCustomFieldSchema)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(fiber.Map{"fields": []string{}})
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}

	var fields []string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(fiber.Map{"fields": fields})
}

type customFieldSchemaRequest struct {
	Fields []string `json:"fields"`
}

// SetCustomFieldSchema replaces the custom field allow-list.
func (a *API) SetCustomFieldSchema(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if !access.Can(actor.Role, access.ActionManageSettings) {
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "you do not have permission to manage settings")
	}

	var req customFieldSchemaRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	for _, f := range req.Fields {
		if f == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "custom field keys cannot be empty")
		}
	}

	raw, err := json.Marshal(req.Fields)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	if err := a.settings.Put(c.UserContext(), repository.SettingCustomFieldSchema, string(raw)); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(fiber.Map{"fields": req.Fields})
}

// ListAuditLog returns a page of the audit trail, newest first.
func (a *API) ListAuditLog(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if !access.Can(actor.Role, access.ActionViewAuditLog) {
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "you do not have permission to view the audit log")
	}

	limit, offset, ok := pageParams(c)
	if !ok {
		return nil
	}

	res, err := a.auditLog.List(c.UserContext(), repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(res)
}
