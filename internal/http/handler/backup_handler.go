package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docuvault/internal/backup"
	"docuvault/internal/http/middleware"
	"docuvault/internal/model"
)

// CreateBackup takes a snapshot and delivers it to the configured
// destinations. At most one snapshot runs at a time.
func (a *API) CreateBackup(c *fiber.Ctx) error {
	info, err := a.backups.Create(c.UserContext(), middleware.ActorFromCtx(c))
	if err != nil {
		if errors.Is(err, backup.ErrBackupInProgress) {
			return writeError(c, fiber.StatusConflict, "BACKUP_IN_PROGRESS", "a backup is already in progress")
		}
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(info)
}

// ListBackups returns the archives found at the configured destinations,
// newest first.
func (a *API) ListBackups(c *fiber.Ctx) error {
	backups, err := a.backups.List(c.UserContext(), middleware.ActorFromCtx(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(backups)
}

// GetBackupConfig returns the backup destination configuration.
func (a *API) GetBackupConfig(c *fiber.Ctx) error {
	cfg, err := a.backups.Config(c.UserContext(), middleware.ActorFromCtx(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(cfg)
}

// SetBackupConfig validates and persists the backup destination
// configuration.
func (a *API) SetBackupConfig(c *fiber.Ctx) error {
	var cfg model.BackupConfig
	if err := c.BodyParser(&cfg); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := a.backups.SetConfig(c.UserContext(), middleware.ActorFromCtx(c), cfg); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(cfg)
}
