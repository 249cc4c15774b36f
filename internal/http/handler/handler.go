package handler

import (
	"database/sql"

	"docuvault/internal/backup"
	"docuvault/internal/config"
	"docuvault/internal/repository"
	"docuvault/internal/service"
)

// API bundles the services behind the HTTP surface. Handlers stay thin:
// decode, delegate, encode.
type API struct {
	db        *sql.DB
	customers service.CustomerService
	documents service.DocumentService
	types     service.DocumentTypeService
	users     service.UserService
	portal    service.PortalService
	backups   *backup.Engine
	settings  repository.SettingsRepository
	auditLog  repository.AuditRepository
	uploads   config.UploadConfig
}

// NewAPI constructs the HTTP handler set.
func NewAPI(
	db *sql.DB,
	customers service.CustomerService,
	documents service.DocumentService,
	types service.DocumentTypeService,
	users service.UserService,
	portal service.PortalService,
	backups *backup.Engine,
	settings repository.SettingsRepository,
	auditLog repository.AuditRepository,
	uploads config.UploadConfig,
) *API {
	return &API{
		db:        db,
		customers: customers,
		documents: documents,
		types:     types,
		users:     users,
		portal:    portal,
		backups:   backups,
		settings:  settings,
		auditLog:  auditLog,
		uploads:   uploads,
	}
}
