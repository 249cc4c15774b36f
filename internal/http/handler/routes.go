package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. All routes
// under /api except login run behind the supplied authentication middleware.
func RegisterRoutes(app *fiber.App, api *API, authn fiber.Handler) {
	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := api.db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Post("/api/auth/login", api.Login)

	r := app.Group("/api", authn)

	r.Get("/auth/me", api.Me)

	r.Get("/customers", api.ListCustomers)
	r.Post("/customers", api.CreateCustomer)
	r.Get("/customers/:id", api.GetCustomer)
	r.Put("/customers/:id", api.UpdateCustomer)
	r.Delete("/customers/:id", api.DeleteCustomer)
	r.Get("/customers/:id/family-tree", api.GetFamilyTree)
	r.Post("/customers/:id/portal", api.EnablePortal)
	r.Delete("/customers/:id/portal", api.DisablePortal)

	r.Get("/documents", api.ListDocuments)
	r.Post("/documents", api.UploadDocument)
	r.Get("/documents/:id", api.GetDocument)
	r.Delete("/documents/:id", api.DeleteDocument)
	r.Get("/documents/:id/download", api.DownloadDocument)
	r.Get("/documents/:id/view", api.ViewDocument)
	r.Get("/documents/:id/versions/:versionId/download", api.DownloadDocumentVersion)

	r.Get("/document-types", api.ListDocumentTypes)
	r.Post("/document-types", api.CreateDocumentType)
	r.Put("/document-types/:id", api.UpdateDocumentType)
	r.Delete("/document-types/:id", api.DeleteDocumentType)
	r.Post("/document-types/:id/activate", api.ActivateDocumentType)

	r.Get("/users", api.ListUsers)
	r.Post("/users", api.CreateUser)
	r.Put("/users/:id", api.UpdateUser)
	r.Put("/users/:id/active", api.SetUserActive)
	r.Delete("/users/:id", api.DeleteUser)

	r.Post("/backups", api.CreateBackup)
	r.Get("/backups", api.ListBackups)
	r.Get("/backups/config", api.GetBackupConfig)
	r.Put("/backups/config", api.SetBackupConfig)

	r.Get("/settings/custom-fields", api.GetCustomFieldSchema)
	r.Put("/settings/custom-fields", api.SetCustomFieldSchema)

	r.Get("/audit-logs", api.ListAuditLog)
}
