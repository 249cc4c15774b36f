package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docuvault/internal/http/middleware"
	"docuvault/internal/service"
)

// allowedUploadTypes maps accepted file extensions to the MIME type stored
// with the document.
var allowedUploadTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ListDocuments returns a filtered page of documents.
func (a *API) ListDocuments(c *fiber.Ctx) error {
	limit, offset, ok := pageParams(c)
	if !ok {
		return nil
	}

	res, err := a.documents.List(
		c.UserContext(),
		middleware.ActorFromCtx(c),
		c.Query("customer_id"),
		c.Query("document_type_id"),
		c.Query("search"),
		limit, offset,
	)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(res)
}

// GetDocument returns one document with its version history.
func (a *API) GetDocument(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	detail, err := a.documents.Get(c.UserContext(), middleware.ActorFromCtx(c), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(detail)
}

// UploadDocument stores a multipart upload into its (customer, type) slot.
// Re-uploading to an occupied slot archives the current file as a version.
func (a *API) UploadDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}
	if fh.Size > a.uploads.MaxSizeBytes {
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds the maximum size of %d bytes", a.uploads.MaxSizeBytes))
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mimeType, allowed := allowedUploadTypes[ext]
	if !allowed {
		return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_FILE_TYPE",
			"only pdf, jpg, jpeg and png files are accepted")
	}

	// Stage the body on disk first; the service owns the staged file from
	// here, including deleting it when validation fails.
	tempPath := filepath.Join(a.uploads.TempDir, "upload_"+uuid.NewString()+ext)
	if err := c.SaveFile(fh, tempPath); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "UPLOAD_FAILED", "could not store uploaded file")
	}

	doc, err := a.documents.Upload(c.UserContext(), middleware.ActorFromCtx(c), service.UploadInput{
		CustomerID:     c.FormValue("customer_id"),
		DocumentTypeID: c.FormValue("document_type_id"),
		TempPath:       tempPath,
		OriginalName:   fh.Filename,
		Size:           fh.Size,
		MimeType:       mimeType,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// DeleteDocument removes a document with its primary and version files.
func (a *API) DeleteDocument(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	if err := a.documents.Delete(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadDocument streams the current primary file.
func (a *API) DownloadDocument(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	rc, doc, err := a.documents.Open(c.UserContext(), middleware.ActorFromCtx(c), id)
	if err != nil {
		return writeServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, doc.MimeType)
	c.Set(fiber.HeaderContentDisposition, attachmentDisposition(doc.StoredFilename))
	return c.SendStream(rc)
}

// ViewDocument streams the current primary file for inline display, so
// browsers render PDFs and images instead of saving them.
func (a *API) ViewDocument(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}

	rc, doc, err := a.documents.Open(c.UserContext(), middleware.ActorFromCtx(c), id)
	if err != nil {
		return writeServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, doc.MimeType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+doc.StoredFilename+`"`)
	return c.SendStream(rc)
}

// DownloadDocumentVersion streams an archived version file.
func (a *API) DownloadDocumentVersion(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil
	}
	versionID, ok := uuidParam(c, "versionId")
	if !ok {
		return nil
	}

	rc, version, err := a.documents.OpenVersion(c.UserContext(), middleware.ActorFromCtx(c), id, versionID)
	if err != nil {
		return writeServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Set(fiber.HeaderContentDisposition, attachmentDisposition(filepath.Base(version.FilePath)))
	return c.SendStream(rc)
}

func attachmentDisposition(filename string) string {
	// Stored filenames only contain sanitized characters, so plain quoting
	// is enough.
	return `attachment; filename="` + filename + `"`
}

// CleanupStaleTempFiles is a best-effort sweep of abandoned staged uploads,
// used at startup.
func CleanupStaleTempFiles(tempDir string) {
	matches, err := filepath.Glob(filepath.Join(tempDir, "upload_*"))
	if err != nil {
		return
	}
	for _, path := range matches {
		_ = os.Remove(path)
	}
}
