package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/internal/access"
	"docuvault/internal/model"
	"docuvault/internal/naming"
	"docuvault/internal/repository"
	"docuvault/internal/storage"
)

// fileOpTimeout bounds the disk work of a single upload so a stuck volume
// cannot pin the slot lock forever.
const fileOpTimeout = 30 * time.Second

// UploadInput describes a file already staged in the temp area.
type UploadInput struct {
	CustomerID     string
	DocumentTypeID string
	TempPath       string
	OriginalName   string
	Size           int64
	MimeType       string
}

// DocumentDetail is a document enriched with its version history, newest
// version first.
type DocumentDetail struct {
	model.Document
	Versions []model.DocumentVersion `json:"versions"`
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the document use cases. A (customer, document type)
// pair is one logical slot: re-uploading to an occupied slot archives the
// current file as a version and bumps the version counter.
type DocumentService interface {
	// Upload stores a staged file into its slot. The staged temp file is
	// always consumed: moved into place on success, deleted on any
	// validation or permission failure.
	Upload(ctx context.Context, actor access.Actor, in UploadInput) (*model.Document, error)

	// Get returns a document with its version history.
	Get(ctx context.Context, actor access.Actor, id string) (*DocumentDetail, error)

	// List returns documents matching the filter, restricted to the actor's
	// visible customers.
	List(ctx context.Context, actor access.Actor, customerID, documentTypeID, search string, limit, offset int) (*DocumentListResult, error)

	// Delete removes the document row, its primary file and all version
	// files. Files already missing from disk are tolerated.
	Delete(ctx context.Context, actor access.Actor, id string) error

	// Open returns a reader over the current primary file for download.
	Open(ctx context.Context, actor access.Actor, id string) (io.ReadCloser, *model.Document, error)

	// OpenVersion returns a reader over an archived version file.
	OpenVersion(ctx context.Context, actor access.Actor, documentID, versionID string) (io.ReadCloser, *model.DocumentVersion, error)
}

type documentService struct {
	documents repository.DocumentRepository
	customers repository.CustomerRepository
	types     repository.DocumentTypeRepository
	files     storage.FileStore
	resolver  *access.Resolver
	audit     AuditRecorder
	slots     *slotLocker
	log       *zap.Logger
	now       func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(
	documents repository.DocumentRepository,
	customers repository.CustomerRepository,
	types repository.DocumentTypeRepository,
	files storage.FileStore,
	resolver *access.Resolver,
	audit AuditRecorder,
	log *zap.Logger,
) DocumentService {
	return &documentService{
		documents: documents,
		customers: customers,
		types:     types,
		files:     files,
		resolver:  resolver,
		audit:     audit,
		slots:     newSlotLocker(),
		log:       log,
		now:       time.Now,
	}
}

func (s *documentService) Upload(ctx context.Context, actor access.Actor, in UploadInput) (*model.Document, error) {
	// The temp file was staged before validation could run, so every early
	// return has to dispose of it.
	cleanup := func() {
		if in.TempPath == "" {
			return
		}
		if err := os.Remove(in.TempPath); err != nil && !os.IsNotExist(err) {
			s.log.Warn("temp upload cleanup failed", zap.String("path", in.TempPath), zap.Error(err))
		}
	}

	if in.CustomerID == "" || in.DocumentTypeID == "" {
		cleanup()
		return nil, NewValidationError("customer id and document type id are required")
	}

	allowed, err := s.resolver.CanUploadTo(ctx, actor, in.CustomerID)
	if err != nil {
		cleanup()
		return nil, err
	}
	if !allowed {
		cleanup()
		return nil, NewPermissionError("you do not have permission to upload documents for this customer")
	}

	customer, err := s.customers.FindByID(ctx, in.CustomerID)
	if err != nil {
		cleanup()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("customer not found")
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	docType, err := s.types.FindByID(ctx, in.DocumentTypeID)
	if err != nil {
		cleanup()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("document type not found")
		}
		return nil, fmt.Errorf("find document type: %w", err)
	}
	if !docType.IsActive {
		cleanup()
		return nil, NewValidationError("document type %q is no longer accepting uploads", docType.Name)
	}

	// One writer per slot. Everything from reading the slot to updating the
	// row happens under this lock so concurrent uploads serialize into
	// distinct versions.
	unlock := s.slots.lock(in.CustomerID, in.DocumentTypeID)
	defer unlock()

	ioCtx, cancel := context.WithTimeout(ctx, fileOpTimeout)
	defer cancel()

	existing, err := s.documents.FindBySlot(ctx, in.CustomerID, in.DocumentTypeID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		cleanup()
		return nil, fmt.Errorf("find document slot: %w", err)
	}

	ext := naming.NormalizeExtension(filepath.Ext(in.OriginalName))
	filename := naming.DocumentFilename(customer.Name, docType.Name, ext, s.now())

	if existing == nil {
		return s.uploadNew(ioCtx, actor, customer, docType, in, filename)
	}
	return s.uploadVersion(ioCtx, actor, customer, docType, existing, in, filename)
}

func (s *documentService) uploadNew(ctx context.Context, actor access.Actor, customer *model.Customer, docType *model.DocumentType, in UploadInput, filename string) (*model.Document, error) {
	placed, err := s.files.PlaceUpload(ctx, in.TempPath, customer.FolderName, filename)
	if err != nil {
		return nil, fmt.Errorf("place upload: %w", err)
	}

	now := s.now().UTC()
	doc := &model.Document{
		ID:               uuid.NewString(),
		CustomerID:       customer.ID,
		DocumentTypeID:   docType.ID,
		OriginalFilename: in.OriginalName,
		StoredFilename:   placed.StoredFilename,
		FilePath:         placed.RelativePath,
		FileSize:         placed.Size,
		MimeType:         in.MimeType,
		CurrentVersion:   1,
		UploadedBy:       actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.documents.Create(ctx, doc)
	if err != nil {
		// The file is already in place; the row insert failing leaves an
		// orphan file, which the next upload to this slot will suffix past.
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionDocumentUpload,
		EntityType: "document",
		EntityID:   stored.ID,
		EntityName: stored.StoredFilename,
		NewValues: map[string]string{
			"customer":      customer.Name,
			"document_type": docType.Name,
			"filename":      stored.StoredFilename,
		},
	})
	return stored, nil
}

func (s *documentService) uploadVersion(ctx context.Context, actor access.Actor, customer *model.Customer, docType *model.DocumentType, existing *model.Document, in UploadInput, filename string) (*model.Document, error) {
	archived, err := s.files.ArchiveVersion(ctx, existing.FilePath, existing.CurrentVersion)
	if err != nil {
		return nil, fmt.Errorf("archive current version: %w", err)
	}
	if archived == nil {
		// Primary file drifted off disk. The upload proceeds; the version
		// counter still advances but no history row is written for the
		// missing file.
		s.log.Warn("primary file missing, version archive skipped",
			zap.String("document_id", existing.ID),
			zap.String("path", existing.FilePath))
	} else {
		_, err := s.documents.RecordVersion(ctx, &model.DocumentVersion{
			ID:            uuid.NewString(),
			DocumentID:    existing.ID,
			VersionNumber: existing.CurrentVersion,
			FilePath:      archived.RelativePath,
			FileSize:      existing.FileSize,
			UploadedBy:    existing.UploadedBy,
			CreatedAt:     existing.UpdatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("record version: %w", err)
		}
	}

	// The archive holds the old content now, so the primary can go before
	// the replacement lands under the same slot.
	if err := s.files.Remove(existing.FilePath); err != nil {
		return nil, fmt.Errorf("remove replaced primary: %w", err)
	}

	placed, err := s.files.PlaceUpload(ctx, in.TempPath, customer.FolderName, filename)
	if err != nil {
		return nil, fmt.Errorf("place upload: %w", err)
	}

	updated := *existing
	updated.StoredFilename = placed.StoredFilename
	updated.OriginalFilename = in.OriginalName
	updated.FilePath = placed.RelativePath
	updated.FileSize = placed.Size
	updated.MimeType = in.MimeType
	updated.CurrentVersion = existing.CurrentVersion + 1
	updated.UploadedBy = actor.UserID
	updated.UpdatedAt = s.now().UTC()

	if err := s.documents.UpdateVersion(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionDocumentVersionCreate,
		EntityType: "document",
		EntityID:   updated.ID,
		EntityName: updated.StoredFilename,
		OldValues:  map[string]string{"version": fmt.Sprint(existing.CurrentVersion)},
		NewValues: map[string]string{
			"version":  fmt.Sprint(updated.CurrentVersion),
			"filename": updated.StoredFilename,
		},
	})
	return &updated, nil
}

func (s *documentService) Get(ctx context.Context, actor access.Actor, id string) (*DocumentDetail, error) {
	doc, err := s.visibleDocument(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.documents.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return &DocumentDetail{Document: *doc, Versions: versions}, nil
}

func (s *documentService) List(ctx context.Context, actor access.Actor, customerID, documentTypeID, search string, limit, offset int) (*DocumentListResult, error) {
	if !access.Can(actor.Role, access.ActionViewDocuments) {
		return nil, NewPermissionError("you do not have permission to view documents")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	scope, err := s.resolver.CustomerScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter := repository.DocumentFilter{
		CustomerID:     customerID,
		DocumentTypeID: documentTypeID,
		Search:         search,
	}
	if !scope.All {
		if customerID != "" && !scope.Contains(customerID) {
			return &DocumentListResult{Items: []model.Document{}, Total: 0}, nil
		}
		filter.CustomerIDs = scope.List()
	}

	res, err := s.documents.List(ctx, filter, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Delete(ctx context.Context, actor access.Actor, id string) error {
	if !access.Can(actor.Role, access.ActionDeleteDocuments) {
		return NewPermissionError("you do not have permission to delete documents")
	}

	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("document not found")
		}
		return fmt.Errorf("find document: %w", err)
	}

	versions, err := s.documents.ListVersions(ctx, id)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	if err := s.files.Remove(doc.FilePath); err != nil {
		s.log.Warn("primary file removal failed", zap.String("path", doc.FilePath), zap.Error(err))
	}
	for _, v := range versions {
		if err := s.files.Remove(v.FilePath); err != nil {
			s.log.Warn("version file removal failed", zap.String("path", v.FilePath), zap.Error(err))
		}
	}

	// Version rows cascade with the document row.
	if err := s.documents.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionDocumentDelete,
		EntityType: "document",
		EntityID:   id,
		EntityName: doc.StoredFilename,
		OldValues: map[string]string{
			"filename": doc.StoredFilename,
			"versions": fmt.Sprint(doc.CurrentVersion),
		},
	})
	return nil
}

func (s *documentService) Open(ctx context.Context, actor access.Actor, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.visibleDocument(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(doc.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, NewNotFoundError("document file not found on disk")
		}
		return nil, nil, fmt.Errorf("open document file: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionDocumentDownload,
		EntityType: "document",
		EntityID:   doc.ID,
		EntityName: doc.StoredFilename,
	})
	return rc, doc, nil
}

func (s *documentService) OpenVersion(ctx context.Context, actor access.Actor, documentID, versionID string) (io.ReadCloser, *model.DocumentVersion, error) {
	if _, err := s.visibleDocument(ctx, actor, documentID); err != nil {
		return nil, nil, err
	}
	v, err := s.documents.FindVersion(ctx, documentID, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, NewNotFoundError("document version not found")
		}
		return nil, nil, fmt.Errorf("find version: %w", err)
	}
	rc, err := s.files.Open(v.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, NewNotFoundError("version file not found on disk")
		}
		return nil, nil, fmt.Errorf("open version file: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionDocumentDownload,
		EntityType: "document_version",
		EntityID:   v.ID,
		EntityName: filepath.Base(v.FilePath),
	})
	return rc, v, nil
}

// visibleDocument loads a document and checks it sits inside the actor's
// customer scope, answering not-found either way.
func (s *documentService) visibleDocument(ctx context.Context, actor access.Actor, id string) (*model.Document, error) {
	if !access.Can(actor.Role, access.ActionViewDocuments) {
		return nil, NewPermissionError("you do not have permission to view documents")
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("document not found")
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	scope, err := s.resolver.CustomerScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !scope.Contains(doc.CustomerID) {
		return nil, NewNotFoundError("document not found")
	}
	return doc, nil
}
