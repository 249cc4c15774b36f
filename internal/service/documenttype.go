package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuvault/internal/access"
	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// DocumentTypeInput carries the writable fields of a document type.
type DocumentTypeInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DocumentTypeService manages the catalog of document types. A type that is
// still referenced by documents can only be deactivated, never removed.
type DocumentTypeService interface {
	Create(ctx context.Context, actor access.Actor, in DocumentTypeInput) (*model.DocumentType, error)
	List(ctx context.Context, actor access.Actor, activeOnly bool) ([]model.DocumentType, error)
	Update(ctx context.Context, actor access.Actor, id string, in DocumentTypeInput) (*model.DocumentType, error)

	// Delete removes an unreferenced type outright. A type still referenced
	// by documents is deactivated instead, so existing uploads keep their
	// label while new uploads to it are rejected.
	Delete(ctx context.Context, actor access.Actor, id string) error

	// Activate reopens a previously deactivated type for uploads.
	Activate(ctx context.Context, actor access.Actor, id string) error
}

type documentTypeService struct {
	types     repository.DocumentTypeRepository
	documents repository.DocumentRepository
	audit     AuditRecorder
}

// NewDocumentTypeService constructs a DocumentTypeService.
func NewDocumentTypeService(types repository.DocumentTypeRepository, documents repository.DocumentRepository, audit AuditRecorder) DocumentTypeService {
	return &documentTypeService{types: types, documents: documents, audit: audit}
}

func (s *documentTypeService) Create(ctx context.Context, actor access.Actor, in DocumentTypeInput) (*model.DocumentType, error) {
	if !access.Can(actor.Role, access.ActionManageDocumentTypes) {
		return nil, NewPermissionError("you do not have permission to manage document types")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("document type name is required")
	}

	if existing, err := s.types.FindByName(ctx, name); err == nil && existing != nil {
		return nil, NewConflictError("document type %q already exists", name)
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check document type name: %w", err)
	}

	dt := &model.DocumentType{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.types.Create(ctx, dt)
	if err != nil {
		return nil, fmt.Errorf("create document type: %w", err)
	}
	return stored, nil
}

func (s *documentTypeService) List(ctx context.Context, actor access.Actor, activeOnly bool) ([]model.DocumentType, error) {
	if !access.Can(actor.Role, access.ActionViewDocumentTypes) {
		return nil, NewPermissionError("you do not have permission to view document types")
	}
	// Clients only ever see the active catalog.
	if actor.Role == model.RoleClient {
		activeOnly = true
	}
	types, err := s.types.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	return types, nil
}

func (s *documentTypeService) Update(ctx context.Context, actor access.Actor, id string, in DocumentTypeInput) (*model.DocumentType, error) {
	if !access.Can(actor.Role, access.ActionManageDocumentTypes) {
		return nil, NewPermissionError("you do not have permission to manage document types")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("document type name is required")
	}

	existing, err := s.types.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("document type not found")
		}
		return nil, fmt.Errorf("find document type: %w", err)
	}

	if name != existing.Name {
		if clash, err := s.types.FindByName(ctx, name); err == nil && clash != nil && clash.ID != id {
			return nil, NewConflictError("document type %q already exists", name)
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check document type name: %w", err)
		}
	}

	updated := *existing
	updated.Name = name
	updated.Description = in.Description
	stored, err := s.types.Update(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("update document type: %w", err)
	}
	return stored, nil
}

func (s *documentTypeService) Delete(ctx context.Context, actor access.Actor, id string) error {
	if !access.Can(actor.Role, access.ActionManageDocumentTypes) {
		return NewPermissionError("you do not have permission to manage document types")
	}

	if _, err := s.types.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("document type not found")
		}
		return fmt.Errorf("find document type: %w", err)
	}

	refs, err := s.documents.CountByType(ctx, id)
	if err != nil {
		return fmt.Errorf("count documents for type: %w", err)
	}
	if refs > 0 {
		if err := s.types.SetActive(ctx, id, false); err != nil {
			return fmt.Errorf("deactivate document type: %w", err)
		}
		return nil
	}
	if err := s.types.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document type: %w", err)
	}
	return nil
}

func (s *documentTypeService) Activate(ctx context.Context, actor access.Actor, id string) error {
	if !access.Can(actor.Role, access.ActionManageDocumentTypes) {
		return NewPermissionError("you do not have permission to manage document types")
	}
	if _, err := s.types.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("document type not found")
		}
		return fmt.Errorf("find document type: %w", err)
	}
	if err := s.types.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("activate document type: %w", err)
	}
	return nil
}
