package repository

import (
	"context"

	"docuvault/internal/model"
)

// DocumentTypeRepository defines data access for document types.
type DocumentTypeRepository interface {
	Create(ctx context.Context, dt *model.DocumentType) (*model.DocumentType, error)
	FindByID(ctx context.Context, id string) (*model.DocumentType, error)
	FindByName(ctx context.Context, name string) (*model.DocumentType, error)
	List(ctx context.Context, activeOnly bool) ([]model.DocumentType, error)
	Update(ctx context.Context, dt *model.DocumentType) (*model.DocumentType, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}
