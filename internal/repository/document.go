package repository

import (
	"context"

	"docuvault/internal/model"
)

// DocumentFilter narrows document list queries. Zero values mean "no filter".
type DocumentFilter struct {
	CustomerID     string
	DocumentTypeID string
	Search         string
	// CustomerIDs, when non-nil, restricts results to the given customers.
	// Used to scope client-portal queries to a visible set.
	CustomerIDs []string
}

// DocumentRepository defines data access for documents and their version
// history using SQL queries only.
type DocumentRepository interface {
	// Create inserts a new document row (version 1) and returns it.
	Create(ctx context.Context, d *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID with joined display fields.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindBySlot returns the document occupying the (customer, type) slot,
	// or a no-rows error when the slot is empty.
	FindBySlot(ctx context.Context, customerID, documentTypeID string) (*model.Document, error)

	// List returns a filtered page of documents with joined display fields.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// ListByCustomer returns all documents owned by a customer.
	ListByCustomer(ctx context.Context, customerID string) ([]model.Document, error)

	// UpdateVersion replaces the document's file metadata after a new upload
	// superseded the previous file.
	UpdateVersion(ctx context.Context, d *model.Document) error

	// RecordVersion inserts a DocumentVersion row for an archived file.
	RecordVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error)

	// ListVersions returns the version history of a document, newest first.
	ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error)

	// FindVersion returns one archived version of the given document.
	FindVersion(ctx context.Context, documentID, versionID string) (*model.DocumentVersion, error)

	// Delete removes a document row; version rows cascade in the database.
	Delete(ctx context.Context, id string) error

	// CountByType returns how many documents reference a document type.
	CountByType(ctx context.Context, documentTypeID string) (int, error)
}
