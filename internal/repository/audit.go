package repository

import (
	"context"

	"docuvault/internal/model"
)

// AuditRepository appends to and reads from the audit log. Entries are never
// updated or deleted.
type AuditRepository interface {
	Insert(ctx context.Context, e *model.AuditEntry) error
	List(ctx context.Context, pq PageQuery) (*PageResult[model.AuditEntry], error)
}
