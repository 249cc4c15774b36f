package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// AuditRecorder appends audit entries. Recording is best-effort: a failed
// write is logged and must never block the operation being audited.
type AuditRecorder interface {
	Record(ctx context.Context, e model.AuditEntry)
}

type auditRecorder struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

// NewAuditRecorder creates an AuditRecorder writing through the repository.
func NewAuditRecorder(repo repository.AuditRepository, log *zap.Logger) AuditRecorder {
	return &auditRecorder{repo: repo, log: log}
}

func (a *auditRecorder) Record(ctx context.Context, e model.AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := a.repo.Insert(ctx, &e); err != nil {
		a.log.Warn("audit write failed",
			zap.String("action", e.Action),
			zap.String("entity_type", e.EntityType),
			zap.Error(err))
	}
}

// NopAuditRecorder discards entries; useful in tests.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(context.Context, model.AuditEntry) {}
