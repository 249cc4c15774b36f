package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
// The audit log is append-only; there is no update or delete path.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

func (r *AuditPostgres) Insert(ctx context.Context, e *model.AuditEntry) error {
	const q = `
		INSERT INTO audit_logs (id, user_id, username, action, entity_type, entity_id, entity_name, old_values, new_values, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	oldValues, err := encodeValues(e.OldValues)
	if err != nil {
		return err
	}
	newValues, err := encodeValues(e.NewValues)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		e.ID,
		nullable(e.UserID),
		nullable(e.Username),
		e.Action,
		e.EntityType,
		nullable(e.EntityID),
		nullable(e.EntityName),
		oldValues,
		newValues,
		nullable(e.IPAddress),
		e.CreatedAt,
	)
	return err
}

func (r *AuditPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.AuditEntry], error) {
	const qCount = `SELECT COUNT(*) FROM audit_logs`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, COALESCE(user_id, ''), COALESCE(username, ''), action, entity_type,
		       COALESCE(entity_id, ''), COALESCE(entity_name, ''), old_values, new_values,
		       COALESCE(ip_address, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		var (
			e         model.AuditEntry
			oldValues []byte
			newValues []byte
		)
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Username,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.EntityName,
			&oldValues,
			&newValues,
			&e.IPAddress,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(oldValues) > 0 {
			if err := json.Unmarshal(oldValues, &e.OldValues); err != nil {
				return nil, err
			}
		}
		if len(newValues) > 0 {
			if err := json.Unmarshal(newValues, &e.NewValues); err != nil {
				return nil, err
			}
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuditEntry]{Items: items, Total: total}, nil
}

func encodeValues(values map[string]string) (any, error) {
	if values == nil {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return b, nil
}
