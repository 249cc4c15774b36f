package postgres

import (
	"context"
	"database/sql"

	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// DocumentTypePostgres is a PostgreSQL implementation of
// repository.DocumentTypeRepository.
type DocumentTypePostgres struct {
	db *sql.DB
}

// NewDocumentTypePostgres creates a new DocumentTypePostgres repository.
func NewDocumentTypePostgres(db *sql.DB) *DocumentTypePostgres {
	return &DocumentTypePostgres{db: db}
}

var _ repository.DocumentTypeRepository = (*DocumentTypePostgres)(nil)

const documentTypeColumns = `id, name, COALESCE(description, ''), is_active, created_at`

func scanDocumentType(row interface{ Scan(...any) error }) (*model.DocumentType, error) {
	var dt model.DocumentType
	if err := row.Scan(&dt.ID, &dt.Name, &dt.Description, &dt.IsActive, &dt.CreatedAt); err != nil {
		return nil, err
	}
	return &dt, nil
}

func (r *DocumentTypePostgres) Create(ctx context.Context, dt *model.DocumentType) (*model.DocumentType, error) {
	const q = `
		INSERT INTO document_types (id, name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + documentTypeColumns
	row := r.db.QueryRowContext(ctx, q, dt.ID, dt.Name, nullable(dt.Description), dt.IsActive, dt.CreatedAt)
	return scanDocumentType(row)
}

func (r *DocumentTypePostgres) FindByID(ctx context.Context, id string) (*model.DocumentType, error) {
	const q = `SELECT ` + documentTypeColumns + ` FROM document_types WHERE id = $1`
	return scanDocumentType(r.db.QueryRowContext(ctx, q, id))
}

func (r *DocumentTypePostgres) FindByName(ctx context.Context, name string) (*model.DocumentType, error) {
	const q = `SELECT ` + documentTypeColumns + ` FROM document_types WHERE lower(name) = lower($1)`
	return scanDocumentType(r.db.QueryRowContext(ctx, q, name))
}

func (r *DocumentTypePostgres) List(ctx context.Context, activeOnly bool) ([]model.DocumentType, error) {
	q := `SELECT ` + documentTypeColumns + ` FROM document_types`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentType, 0)
	for rows.Next() {
		dt, err := scanDocumentType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *dt)
	}
	return items, rows.Err()
}

func (r *DocumentTypePostgres) Update(ctx context.Context, dt *model.DocumentType) (*model.DocumentType, error) {
	const q = `
		UPDATE document_types SET name = $2, description = $3
		WHERE id = $1
		RETURNING ` + documentTypeColumns
	row := r.db.QueryRowContext(ctx, q, dt.ID, dt.Name, nullable(dt.Description))
	return scanDocumentType(row)
}

func (r *DocumentTypePostgres) SetActive(ctx context.Context, id string, active bool) error {
	const q = `UPDATE document_types SET is_active = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, active)
	return err
}

func (r *DocumentTypePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM document_types WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
