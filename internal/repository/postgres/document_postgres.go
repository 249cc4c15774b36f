package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentSelect = `
	SELECT d.id, d.customer_id, d.document_type_id, d.original_filename, d.stored_filename,
	       d.file_path, d.file_size, d.mime_type, d.current_version, d.uploaded_by,
	       d.created_at, d.updated_at,
	       COALESCE(c.name, ''), COALESCE(dt.name, ''), COALESCE(u.username, '')
	FROM documents d
	LEFT JOIN customers c ON d.customer_id = c.id
	LEFT JOIN document_types dt ON d.document_type_id = dt.id
	LEFT JOIN users u ON d.uploaded_by = u.id
`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var (
		d          model.Document
		uploadedBy sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.CustomerID,
		&d.DocumentTypeID,
		&d.OriginalFilename,
		&d.StoredFilename,
		&d.FilePath,
		&d.FileSize,
		&d.MimeType,
		&d.CurrentVersion,
		&uploadedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.CustomerName,
		&d.DocumentTypeName,
		&d.UploadedByName,
	); err != nil {
		return nil, err
	}
	d.UploadedBy = uploadedBy.String
	return &d, nil
}

// Create inserts a new document row (version 1) and returns it with joined
// display fields.
func (r *DocumentPostgres) Create(ctx context.Context, d *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, customer_id, document_type_id, original_filename, stored_filename, file_path, file_size, mime_type, current_version, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := r.db.ExecContext(ctx, q,
		d.ID,
		d.CustomerID,
		d.DocumentTypeID,
		d.OriginalFilename,
		d.StoredFilename,
		d.FilePath,
		d.FileSize,
		d.MimeType,
		d.CurrentVersion,
		nullable(d.UploadedBy),
		d.CreatedAt,
		d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, d.ID)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := documentSelect + ` WHERE d.id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindBySlot fetches the document occupying the (customer, type) slot.
func (r *DocumentPostgres) FindBySlot(ctx context.Context, customerID, documentTypeID string) (*model.Document, error) {
	q := documentSelect + ` WHERE d.customer_id = $1 AND d.document_type_id = $2`
	return scanDocument(r.db.QueryRowContext(ctx, q, customerID, documentTypeID))
}

// List returns a filtered page of documents and the total row count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where, args := buildDocumentFilter(f)

	countQ := `
		SELECT COUNT(*) FROM documents d
		LEFT JOIN customers c ON d.customer_id = c.id
	` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQ := fmt.Sprintf("%s%s ORDER BY d.created_at DESC, d.id DESC LIMIT $%d OFFSET $%d",
		documentSelect, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQ, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

func buildDocumentFilter(f repository.DocumentFilter) (string, []any) {
	clauses := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CustomerIDs != nil {
		if len(f.CustomerIDs) == 0 {
			// An empty visible set matches nothing.
			clauses = append(clauses, "1 = 0")
		} else {
			ph := make([]string, 0, len(f.CustomerIDs))
			for _, id := range f.CustomerIDs {
				ph = append(ph, arg(id))
			}
			clauses = append(clauses, "d.customer_id IN ("+strings.Join(ph, ", ")+")")
		}
	}
	if f.CustomerID != "" {
		clauses = append(clauses, "d.customer_id = "+arg(f.CustomerID))
	}
	if f.DocumentTypeID != "" {
		clauses = append(clauses, "d.document_type_id = "+arg(f.DocumentTypeID))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		clauses = append(clauses, "(d.original_filename ILIKE "+p+" OR c.name ILIKE "+p+")")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListByCustomer returns every document owned by a customer, newest first.
func (r *DocumentPostgres) ListByCustomer(ctx context.Context, customerID string) ([]model.Document, error) {
	q := documentSelect + ` WHERE d.customer_id = $1 ORDER BY d.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// UpdateVersion replaces the document's file metadata after an upload
// superseded the previous file.
func (r *DocumentPostgres) UpdateVersion(ctx context.Context, d *model.Document) error {
	const q = `
		UPDATE documents SET
			original_filename = $2,
			stored_filename = $3,
			file_path = $4,
			file_size = $5,
			mime_type = $6,
			current_version = $7,
			uploaded_by = $8,
			updated_at = $9
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q,
		d.ID,
		d.OriginalFilename,
		d.StoredFilename,
		d.FilePath,
		d.FileSize,
		d.MimeType,
		d.CurrentVersion,
		nullable(d.UploadedBy),
		d.UpdatedAt,
	)
	return err
}

// RecordVersion inserts a DocumentVersion row for an archived file.
func (r *DocumentPostgres) RecordVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error) {
	const q = `
		INSERT INTO document_versions (id, document_id, version_number, file_path, file_size, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, document_id, version_number, file_path, file_size, COALESCE(uploaded_by, ''), created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		v.ID,
		v.DocumentID,
		v.VersionNumber,
		v.FilePath,
		v.FileSize,
		nullable(v.UploadedBy),
		v.CreatedAt,
	)
	var out model.DocumentVersion
	if err := row.Scan(
		&out.ID,
		&out.DocumentID,
		&out.VersionNumber,
		&out.FilePath,
		&out.FileSize,
		&out.UploadedBy,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVersions returns the version history of a document, newest first.
func (r *DocumentPostgres) ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	const q = `
		SELECT id, document_id, version_number, file_path, file_size, COALESCE(uploaded_by, ''), created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentVersion, 0)
	for rows.Next() {
		var v model.DocumentVersion
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.VersionNumber,
			&v.FilePath,
			&v.FileSize,
			&v.UploadedBy,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// FindVersion returns one archived version of the given document.
func (r *DocumentPostgres) FindVersion(ctx context.Context, documentID, versionID string) (*model.DocumentVersion, error) {
	const q = `
		SELECT id, document_id, version_number, file_path, file_size, COALESCE(uploaded_by, ''), created_at
		FROM document_versions
		WHERE id = $1 AND document_id = $2
	`
	row := r.db.QueryRowContext(ctx, q, versionID, documentID)
	var v model.DocumentVersion
	if err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.FilePath,
		&v.FileSize,
		&v.UploadedBy,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete removes a document by ID. Version rows cascade in the database.
// It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// CountByType returns how many documents reference a document type.
func (r *DocumentPostgres) CountByType(ctx context.Context, documentTypeID string) (int, error) {
	const q = `SELECT COUNT(*) FROM documents WHERE document_type_id = $1`
	var n int
	err := r.db.QueryRowContext(ctx, q, documentTypeID).Scan(&n)
	return n, err
}
