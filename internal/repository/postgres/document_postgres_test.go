package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"docuvault/internal/model"
	"docuvault/internal/repository"
)

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "document_type_id", "original_filename", "stored_filename",
		"file_path", "file_size", "mime_type", "current_version", "uploaded_by",
		"created_at", "updated_at", "customer_name", "document_type_name", "uploaded_by_name",
	})
}

func addDocumentRow(rows *sqlmock.Rows, id string) *sqlmock.Rows {
	return rows.AddRow(
		id, "cust-1", "type-1", "scan.pdf", "JohnSmith_IDDocument_2024-03-15.pdf",
		"cust-1_JohnSmith/JohnSmith_IDDocument_2024-03-15.pdf", 123, "application/pdf", 1, "admin-1",
		time.Now(), time.Now(), "John Smith", "ID Document", "admin",
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:               "doc-1",
		CustomerID:       "cust-1",
		DocumentTypeID:   "type-1",
		OriginalFilename: "scan.pdf",
		StoredFilename:   "JohnSmith_IDDocument_2024-03-15.pdf",
		FilePath:         "cust-1_JohnSmith/JohnSmith_IDDocument_2024-03-15.pdf",
		FileSize:         123,
		MimeType:         "application/pdf",
		CurrentVersion:   1,
		UploadedBy:       "admin-1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.CustomerID, doc.DocumentTypeID, doc.OriginalFilename, doc.StoredFilename,
			doc.FilePath, doc.FileSize, doc.MimeType, doc.CurrentVersion, doc.UploadedBy,
			doc.CreatedAt, doc.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT (.+) FROM documents d").
		WithArgs(doc.ID).
		WillReturnRows(addDocumentRow(documentRows(), doc.ID))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, "John Smith", result.CustomerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindBySlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("occupied", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("cust-1", "type-1").
			WillReturnRows(addDocumentRow(documentRows(), "doc-1"))

		doc, err := repo.FindBySlot(ctx, "cust-1", "type-1")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "doc-1", doc.ID)
	})

	t.Run("empty slot", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("cust-1", "type-2").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindBySlot(ctx, "cust-1", "type-2")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("unfiltered", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs(10, 0).
			WillReturnRows(addDocumentRow(documentRows(), "doc-1"))

		res, err := repo.List(ctx, repository.DocumentFilter{}, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("filtered by customer and search", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d").
			WithArgs("cust-1", "%scan%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("cust-1", "%scan%", 10, 0).
			WillReturnRows(addDocumentRow(documentRows(), "doc-1"))

		res, err := repo.List(ctx,
			repository.DocumentFilter{CustomerID: "cust-1", Search: "scan"},
			repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
	})

	t.Run("empty visible set matches nothing", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs(10, 0).
			WillReturnRows(documentRows())

		res, err := repo.List(ctx,
			repository.DocumentFilter{CustomerIDs: []string{}},
			repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})
}

func TestDocumentPostgres_UpdateVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:               "doc-1",
		OriginalFilename: "newer.pdf",
		StoredFilename:   "JohnSmith_IDDocument_2024-04-01.pdf",
		FilePath:         "cust-1_JohnSmith/JohnSmith_IDDocument_2024-04-01.pdf",
		FileSize:         456,
		MimeType:         "application/pdf",
		CurrentVersion:   2,
		UploadedBy:       "admin-1",
		UpdatedAt:        now,
	}

	mock.ExpectExec("UPDATE documents SET").
		WithArgs(doc.ID, doc.OriginalFilename, doc.StoredFilename, doc.FilePath,
			doc.FileSize, doc.MimeType, doc.CurrentVersion, doc.UploadedBy, doc.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateVersion(ctx, doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_RecordVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	v := &model.DocumentVersion{
		ID:            "ver-1",
		DocumentID:    "doc-1",
		VersionNumber: 1,
		FilePath:      "cust-1_JohnSmith/versions/JohnSmith_IDDocument_2024-03-15_v1.pdf",
		FileSize:      123,
		UploadedBy:    "admin-1",
		CreatedAt:     now,
	}

	rows := sqlmock.NewRows([]string{"id", "document_id", "version_number", "file_path", "file_size", "uploaded_by", "created_at"}).
		AddRow(v.ID, v.DocumentID, v.VersionNumber, v.FilePath, v.FileSize, v.UploadedBy, v.CreatedAt)

	mock.ExpectQuery("INSERT INTO document_versions").
		WithArgs(v.ID, v.DocumentID, v.VersionNumber, v.FilePath, v.FileSize, v.UploadedBy, v.CreatedAt).
		WillReturnRows(rows)

	result, err := repo.RecordVersion(ctx, v)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, result.VersionNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "document_id", "version_number", "file_path", "file_size", "uploaded_by", "created_at"}).
		AddRow("ver-2", "doc-1", 2, "cust-1_JohnSmith/versions/f_v2.pdf", 200, "admin-1", time.Now()).
		AddRow("ver-1", "doc-1", 1, "cust-1_JohnSmith/versions/f_v1.pdf", 100, "admin-1", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM document_versions").
		WithArgs("doc-1").
		WillReturnRows(rows)

	versions, err := repo.ListVersions(ctx, "doc-1")

	assert.NoError(t, err)
	assert.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)
}

func TestDocumentPostgres_CountByType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WithArgs("type-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountByType(ctx, "type-1")

	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "doc-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
