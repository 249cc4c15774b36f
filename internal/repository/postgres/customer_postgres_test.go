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

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "phone", "email", "address", "policy_number", "custom_fields",
		"folder_name", "parent_id", "linked_user_id", "created_by", "created_at", "updated_at",
	})
}

func TestCustomerPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCustomerPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	c := &model.Customer{
		ID:           "cust-1",
		Name:         "John Smith",
		Phone:        "555-0100",
		CustomFields: map[string]string{"birthday": "1980-01-01"},
		FolderName:   "cust-1_JohnSmith",
		CreatedBy:    "admin-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	rows := customerRows().AddRow(
		c.ID, c.Name, c.Phone, nil, nil, nil, []byte(`{"birthday":"1980-01-01"}`),
		c.FolderName, nil, nil, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)

	mock.ExpectQuery("INSERT INTO customers").
		WithArgs(c.ID, c.Name, c.Phone, nil, nil, nil, sqlmock.AnyArg(),
			c.FolderName, nil, nil, c.CreatedBy, c.CreatedAt, c.UpdatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, c)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, c.ID, result.ID)
	assert.Equal(t, "1980-01-01", result.CustomFields["birthday"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCustomerPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := customerRows().AddRow(
			"cust-1", "John Smith", nil, "john@example.com", nil, nil, []byte(`{}`),
			"cust-1_JohnSmith", "cust-0", nil, nil, time.Now(), time.Now(),
		)

		mock.ExpectQuery("SELECT (.+) FROM customers WHERE id = ?").
			WithArgs("cust-1").
			WillReturnRows(rows)

		c, err := repo.FindByID(ctx, "cust-1")

		assert.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, "John Smith", c.Name)
		assert.Equal(t, "john@example.com", c.Email)
		if assert.NotNil(t, c.ParentID) {
			assert.Equal(t, "cust-0", *c.ParentID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM customers WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		c, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, c)
	})
}

func TestCustomerPostgres_FindByLinkedUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCustomerPostgres(db)
	ctx := context.Background()

	rows := customerRows().AddRow(
		"cust-1", "John Smith", nil, nil, nil, nil, []byte(`{}`),
		"cust-1_JohnSmith", nil, "user-9", nil, time.Now(), time.Now(),
	)

	mock.ExpectQuery("SELECT (.+) FROM customers WHERE linked_user_id = ?").
		WithArgs("user-9").
		WillReturnRows(rows)

	c, err := repo.FindByLinkedUser(ctx, "user-9")

	assert.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, "cust-1", c.ID)
}

func TestCustomerPostgres_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCustomerPostgres(db)
	ctx := context.Background()

	t.Run("with term", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM customers").
			WithArgs("%smith%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := customerRows().AddRow(
			"cust-1", "John Smith", nil, nil, nil, nil, []byte(`{}`),
			"cust-1_JohnSmith", nil, nil, nil, time.Now(), time.Now(),
		)
		mock.ExpectQuery("SELECT (.+) FROM customers").
			WithArgs("%smith%", 10, 0).
			WillReturnRows(rows)

		res, err := repo.Search(ctx, "smith", repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("empty result", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM customers").
			WithArgs("%nobody%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM customers").
			WithArgs("%nobody%", 10, 0).
			WillReturnRows(customerRows())

		res, err := repo.Search(ctx, "nobody", repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})
}

func TestCustomerPostgres_ListChildren(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCustomerPostgres(db)
	ctx := context.Background()

	rows := customerRows().
		AddRow("cust-1", "Anna", nil, nil, nil, nil, []byte(`{}`), "cust-1_Anna", "cust-0", nil, nil, time.Now(), time.Now()).
		AddRow("cust-2", "Ben", nil, nil, nil, nil, []byte(`{}`), "cust-2_Ben", "cust-0", nil, nil, time.Now(), time.Now())

	mock.ExpectQuery("SELECT (.+) FROM customers WHERE parent_id = ?").
		WithArgs("cust-0").
		WillReturnRows(rows)

	children, err := repo.ListChildren(ctx, "cust-0")

	assert.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Equal(t, "Anna", children[0].Name)
}

func TestCustomerPostgres_SetLinkedUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCustomerPostgres(db)
	ctx := context.Background()

	t.Run("link", func(t *testing.T) {
		userID := "user-9"
		mock.ExpectExec("UPDATE customers SET linked_user_id").
			WithArgs("cust-1", userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetLinkedUser(ctx, "cust-1", &userID))
	})

	t.Run("unlink", func(t *testing.T) {
		mock.ExpectExec("UPDATE customers SET linked_user_id").
			WithArgs("cust-1", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetLinkedUser(ctx, "cust-1", nil))
	})
}

func TestCustomerPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCustomerPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM customers WHERE id = ?").
		WithArgs("cust-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "cust-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
