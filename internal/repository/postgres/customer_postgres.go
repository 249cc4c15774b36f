package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// CustomerPostgres is a PostgreSQL implementation of repository.CustomerRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type CustomerPostgres struct {
	db *sql.DB
}

// NewCustomerPostgres creates a new CustomerPostgres repository.
func NewCustomerPostgres(db *sql.DB) *CustomerPostgres {
	return &CustomerPostgres{db: db}
}

var _ repository.CustomerRepository = (*CustomerPostgres)(nil)

const customerColumns = `id, name, phone, email, address, policy_number, custom_fields, folder_name, parent_id, linked_user_id, created_by, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var (
		c            model.Customer
		customFields []byte
		phone        sql.NullString
		email        sql.NullString
		address      sql.NullString
		policyNumber sql.NullString
		createdBy    sql.NullString
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&phone,
		&email,
		&address,
		&policyNumber,
		&customFields,
		&c.FolderName,
		&c.ParentID,
		&c.LinkedUserID,
		&createdBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	c.PolicyNumber = policyNumber.String
	c.CreatedBy = createdBy.String
	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &c.CustomFields); err != nil {
			return nil, fmt.Errorf("decode custom fields: %w", err)
		}
	}
	return &c, nil
}

func encodeCustomFields(fields map[string]string) ([]byte, error) {
	if fields == nil {
		fields = map[string]string{}
	}
	return json.Marshal(fields)
}

// Create inserts a new customer row and returns the stored record.
func (r *CustomerPostgres) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	const q = `
		INSERT INTO customers (id, name, phone, email, address, policy_number, custom_fields, folder_name, parent_id, linked_user_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + customerColumns
	fields, err := encodeCustomFields(c.CustomFields)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.Name,
		nullable(c.Phone),
		nullable(c.Email),
		nullable(c.Address),
		nullable(c.PolicyNumber),
		fields,
		c.FolderName,
		c.ParentID,
		c.LinkedUserID,
		nullable(c.CreatedBy),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return scanCustomer(row)
}

// FindByID fetches a single customer by its ID.
func (r *CustomerPostgres) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(r.db.QueryRowContext(ctx, q, id))
}

// FindByLinkedUser fetches the customer linked to the given principal.
func (r *CustomerPostgres) FindByLinkedUser(ctx context.Context, userID string) (*model.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE linked_user_id = $1`
	return scanCustomer(r.db.QueryRowContext(ctx, q, userID))
}

// Search returns customers matching term with LIMIT/OFFSET pagination and a
// total count. An empty term matches everything.
func (r *CustomerPostgres) Search(ctx context.Context, term string, pq repository.PageQuery) (*repository.PageResult[model.Customer], error) {
	pattern := "%" + term + "%"

	const qCount = `
		SELECT COUNT(*) FROM customers
		WHERE $1 = '%%' OR name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1 OR policy_number ILIKE $1
	`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, pattern).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE $1 = '%%' OR name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1 OR policy_number ILIKE $1
		ORDER BY name ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, pattern, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Customer]{Items: items, Total: total}, nil
}

// ListChildren returns the direct children of a customer.
func (r *CustomerPostgres) ListChildren(ctx context.Context, parentID string) ([]model.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE parent_id = $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Update rewrites the mutable fields of a customer. folder_name and parent_id
// are never part of the update set.
func (r *CustomerPostgres) Update(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	const q = `
		UPDATE customers SET
			name = $2,
			phone = $3,
			email = $4,
			address = $5,
			policy_number = $6,
			custom_fields = $7,
			updated_at = $8
		WHERE id = $1
		RETURNING ` + customerColumns
	fields, err := encodeCustomFields(c.CustomFields)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.Name,
		nullable(c.Phone),
		nullable(c.Email),
		nullable(c.Address),
		nullable(c.PolicyNumber),
		fields,
		c.UpdatedAt,
	)
	return scanCustomer(row)
}

// SetLinkedUser sets or clears the customer's linked principal.
func (r *CustomerPostgres) SetLinkedUser(ctx context.Context, customerID string, userID *string) error {
	const q = `UPDATE customers SET linked_user_id = $2, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, customerID, userID)
	return err
}

// Delete removes a customer by ID. Documents cascade and children get their
// parent_id nulled out by the foreign-key actions declared in the schema.
func (r *CustomerPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM customers WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
