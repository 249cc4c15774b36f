package repository

import (
	"context"

	"docuvault/internal/model"
)

// CustomerRepository defines data access for customers using SQL queries only.
// No business logic here, strictly persistence operations.
type CustomerRepository interface {
	// Create inserts a new customer row and returns the stored record.
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)

	// FindByID returns a customer by its ID.
	FindByID(ctx context.Context, id string) (*model.Customer, error)

	// FindByLinkedUser returns the customer linked to the given principal,
	// or a no-rows error when the principal has no linked customer.
	FindByLinkedUser(ctx context.Context, userID string) (*model.Customer, error)

	// Search returns a page of customers matching the search term against
	// name, phone, email, and policy number. An empty term matches all.
	Search(ctx context.Context, term string, pq PageQuery) (*PageResult[model.Customer], error)

	// ListChildren returns the direct children of a customer.
	ListChildren(ctx context.Context, parentID string) ([]model.Customer, error)

	// Update rewrites the mutable fields of a customer. FolderName and
	// ParentID are intentionally not touched.
	Update(ctx context.Context, c *model.Customer) (*model.Customer, error)

	// SetLinkedUser sets or clears (nil) the customer's linked principal.
	SetLinkedUser(ctx context.Context, customerID string, userID *string) error

	// Delete removes a customer row. Document rows cascade in the database;
	// children keep their rows with parent_id set to NULL by the FK action.
	Delete(ctx context.Context, id string) error
}
