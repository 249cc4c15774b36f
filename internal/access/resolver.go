package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// Scope is the set of customers an actor may see. Staff roles get an
// unrestricted scope; client actors get the family tree rooted at their
// linked customer, which is empty when no customer is linked.
type Scope struct {
	All bool
	IDs map[string]struct{}
}

// Contains reports whether the scope covers a customer id.
func (s Scope) Contains(id string) bool {
	if s.All {
		return true
	}
	_, ok := s.IDs[id]
	return ok
}

// List returns the scoped customer ids. Nil means unrestricted; an empty
// non-nil slice means nothing is visible.
func (s Scope) List() []string {
	if s.All {
		return nil
	}
	ids := make([]string, 0, len(s.IDs))
	for id := range s.IDs {
		ids = append(ids, id)
	}
	return ids
}

// Resolver computes customer visibility for actors. It needs the customer
// repository to walk parent/child edges for client-portal actors.
type Resolver struct {
	customers repository.CustomerRepository
}

// NewResolver creates a Resolver backed by the given customer repository.
func NewResolver(customers repository.CustomerRepository) *Resolver {
	return &Resolver{customers: customers}
}

// CustomerScope returns the actor's visible set. For client actors this is
// the family tree (self plus all transitive children) of their linked
// customer; a client with no linked customer sees nothing, which is not an
// error.
func (r *Resolver) CustomerScope(ctx context.Context, actor Actor) (Scope, error) {
	if !Can(actor.Role, ActionViewCustomers) {
		return Scope{IDs: map[string]struct{}{}}, nil
	}
	if actor.Role != model.RoleClient {
		return Scope{All: true}, nil
	}

	linked, err := r.customers.FindByLinkedUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scope{IDs: map[string]struct{}{}}, nil
		}
		return Scope{}, fmt.Errorf("resolve linked customer: %w", err)
	}

	ids, err := r.FamilyTree(ctx, linked.ID)
	if err != nil {
		return Scope{}, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Scope{IDs: set}, nil
}

// FamilyTree returns the root customer id plus all transitive children,
// breadth-first. A visited set guards against cycles: the schema should not
// allow them, but a traversal that can hang on bad data is not acceptable.
func (r *Resolver) FamilyTree(ctx context.Context, rootID string) ([]string, error) {
	visited := map[string]struct{}{rootID: {}}
	order := []string{rootID}
	queue := []string{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := r.customers.ListChildren(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", current, err)
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			order = append(order, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return order, nil
}

// CanUploadTo reports whether the actor may upload documents for the given
// customer: the role capability plus, for clients, visible-set membership.
func (r *Resolver) CanUploadTo(ctx context.Context, actor Actor, customerID string) (bool, error) {
	if !Can(actor.Role, ActionUploadDocuments) {
		return false, nil
	}
	scope, err := r.CustomerScope(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.Contains(customerID), nil
}

// CanCreateChildUnder reports whether the actor may create a child customer
// under parentID. Staff with customer management can always; a client only
// under their own linked customer (adding family members).
func (r *Resolver) CanCreateChildUnder(ctx context.Context, actor Actor, parentID string) (bool, error) {
	if Can(actor.Role, ActionManageCustomers) {
		return true, nil
	}
	if actor.Role != model.RoleClient {
		return false, nil
	}
	linked, err := r.customers.FindByLinkedUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("resolve linked customer: %w", err)
	}
	return linked.ID == parentID, nil
}
