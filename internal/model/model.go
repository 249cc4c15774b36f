package model

// Package model contains domain models/data structures shared across layers
// (HTTP, service, storage). Pure data carriers, no persistence tags and no
// business logic.

// Role is the role of an authentication principal.
type Role string

const (
	// RoleAdmin has unrestricted access including user and settings management.
	RoleAdmin Role = "admin"
	// RoleEmployee has unrestricted read/write over customers and documents.
	RoleEmployee Role = "employee"
	// RoleViewer has read-only visibility.
	RoleViewer Role = "viewer"
	// RoleClient is a portal principal scoped to one customer's family tree.
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleViewer, RoleClient:
		return true
	}
	return false
}
