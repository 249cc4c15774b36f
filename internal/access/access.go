package access

// Package access decides what an authenticated actor may do. Role
// capabilities are a closed matrix: every (role, action) pair is answered by
// an explicit switch, so an unhandled role denies rather than silently
// passing an array-membership check.

import "docuvault/internal/model"

// Action enumerates the operations gated by role capabilities.
type Action int

const (
	ActionViewCustomers Action = iota
	ActionManageCustomers
	ActionViewDocuments
	ActionUploadDocuments
	ActionDeleteDocuments
	ActionManageUsers
	ActionViewDocumentTypes
	ActionManageDocumentTypes
	ActionManageSettings
	ActionViewAuditLog
	ActionManageBackups
)

// Actor is the authenticated principal attached to an inbound operation.
type Actor struct {
	UserID   string
	Username string
	Role     model.Role
	IP       string
}

// Can reports whether a role holds the capability for an action. Client
// actors additionally need their target inside their visible set; Resolver
// handles that second dimension.
func Can(role model.Role, action Action) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleEmployee:
		switch action {
		case ActionViewCustomers, ActionManageCustomers,
			ActionViewDocuments, ActionUploadDocuments, ActionDeleteDocuments,
			ActionViewDocumentTypes:
			return true
		}
		return false
	case model.RoleViewer:
		switch action {
		case ActionViewCustomers, ActionViewDocuments, ActionViewDocumentTypes:
			return true
		}
		return false
	case model.RoleClient:
		// Clients view and upload only within their visible set; they never
		// delete and never manage anything.
		switch action {
		case ActionViewCustomers, ActionViewDocuments, ActionUploadDocuments,
			ActionViewDocumentTypes:
			return true
		}
		return false
	}
	return false
}
