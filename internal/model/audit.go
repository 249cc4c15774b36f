package model

import "time"

// AuditEntry is an append-only record of a mutating action. The core only
// ever writes these; nothing in the system mutates or deletes them.
type AuditEntry struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id,omitempty"`
	Username   string            `json:"username,omitempty"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id,omitempty"`
	EntityName string            `json:"entity_name,omitempty"`
	OldValues  map[string]string `json:"old_values,omitempty"`
	NewValues  map[string]string `json:"new_values,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Audit action kinds recorded by the services.
const (
	ActionCustomerCreate        = "CUSTOMER_CREATE"
	ActionCustomerUpdate        = "CUSTOMER_UPDATE"
	ActionCustomerDelete        = "CUSTOMER_DELETE"
	ActionDocumentUpload        = "DOCUMENT_UPLOAD"
	ActionDocumentVersionCreate = "DOCUMENT_VERSION_CREATE"
	ActionDocumentDownload      = "DOCUMENT_DOWNLOAD"
	ActionDocumentDelete        = "DOCUMENT_DELETE"
	ActionUserCreate            = "USER_CREATE"
	ActionUserUpdate            = "USER_UPDATE"
	ActionUserActivate          = "USER_ACTIVATE"
	ActionUserDeactivate        = "USER_DEACTIVATE"
	ActionUserDelete            = "USER_DELETE"
	ActionPortalEnable          = "PORTAL_ACCESS_ENABLE"
	ActionPortalDisable         = "PORTAL_ACCESS_DISABLE"
	ActionBackupCreate          = "BACKUP_CREATE"
)
