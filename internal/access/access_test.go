package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docuvault/internal/model"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name   string
		role   model.Role
		action Action
		want   bool
	}{
		{"admin manages users", model.RoleAdmin, ActionManageUsers, true},
		{"admin manages backups", model.RoleAdmin, ActionManageBackups, true},
		{"employee manages customers", model.RoleEmployee, ActionManageCustomers, true},
		{"employee deletes documents", model.RoleEmployee, ActionDeleteDocuments, true},
		{"employee cannot manage users", model.RoleEmployee, ActionManageUsers, false},
		{"employee cannot manage document types", model.RoleEmployee, ActionManageDocumentTypes, false},
		{"employee cannot view audit log", model.RoleEmployee, ActionViewAuditLog, false},
		{"viewer views customers", model.RoleViewer, ActionViewCustomers, true},
		{"viewer cannot upload", model.RoleViewer, ActionUploadDocuments, false},
		{"viewer cannot delete documents", model.RoleViewer, ActionDeleteDocuments, false},
		{"client uploads", model.RoleClient, ActionUploadDocuments, true},
		{"client views document types", model.RoleClient, ActionViewDocumentTypes, true},
		{"client cannot delete documents", model.RoleClient, ActionDeleteDocuments, false},
		{"client cannot manage customers", model.RoleClient, ActionManageCustomers, false},
		{"unknown role denied everything", model.Role("root"), ActionViewCustomers, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.action))
		})
	}
}
