package model

import "time"

// Customer is a record in the customer hierarchy. Customers form a forest:
// ParentID, when set, points at another customer. FolderName is derived once
// at creation and never recomputed afterwards; stored document paths are
// relative to it.
type Customer struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Phone        string            `json:"phone,omitempty"`
	Email        string            `json:"email,omitempty"`
	Address      string            `json:"address,omitempty"`
	PolicyNumber string            `json:"policy_number,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	FolderName   string            `json:"folder_name"`
	ParentID     *string           `json:"parent_id,omitempty"`
	LinkedUserID *string           `json:"linked_user_id,omitempty"`
	CreatedBy    string            `json:"created_by,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// DocumentType categorizes documents. A type referenced by documents is
// soft-deactivated instead of removed; hard delete requires a zero
// reference count.
type DocumentType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
