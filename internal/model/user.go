package model

import "time"

// User is an authentication principal. Client principals are linked to a
// customer record through Customer.LinkedUserID; deactivation is soft so a
// portal account can be re-enabled later without losing history.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PortalCredentials are the one-time credentials returned when portal access
// is enabled for a customer. The password is never stored in clear.
type PortalCredentials struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
