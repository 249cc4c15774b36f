package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuvault/internal/access"
	"docuvault/internal/auth"
	"docuvault/internal/model"
	"docuvault/internal/repository"
)

// PortalService manages client-portal access for customers. Enabling creates
// or reactivates a client principal and links it to the customer; disabling
// unlinks and soft-deactivates so the account can come back later.
type PortalService interface {
	// Enable grants portal access using the given email for the account.
	// The returned credentials include a generated password shown exactly
	// once; only its hash is stored.
	Enable(ctx context.Context, actor access.Actor, customerID, email string) (*model.PortalCredentials, error)

	// Disable revokes the customer's portal access.
	Disable(ctx context.Context, actor access.Actor, customerID string) error
}

type portalService struct {
	customers repository.CustomerRepository
	users     repository.UserRepository
	audit     AuditRecorder
}

// NewPortalService constructs a PortalService.
func NewPortalService(customers repository.CustomerRepository, users repository.UserRepository, audit AuditRecorder) PortalService {
	return &portalService{customers: customers, users: users, audit: audit}
}

func (s *portalService) Enable(ctx context.Context, actor access.Actor, customerID, email string) (*model.PortalCredentials, error) {
	if !access.Can(actor.Role, access.ActionManageCustomers) {
		return nil, NewPermissionError("you do not have permission to manage portal access")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, NewValidationError("email is required for portal access")
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("customer not found")
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if customer.LinkedUserID != nil {
		return nil, NewConflictError("portal access is already enabled for this customer")
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// An earlier portal account for the same email is reactivated with a
	// fresh password instead of creating a duplicate principal.
	account, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if account.Role != model.RoleClient {
			return nil, NewConflictError("email %s belongs to a staff account", email)
		}
		account.PasswordHash = hash
		account.IsActive = true
		account.UpdatedAt = time.Now().UTC()
		if account, err = s.users.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("reactivate portal account: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		now := time.Now().UTC()
		account, err = s.users.Create(ctx, &model.User{
			ID:           uuid.NewString(),
			Username:     email,
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleClient,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return nil, fmt.Errorf("create portal account: %w", err)
		}
	default:
		return nil, fmt.Errorf("find portal account: %w", err)
	}

	if err := s.customers.SetLinkedUser(ctx, customerID, &account.ID); err != nil {
		return nil, fmt.Errorf("link portal account: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionPortalEnable,
		EntityType: "customer",
		EntityID:   customerID,
		EntityName: customer.Name,
		NewValues:  map[string]string{"portal_email": email},
	})

	return &model.PortalCredentials{
		UserID:   account.ID,
		Username: account.Username,
		Email:    account.Email,
		Password: password,
	}, nil
}

func (s *portalService) Disable(ctx context.Context, actor access.Actor, customerID string) error {
	if !access.Can(actor.Role, access.ActionManageCustomers) {
		return NewPermissionError("you do not have permission to manage portal access")
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("customer not found")
		}
		return fmt.Errorf("find customer: %w", err)
	}
	if customer.LinkedUserID == nil {
		return NewValidationError("portal access is not enabled for this customer")
	}
	linkedID := *customer.LinkedUserID

	if err := s.customers.SetLinkedUser(ctx, customerID, nil); err != nil {
		return fmt.Errorf("unlink portal account: %w", err)
	}
	// Soft-deactivate so Enable can revive the same account later.
	if err := s.users.SetActive(ctx, linkedID, false); err != nil {
		return fmt.Errorf("deactivate portal account: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionPortalDisable,
		EntityType: "customer",
		EntityID:   customerID,
		EntityName: customer.Name,
	})
	return nil
}
