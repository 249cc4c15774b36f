package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/internal/access"
	"docuvault/internal/model"
	"docuvault/internal/naming"
	"docuvault/internal/repository"
	"docuvault/internal/storage"
)

// CustomerInput carries the writable fields of a customer.
type CustomerInput struct {
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email"`
	Address      string            `json:"address"`
	PolicyNumber string            `json:"policy_number"`
	CustomFields map[string]string `json:"custom_fields"`
	// ParentID optionally places the new customer under a parent. There is no
	// parent reassignment after creation; Update ignores this field.
	ParentID *string `json:"parent_id"`
}

// CustomerDetail is a customer enriched with its documents.
type CustomerDetail struct {
	model.Customer
	Documents []model.Document `json:"documents"`
}

// CustomerListResult is the service-level DTO for paginated customers.
type CustomerListResult struct {
	Items []model.Customer `json:"data"`
	Total int              `json:"total"`
}

// CustomerService defines the use cases for the customer hierarchy.
type CustomerService interface {
	// Create validates and stores a new customer, assigning its stable folder
	// name. Clients may only create children under their own linked customer.
	Create(ctx context.Context, actor access.Actor, in CustomerInput) (*model.Customer, error)

	// Get returns a customer with its documents, subject to the actor's
	// visible set.
	Get(ctx context.Context, actor access.Actor, id string) (*CustomerDetail, error)

	// List returns a page of customers matching the search term.
	List(ctx context.Context, actor access.Actor, search string, limit, offset int) (*CustomerListResult, error)

	// Update rewrites mutable fields. The folder name is never recomputed,
	// even when the customer is renamed.
	Update(ctx context.Context, actor access.Actor, id string, in CustomerInput) (*model.Customer, error)

	// Delete removes the customer, all its documents and its on-disk folder.
	// Children are kept; their parent reference is nulled by the schema.
	Delete(ctx context.Context, actor access.Actor, id string) error

	// FamilyTree returns the id closure of a customer: itself plus all
	// transitive children.
	FamilyTree(ctx context.Context, actor access.Actor, rootID string) ([]string, error)
}

type customerService struct {
	customers repository.CustomerRepository
	documents repository.DocumentRepository
	settings  repository.SettingsRepository
	files     storage.FileStore
	resolver  *access.Resolver
	audit     AuditRecorder
	log       *zap.Logger
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(
	customers repository.CustomerRepository,
	documents repository.DocumentRepository,
	settings repository.SettingsRepository,
	files storage.FileStore,
	resolver *access.Resolver,
	audit AuditRecorder,
	log *zap.Logger,
) CustomerService {
	return &customerService{
		customers: customers,
		documents: documents,
		settings:  settings,
		files:     files,
		resolver:  resolver,
		audit:     audit,
		log:       log,
	}
}

func (s *customerService) Create(ctx context.Context, actor access.Actor, in CustomerInput) (*model.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("customer name is required")
	}
	if err := s.validateCustomFields(ctx, in.CustomFields); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		allowed, err := s.resolver.CanCreateChildUnder(ctx, actor, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, NewPermissionError("you do not have permission to add a customer under this parent")
		}
		if _, err := s.customers.FindByID(ctx, *in.ParentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, NewNotFoundError("parent customer not found")
			}
			return nil, fmt.Errorf("find parent: %w", err)
		}
	} else if !access.Can(actor.Role, access.ActionManageCustomers) {
		return nil, NewPermissionError("you do not have permission to create customers")
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	c := &model.Customer{
		ID:           id,
		Name:         name,
		Phone:        in.Phone,
		Email:        in.Email,
		Address:      in.Address,
		PolicyNumber: in.PolicyNumber,
		CustomFields: in.CustomFields,
		// Assigned exactly once; renames never touch it.
		FolderName: naming.CustomerFolderName(id, name),
		ParentID:   in.ParentID,
		CreatedBy:  actor.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	stored, err := s.customers.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionCustomerCreate,
		EntityType: "customer",
		EntityID:   stored.ID,
		EntityName: stored.Name,
		NewValues:  customerAuditValues(stored),
	})
	return stored, nil
}

func (s *customerService) Get(ctx context.Context, actor access.Actor, id string) (*CustomerDetail, error) {
	if id == "" {
		return nil, NewValidationError("customer id is required")
	}
	scope, err := s.resolver.CustomerScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !scope.Contains(id) {
		// Clients get not-found rather than a visibility oracle.
		return nil, NewNotFoundError("customer not found")
	}

	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("customer not found")
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	docs, err := s.documents.ListByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list customer documents: %w", err)
	}
	return &CustomerDetail{Customer: *c, Documents: docs}, nil
}

func (s *customerService) List(ctx context.Context, actor access.Actor, search string, limit, offset int) (*CustomerListResult, error) {
	if !access.Can(actor.Role, access.ActionViewCustomers) {
		return nil, NewPermissionError("you do not have permission to view customers")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	scope, err := s.resolver.CustomerScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if scope.All {
		res, err := s.customers.Search(ctx, search, repository.PageQuery{Limit: limit, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("search customers: %w", err)
		}
		return &CustomerListResult{Items: res.Items, Total: res.Total}, nil
	}

	// Client scope: resolve each visible customer directly. Family trees are
	// tiny, so per-id lookups beat building a dynamic IN query here.
	items := make([]model.Customer, 0, len(scope.IDs))
	for cid := range scope.IDs {
		c, err := s.customers.FindByID(ctx, cid)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("find customer: %w", err)
		}
		items = append(items, *c)
	}
	return &CustomerListResult{Items: items, Total: len(items)}, nil
}

func (s *customerService) Update(ctx context.Context, actor access.Actor, id string, in CustomerInput) (*model.Customer, error) {
	if !access.Can(actor.Role, access.ActionManageCustomers) {
		return nil, NewPermissionError("you do not have permission to update customers")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("customer name is required")
	}
	if err := s.validateCustomFields(ctx, in.CustomFields); err != nil {
		return nil, err
	}

	existing, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("customer not found")
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	updated := *existing
	updated.Name = name
	updated.Phone = in.Phone
	updated.Email = in.Email
	updated.Address = in.Address
	updated.PolicyNumber = in.PolicyNumber
	updated.CustomFields = in.CustomFields
	updated.UpdatedAt = time.Now().UTC()

	stored, err := s.customers.Update(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionCustomerUpdate,
		EntityType: "customer",
		EntityID:   stored.ID,
		EntityName: stored.Name,
		OldValues:  customerAuditValues(existing),
		NewValues:  customerAuditValues(stored),
	})
	return stored, nil
}

func (s *customerService) Delete(ctx context.Context, actor access.Actor, id string) error {
	if !access.Can(actor.Role, access.ActionManageCustomers) {
		return NewPermissionError("you do not have permission to delete customers")
	}

	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("customer not found")
		}
		return fmt.Errorf("find customer: %w", err)
	}

	// The folder holds the primary files and the versions subfolder, so one
	// recursive removal covers the customer's entire file footprint. A folder
	// already gone from disk is tolerated.
	if err := s.files.RemoveFolder(c.FolderName); err != nil {
		s.log.Warn("customer folder removal failed",
			zap.String("customer_id", id),
			zap.String("folder", c.FolderName),
			zap.Error(err))
	}

	// Documents cascade; children keep their rows with parent_id nulled.
	if err := s.customers.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionCustomerDelete,
		EntityType: "customer",
		EntityID:   id,
		EntityName: c.Name,
		OldValues:  customerAuditValues(c),
	})
	return nil
}

func (s *customerService) FamilyTree(ctx context.Context, actor access.Actor, rootID string) ([]string, error) {
	scope, err := s.resolver.CustomerScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !scope.Contains(rootID) {
		return nil, NewNotFoundError("customer not found")
	}
	return s.resolver.FamilyTree(ctx, rootID)
}

// validateCustomFields checks keys against the configured allow-list. When no
// allow-list is configured yet, any keys pass; once configured, unknown keys
// are rejected.
func (s *customerService) validateCustomFields(ctx context.Context, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	raw, err := s.settings.Get(ctx, repository.SettingCustomFieldSchema)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load custom field schema: %w", err)
	}
	var allowed []string
	if err := json.Unmarshal([]byte(raw), &allowed); err != nil {
		return fmt.Errorf("decode custom field schema: %w", err)
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = struct{}{}
	}
	for k := range fields {
		if _, ok := allowedSet[k]; !ok {
			return NewValidationError("unknown custom field %q", k)
		}
	}
	return nil
}

func customerAuditValues(c *model.Customer) map[string]string {
	return map[string]string{
		"name":          c.Name,
		"phone":         c.Phone,
		"email":         c.Email,
		"address":       c.Address,
		"policy_number": c.PolicyNumber,
	}
}
