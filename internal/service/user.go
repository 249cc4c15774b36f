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

// UserInput carries the writable fields of a user account.
type UserInput struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// UserService manages authentication principals and login.
type UserService interface {
	// Authenticate checks credentials and issues a signed token. Inactive
	// accounts are rejected with the same error as bad credentials.
	Authenticate(ctx context.Context, username, password string) (*LoginResult, error)

	Create(ctx context.Context, actor access.Actor, in UserInput) (*model.User, error)
	List(ctx context.Context, actor access.Actor) ([]model.User, error)
	Update(ctx context.Context, actor access.Actor, id string, in UserInput) (*model.User, error)

	// SetActive toggles an account. An actor cannot deactivate itself.
	SetActive(ctx context.Context, actor access.Actor, id string, active bool) error

	// Delete removes an account. An actor cannot delete itself.
	Delete(ctx context.Context, actor access.Actor, id string) error
}

type userService struct {
	users     repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	audit     AuditRecorder
}

// NewUserService constructs a UserService.
func NewUserService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration, audit AuditRecorder) UserService {
	return &userService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL, audit: audit}
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewValidationError("username and password are required")
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewPermissionError("invalid username or password")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, NewPermissionError("invalid username or password")
	}

	token, err := auth.GenerateToken(u, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, User: *u}, nil
}

func (s *userService) Create(ctx context.Context, actor access.Actor, in UserInput) (*model.User, error) {
	if !access.Can(actor.Role, access.ActionManageUsers) {
		return nil, NewPermissionError("you do not have permission to manage users")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, NewValidationError("username is required")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, NewValidationError("password must be at least %d characters", auth.MinPasswordLength)
	}
	if !in.Role.Valid() {
		return nil, NewValidationError("unknown role %q", in.Role)
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, NewConflictError("username %q is already taken", username)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	stored, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionUserCreate,
		EntityType: "user",
		EntityID:   stored.ID,
		EntityName: stored.Username,
		NewValues:  map[string]string{"username": stored.Username, "role": string(stored.Role)},
	})
	return stored, nil
}

func (s *userService) List(ctx context.Context, actor access.Actor) ([]model.User, error) {
	if !access.Can(actor.Role, access.ActionManageUsers) {
		return nil, NewPermissionError("you do not have permission to manage users")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, actor access.Actor, id string, in UserInput) (*model.User, error) {
	if !access.Can(actor.Role, access.ActionManageUsers) {
		return nil, NewPermissionError("you do not have permission to manage users")
	}

	existing, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	updated := *existing
	if username := strings.TrimSpace(in.Username); username != "" && username != existing.Username {
		if _, err := s.users.FindByUsername(ctx, username); err == nil {
			return nil, NewConflictError("username %q is already taken", username)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check username: %w", err)
		}
		updated.Username = username
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		updated.Email = email
	}
	if in.Role != "" {
		if !in.Role.Valid() {
			return nil, NewValidationError("unknown role %q", in.Role)
		}
		if id == actor.UserID && in.Role != existing.Role {
			return nil, NewValidationError("you cannot change your own role")
		}
		updated.Role = in.Role
	}
	if in.Password != "" {
		if len(in.Password) < auth.MinPasswordLength {
			return nil, NewValidationError("password must be at least %d characters", auth.MinPasswordLength)
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = hash
	}
	updated.UpdatedAt = time.Now().UTC()

	stored, err := s.users.Update(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionUserUpdate,
		EntityType: "user",
		EntityID:   stored.ID,
		EntityName: stored.Username,
		OldValues:  map[string]string{"username": existing.Username, "role": string(existing.Role)},
		NewValues:  map[string]string{"username": stored.Username, "role": string(stored.Role)},
	})
	return stored, nil
}

func (s *userService) SetActive(ctx context.Context, actor access.Actor, id string, active bool) error {
	if !access.Can(actor.Role, access.ActionManageUsers) {
		return NewPermissionError("you do not have permission to manage users")
	}
	if id == actor.UserID && !active {
		return NewValidationError("you cannot deactivate your own account")
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("user not found")
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set user active: %w", err)
	}

	action := model.ActionUserActivate
	if !active {
		action = model.ActionUserDeactivate
	}
	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     action,
		EntityType: "user",
		EntityID:   id,
		EntityName: u.Username,
	})
	return nil
}

func (s *userService) Delete(ctx context.Context, actor access.Actor, id string) error {
	if !access.Can(actor.Role, access.ActionManageUsers) {
		return NewPermissionError("you do not have permission to manage users")
	}
	if id == actor.UserID {
		return NewValidationError("you cannot delete your own account")
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("user not found")
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionUserDelete,
		EntityType: "user",
		EntityID:   id,
		EntityName: u.Username,
	})
	return nil
}
