package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docuvault/internal/auth"
	"docuvault/internal/model"
	repoMocks "docuvault/internal/repository/mocks"
)

func TestPortalService_EnableCreatesAccount(t *testing.T) {
	ctx := context.Background()
	custs := new(repoMocks.MockCustomerRepository)
	users := new(repoMocks.MockUserRepository)
	svc := NewPortalService(custs, users, NopAuditRecorder{})

	custs.On("FindByID", ctx, "cust-1").Return(&model.Customer{ID: "cust-1", Name: "John"}, nil)
	users.On("FindByEmail", ctx, "john@example.com").Return(nil, sql.ErrNoRows)

	var createdHash string
	users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
		createdHash = u.PasswordHash
		return u.Role == model.RoleClient && u.IsActive && u.Email == "john@example.com"
	})).Return(&model.User{ID: "user-9", Username: "john@example.com", Email: "john@example.com", Role: model.RoleClient}, nil)
	custs.On("SetLinkedUser", ctx, "cust-1", mock.MatchedBy(func(id *string) bool {
		return id != nil && *id == "user-9"
	})).Return(nil)

	creds, err := svc.Enable(ctx, adminActor, "cust-1", " John@Example.com ")

	require.NoError(t, err)
	assert.NotEmpty(t, creds.Password)
	// The clear password must verify against the stored hash and never be
	// the hash itself.
	assert.True(t, auth.CheckPassword(createdHash, creds.Password))
	assert.NotEqual(t, createdHash, creds.Password)
	custs.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestPortalService_EnableReactivatesExistingAccount(t *testing.T) {
	ctx := context.Background()
	custs := new(repoMocks.MockCustomerRepository)
	users := new(repoMocks.MockUserRepository)
	svc := NewPortalService(custs, users, NopAuditRecorder{})

	custs.On("FindByID", ctx, "cust-1").Return(&model.Customer{ID: "cust-1", Name: "John"}, nil)
	users.On("FindByEmail", ctx, "john@example.com").Return(&model.User{
		ID: "user-9", Username: "john@example.com", Role: model.RoleClient, IsActive: false,
	}, nil)
	users.On("Update", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.ID == "user-9" && u.IsActive
	})).Return(&model.User{ID: "user-9", Username: "john@example.com", Role: model.RoleClient, IsActive: true}, nil)
	custs.On("SetLinkedUser", ctx, "cust-1", mock.Anything).Return(nil)

	creds, err := svc.Enable(ctx, adminActor, "cust-1", "john@example.com")

	require.NoError(t, err)
	assert.Equal(t, "user-9", creds.UserID)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPortalService_EnableAlreadyEnabled(t *testing.T) {
	ctx := context.Background()
	custs := new(repoMocks.MockCustomerRepository)
	svc := NewPortalService(custs, new(repoMocks.MockUserRepository), NopAuditRecorder{})

	linked := "user-9"
	custs.On("FindByID", ctx, "cust-1").Return(&model.Customer{ID: "cust-1", LinkedUserID: &linked}, nil)

	_, err := svc.Enable(ctx, adminActor, "cust-1", "john@example.com")

	assert.Equal(t, KindConflict, KindOf(err))
}

func TestPortalService_EnableRejectsStaffEmail(t *testing.T) {
	ctx := context.Background()
	custs := new(repoMocks.MockCustomerRepository)
	users := new(repoMocks.MockUserRepository)
	svc := NewPortalService(custs, users, NopAuditRecorder{})

	custs.On("FindByID", ctx, "cust-1").Return(&model.Customer{ID: "cust-1"}, nil)
	users.On("FindByEmail", ctx, "admin@example.com").Return(&model.User{
		ID: "admin-1", Role: model.RoleAdmin,
	}, nil)

	_, err := svc.Enable(ctx, adminActor, "cust-1", "admin@example.com")

	assert.Equal(t, KindConflict, KindOf(err))
}

func TestPortalService_Disable(t *testing.T) {
	ctx := context.Background()
	custs := new(repoMocks.MockCustomerRepository)
	users := new(repoMocks.MockUserRepository)
	svc := NewPortalService(custs, users, NopAuditRecorder{})

	linked := "user-9"
	custs.On("FindByID", ctx, "cust-1").Return(&model.Customer{ID: "cust-1", Name: "John", LinkedUserID: &linked}, nil)
	custs.On("SetLinkedUser", ctx, "cust-1", (*string)(nil)).Return(nil)
	users.On("SetActive", ctx, "user-9", false).Return(nil)

	err := svc.Disable(ctx, adminActor, "cust-1")

	require.NoError(t, err)
	custs.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestPortalService_DisableNotEnabled(t *testing.T) {
	ctx := context.Background()
	custs := new(repoMocks.MockCustomerRepository)
	svc := NewPortalService(custs, new(repoMocks.MockUserRepository), NopAuditRecorder{})

	custs.On("FindByID", ctx, "cust-1").Return(&model.Customer{ID: "cust-1"}, nil)

	err := svc.Disable(ctx, adminActor, "cust-1")

	assert.Equal(t, KindValidation, KindOf(err))
}
