package access

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuvault/internal/model"
	"docuvault/internal/repository/mocks"
)

func TestCustomerScope_StaffSeesAll(t *testing.T) {
	custs := new(mocks.MockCustomerRepository)
	r := NewResolver(custs)

	for _, role := range []model.Role{model.RoleAdmin, model.RoleEmployee, model.RoleViewer} {
		scope, err := r.CustomerScope(context.Background(), Actor{UserID: "u-1", Role: role})
		require.NoError(t, err)
		assert.True(t, scope.All)
		assert.True(t, scope.Contains("anything"))
		assert.Nil(t, scope.List())
	}
}

func TestCustomerScope_ClientSeesFamilyTree(t *testing.T) {
	ctx := context.Background()
	custs := new(mocks.MockCustomerRepository)
	r := NewResolver(custs)

	custs.On("FindByLinkedUser", ctx, "u-1").Return(&model.Customer{ID: "root"}, nil)
	custs.On("ListChildren", ctx, "root").Return([]model.Customer{{ID: "a"}, {ID: "b"}}, nil)
	custs.On("ListChildren", ctx, "a").Return([]model.Customer{{ID: "a1"}}, nil)
	custs.On("ListChildren", ctx, "b").Return([]model.Customer{}, nil)
	custs.On("ListChildren", ctx, "a1").Return([]model.Customer{}, nil)

	scope, err := r.CustomerScope(ctx, Actor{UserID: "u-1", Role: model.RoleClient})

	require.NoError(t, err)
	assert.False(t, scope.All)
	for _, id := range []string{"root", "a", "b", "a1"} {
		assert.True(t, scope.Contains(id), id)
	}
	assert.False(t, scope.Contains("stranger"))
	assert.Len(t, scope.List(), 4)
}

func TestCustomerScope_UnlinkedClientSeesNothing(t *testing.T) {
	ctx := context.Background()
	custs := new(mocks.MockCustomerRepository)
	r := NewResolver(custs)

	custs.On("FindByLinkedUser", ctx, "u-1").Return(nil, sql.ErrNoRows)

	scope, err := r.CustomerScope(ctx, Actor{UserID: "u-1", Role: model.RoleClient})

	require.NoError(t, err)
	assert.False(t, scope.All)
	assert.False(t, scope.Contains("anything"))
	assert.Empty(t, scope.List())
}

func TestFamilyTree_SurvivesParentCycles(t *testing.T) {
	ctx := context.Background()
	custs := new(mocks.MockCustomerRepository)
	r := NewResolver(custs)

	// a and b point at each other; traversal must still terminate.
	custs.On("ListChildren", ctx, "a").Return([]model.Customer{{ID: "b"}}, nil)
	custs.On("ListChildren", ctx, "b").Return([]model.Customer{{ID: "a"}}, nil)

	ids, err := r.FamilyTree(ctx, "a")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestFamilyTree_RootFirst(t *testing.T) {
	ctx := context.Background()
	custs := new(mocks.MockCustomerRepository)
	r := NewResolver(custs)

	custs.On("ListChildren", ctx, "root").Return([]model.Customer{{ID: "kid"}}, nil)
	custs.On("ListChildren", ctx, "kid").Return([]model.Customer{}, nil)

	ids, err := r.FamilyTree(ctx, "root")

	require.NoError(t, err)
	require.NotEmpty(t, ids)
	assert.Equal(t, "root", ids[0])
}

func TestCanUploadTo(t *testing.T) {
	ctx := context.Background()

	t.Run("viewer never uploads", func(t *testing.T) {
		r := NewResolver(new(mocks.MockCustomerRepository))
		ok, err := r.CanUploadTo(ctx, Actor{UserID: "u-1", Role: model.RoleViewer}, "cust-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("client uploads inside tree only", func(t *testing.T) {
		custs := new(mocks.MockCustomerRepository)
		r := NewResolver(custs)
		custs.On("FindByLinkedUser", ctx, "u-1").Return(&model.Customer{ID: "own"}, nil)
		custs.On("ListChildren", ctx, "own").Return([]model.Customer{}, nil)

		ok, err := r.CanUploadTo(ctx, Actor{UserID: "u-1", Role: model.RoleClient}, "own")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.CanUploadTo(ctx, Actor{UserID: "u-1", Role: model.RoleClient}, "foreign")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCanCreateChildUnder(t *testing.T) {
	ctx := context.Background()

	t.Run("admin anywhere", func(t *testing.T) {
		r := NewResolver(new(mocks.MockCustomerRepository))
		ok, err := r.CanCreateChildUnder(ctx, Actor{UserID: "u-1", Role: model.RoleAdmin}, "any")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("client only under own customer", func(t *testing.T) {
		custs := new(mocks.MockCustomerRepository)
		r := NewResolver(custs)
		custs.On("FindByLinkedUser", ctx, "u-1").Return(&model.Customer{ID: "own"}, nil)

		ok, err := r.CanCreateChildUnder(ctx, Actor{UserID: "u-1", Role: model.RoleClient}, "own")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.CanCreateChildUnder(ctx, Actor{UserID: "u-1", Role: model.RoleClient}, "foreign")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("viewer never", func(t *testing.T) {
		r := NewResolver(new(mocks.MockCustomerRepository))
		ok, err := r.CanCreateChildUnder(ctx, Actor{UserID: "u-1", Role: model.RoleViewer}, "any")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
