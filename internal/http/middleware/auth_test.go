package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docuvault/internal/access"
	"docuvault/internal/auth"
	"docuvault/internal/model"
	"docuvault/internal/repository/mocks"
)

const testSecret = "test-secret"

func newAuthApp(users *mocks.MockUserRepository) *fiber.App {
	app := fiber.New()
	app.Use(Auth(testSecret, users))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		actor := ActorFromCtx(c)
		return c.SendString(actor.Username)
	})
	return app
}

func TestAuth(t *testing.T) {
	u := &model.User{
		ID:       "user-1",
		Username: "alice",
		Role:     model.RoleEmployee,
		IsActive: true,
	}
	token, err := newToken(t, u)
	require.NoError(t, err)

	t.Run("valid token resolves actor", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		users.On("FindByID", mock.Anything, "user-1").Return(u, nil)

		app := newAuthApp(users)
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("actor carries request origin", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		users.On("FindByID", mock.Anything, "user-1").Return(u, nil)

		var actor access.Actor
		app := fiber.New()
		app.Use(Auth(testSecret, users))
		app.Get("/whoami", func(c *fiber.Ctx) error {
			actor = ActorFromCtx(c)
			return c.SendStatus(fiber.StatusOK)
		})

		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, actor.IP)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		app := newAuthApp(new(mocks.MockUserRepository))
		req := httptest.NewRequest("GET", "/whoami", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		app := newAuthApp(new(mocks.MockUserRepository))
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("deactivated user is rejected even with valid token", func(t *testing.T) {
		disabled := *u
		disabled.IsActive = false
		users := new(mocks.MockUserRepository)
		users.On("FindByID", mock.Anything, "user-1").Return(&disabled, nil)

		app := newAuthApp(users)
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestActorFromCtxWithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		actor := ActorFromCtx(c)
		assert.Equal(t, access.Actor{}, actor)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/anon", nil)
	resp, _ := app.Test(req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func newToken(t *testing.T, u *model.User) (string, error) {
	t.Helper()
	return auth.GenerateToken(u, testSecret, time.Hour)
}
