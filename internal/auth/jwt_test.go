package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuvault/internal/model"
)

func TestGenerateAndParseToken(t *testing.T) {
	user := &model.User{ID: "u1", Username: "jane", Role: model.RoleEmployee}

	token, err := GenerateToken(user, "secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "jane", claims.Username)
	assert.Equal(t, model.RoleEmployee, claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	user := &model.User{ID: "u1", Username: "jane", Role: model.RoleAdmin}
	token, err := GenerateToken(user, "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	user := &model.User{ID: "u1", Username: "jane", Role: model.RoleAdmin}
	token, err := GenerateToken(user, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword()
	require.NoError(t, err)
	b, err := GeneratePassword()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(a), MinPasswordLength)
	assert.NotEqual(t, a, b)
}
