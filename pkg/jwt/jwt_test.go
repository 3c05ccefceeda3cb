package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewManager("test-secret-key-at-least-32-chars!!", time.Hour)

	userID := uuid.New()
	token, err := manager.GenerateToken(userID, "client@example.com", "Test Client", "client")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "client@example.com", claims.Email)
	assert.Equal(t, "Test Client", claims.Name)
	assert.Equal(t, "client", claims.Role)
	assert.Equal(t, "rusithink-auth", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	manager := NewManager("test-secret-key-at-least-32-chars!!", time.Hour)
	other := NewManager("another-secret-key-also-32-chars!!!", time.Hour)

	token, err := manager.GenerateToken(uuid.New(), "a@b.c", "A", "admin")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	manager := NewManager("test-secret-key-at-least-32-chars!!", -time.Minute)

	token, err := manager.GenerateToken(uuid.New(), "a@b.c", "A", "client")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	manager := NewManager("test-secret-key-at-least-32-chars!!", time.Hour)

	_, err := manager.ValidateToken("not-a-token")
	assert.Error(t, err)
}
