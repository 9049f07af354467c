package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.GenerateToken("alice@example.com", "Alice")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "raven-push", claims.Issuer)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	other, err := NewJWTManager("other-secret", time.Hour).GenerateToken("alice@example.com", "Alice")
	require.NoError(t, err)
	_, err = m.ValidateToken(other)
	assert.Error(t, err)

	expired, err := NewJWTManager("secret", -time.Minute).GenerateToken("alice@example.com", "Alice")
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.Error(t, err)

	anonymous, err := m.GenerateToken("", "")
	require.NoError(t, err)
	_, err = m.ValidateToken(anonymous)
	assert.Error(t, err)

	_, err = m.ValidateToken("not-a-token")
	assert.Error(t, err)
}
