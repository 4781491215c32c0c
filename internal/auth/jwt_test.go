package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomhub/meeting-room-backend/internal/identity"
)

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", 15*time.Minute)

	t.Run("valid token carries user and role", func(t *testing.T) {
		token, err := manager.GenerateAccessToken("user-1", "alice@example.com", identity.RoleAdmin)
		require.NoError(t, err)

		claims, err := manager.ParseAndValidate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, string(identity.RoleAdmin), claims.Role)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token, err := manager.GenerateAccessToken("user-1", "alice@example.com", identity.RoleMember)
		require.NoError(t, err)

		other := NewJWTManager("different-secret", 15*time.Minute)
		_, err = other.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		short := NewJWTManager("test-secret", -time.Minute)
		token, err := short.GenerateAccessToken("user-1", "alice@example.com", identity.RoleMember)
		require.NoError(t, err)

		_, err = manager.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("unknown role claim rejected", func(t *testing.T) {
		claims := &Claims{
			UserID: "user-1",
			Role:   "superuser",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = manager.ParseAndValidate(signed)
		assert.ErrorContains(t, err, "invalid role claim")
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := manager.ParseAndValidate("not.a.token")
		assert.Error(t, err)
	})
}
