package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", hash)

	assert.True(t, VerifyPassword("123456", hash))
	assert.False(t, VerifyPassword("wrongpassword", hash))
	assert.False(t, VerifyPassword("123456", "not-a-bcrypt-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Issue(42, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, "admin", role)
}

func TestTokenRejection(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := tm.Verify("badtoken")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", time.Hour)
		token, err := other.Issue(1, "user")
		require.NoError(t, err)

		_, _, err = tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := NewTokenManager("test-secret", -time.Minute)
		token, err := shortLived.Issue(1, "user")
		require.NoError(t, err)

		_, _, err = tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
