package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storesync/internal/core/appctx"
)

func TestTokenRoundTrip(t *testing.T) {
	v := NewTokenValidator("test-secret")

	token, err := v.IssueToken(&appctx.UserContext{
		UserID:   "user-1",
		Email:    "user@example.com",
		BranchID: "0191b7a3-0000-7000-8000-000000000001",
		Roles:    []string{"manager"},
	}, time.Hour)
	require.NoError(t, err)

	user, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "0191b7a3-0000-7000-8000-000000000001", user.BranchID)
	assert.Equal(t, []string{"manager"}, user.Roles)
}

func TestValidateTokenRejections(t *testing.T) {
	v := NewTokenValidator("test-secret")

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenValidator("other-secret")
		token, err := other.IssueToken(&appctx.UserContext{UserID: "user-1"}, time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := v.IssueToken(&appctx.UserContext{UserID: "user-1"}, -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := v.IssueToken(&appctx.UserContext{}, time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.ValidateToken("not.a.token")
		require.Error(t, err)
	})
}
