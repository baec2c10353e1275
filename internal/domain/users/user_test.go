package users_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/domain/shared/fault"
	"hirely/internal/domain/users"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNewUser(t *testing.T) {
	u, err := users.NewUser(users.CreateParams{ID: "u1", Email: " Ada@Example.COM ", Name: "Ada", CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, u.IdentityVerified)

	_, err = users.NewUser(users.CreateParams{ID: "u2", Name: "Bob"})
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestBlockedDates(t *testing.T) {
	u, err := users.NewUser(users.CreateParams{ID: "u1", Email: "a@b.c", Name: "Ada", CreatedAt: now})
	require.NoError(t, err)

	require.NoError(t, u.BlockDates([]string{"2025-03-05", "2025-03-01", "2025-03-05"}, now))
	assert.Equal(t, []string{"2025-03-01", "2025-03-05"}, u.BlockedDates)

	require.NoError(t, u.UnblockDates([]string{"2025-03-01", "2025-04-01"}, now))
	assert.Equal(t, []string{"2025-03-05"}, u.BlockedDates)

	assert.ErrorIs(t, u.BlockDates([]string{"tomorrow"}, now), fault.ErrValidation)
	assert.Equal(t, []string{"2025-03-05"}, u.BlockedDates)
}
