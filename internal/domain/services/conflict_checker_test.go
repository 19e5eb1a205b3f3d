package services

import (
	"context"
	"testing"

	"actrec-directory/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictChecker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.seed(t, "Alice", "alice@x.com", "100", models.RoleRegular)
	require.NoError(t, f.store.CreateAccount(ctx, &models.Account{Email: "orphan@x.com"}))

	checker := NewConflictChecker(f.store)

	t.Run("no conflict", func(t *testing.T) {
		c, err := checker.CheckConflicts(ctx, models.ContactCandidate{Email: "new@x.com", Extension: "999"}, "")
		require.NoError(t, err)
		assert.False(t, c.Any())
		assert.Empty(t, c.Reason())
	})

	t.Run("email and extension", func(t *testing.T) {
		c, err := checker.CheckConflicts(ctx, models.ContactCandidate{Email: "alice@x.com", Extension: "100"}, "")
		require.NoError(t, err)
		require.NotNil(t, c.Email)
		require.NotNil(t, c.Extension)
		assert.Equal(t, "Alice", c.Email.OwnerName)
		assert.Equal(t, "Alice", c.Extension.OwnerName)
		assert.Contains(t, c.Reason(), "alice@x.com")
		assert.Contains(t, c.Reason(), "extension 100")
	})

	t.Run("account without contact", func(t *testing.T) {
		c, err := checker.CheckConflicts(ctx, models.ContactCandidate{Email: "orphan@x.com"}, "")
		require.NoError(t, err)
		require.NotNil(t, c.Email)
		assert.Equal(t, "orphan@x.com", c.Email.OwnerName)
		assert.Nil(t, c.Extension)
	})

	t.Run("excluded id", func(t *testing.T) {
		c, err := checker.CheckConflicts(ctx, models.ContactCandidate{Email: "alice@x.com", Extension: "100"}, alice.ID)
		require.NoError(t, err)
		assert.False(t, c.Any())
	})
}
