package store

import (
	"context"
	"errors"
	"testing"

	"actrec-directory/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedContact(t *testing.T, s Store, name, email, ext, dept string) *models.Contact {
	t.Helper()
	c := &models.Contact{Name: name, Email: email, Extension: ext, Department: dept}
	require.NoError(t, s.CreateContact(context.Background(), c))
	return c
}

func TestMemoryStore_ContactUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedContact(t, s, "A", "a@x.com", "100", "Radiology")

	err := s.CreateContact(ctx, &models.Contact{Name: "B", Email: "a@x.com", Extension: "101"})
	assert.True(t, IsDuplicate(err))

	err = s.CreateContact(ctx, &models.Contact{Name: "C", Email: "c@x.com", Extension: "100"})
	assert.True(t, IsDuplicate(err))

	n, err := s.CountContacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_UpdateContactRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := seedContact(t, s, "A", "a@x.com", "100", "")
	seedContact(t, s, "B", "b@x.com", "101", "")

	_, err := s.UpdateContact(ctx, a.ID, map[string]interface{}{"email": "b@x.com"})
	assert.True(t, IsDuplicate(err))

	updated, err := s.UpdateContact(ctx, a.ID, map[string]interface{}{"location": "Kharghar"})
	require.NoError(t, err)
	assert.Equal(t, "Kharghar", updated.Location)

	_, err = s.UpdateContact(ctx, "missing", map[string]interface{}{"location": "x"})
	assert.True(t, IsNotFound(err))
}

func TestMemoryStore_ListContacts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedContact(t, s, "Charlie", "c@x.com", "300", "Surgery")
	seedContact(t, s, "Alice", "a@x.com", "100", "Radiology")
	seedContact(t, s, "Bob", "b@x.com", "200", "Radiology")

	all, total, err := s.ListContacts(ctx, ContactFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "Alice", all[0].Name)

	page, total, err := s.ListContacts(ctx, ContactFilter{Department: "Radiology", Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Bob", page[0].Name)

	found, _, err := s.ListContacts(ctx, ContactFilter{Search: "CHAR"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Charlie", found[0].Name)

	departments, err := s.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Radiology", "Surgery"}, departments)
}

func TestMemoryStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		c := &models.Contact{Name: "A", Email: "a@x.com", Extension: "100"}
		if err := tx.CreateContact(ctx, c); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountContacts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = s.Transaction(ctx, func(tx Store) error {
		c := &models.Contact{Name: "A", Email: "a@x.com", Extension: "100"}
		if err := tx.CreateContact(ctx, c); err != nil {
			return err
		}
		return tx.CreateAccount(ctx, &models.Account{BaseModel: models.BaseModel{ID: c.ID}, Email: c.Email})
	})
	require.NoError(t, err)

	n, _ = s.CountContacts(ctx)
	assert.Equal(t, int64(1), n)
	regular, _ := s.CountAccountsByRole(ctx, models.RoleRegular)
	assert.Equal(t, int64(1), regular)
}

func TestMemoryStore_Faults(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("connection reset")
	s.SetFault("CreateAccount", boom)

	err := s.CreateAccount(ctx, &models.Account{Email: "a@x.com"})
	assert.ErrorIs(t, err, boom)

	s.SetFault("CreateAccount", nil)
	require.NoError(t, s.CreateAccount(ctx, &models.Account{Email: "a@x.com"}))

	err = s.CreateAccount(ctx, &models.Account{Email: "a@x.com"})
	assert.True(t, IsDuplicate(err))
}

func TestMemoryStore_DeleteMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	assert.True(t, IsNotFound(s.DeleteContact(ctx, "nope")))
	assert.True(t, IsNotFound(s.DeleteAccount(ctx, "nope")))
	_, err := s.GetAccount(ctx, "nope")
	assert.True(t, IsNotFound(err))
}
