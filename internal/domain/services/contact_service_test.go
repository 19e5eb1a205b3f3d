package services

import (
	"context"
	"errors"
	"testing"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInsertContact_CreatesContactAndAccount(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	s := store.NewMemoryStore()
	creds := NewCredentialService(cfg.PasswordHashCost)
	svc := NewContactService(s, cfg, creds, nil, nil, zap.NewNop())

	result := svc.InsertContact(ctx, models.ContactCandidate{Name: " Dr. A ", Email: "A@X.com", Extension: "100"})
	inserted, ok := result.(Inserted)
	require.True(t, ok, "got %#v", result)
	assert.False(t, inserted.AccountPending)
	assert.Equal(t, "a@x.com", inserted.Contact.Email)
	assert.Equal(t, "ACTREC", inserted.Contact.Institution)

	require.NotNil(t, inserted.Credential)
	assert.Equal(t, inserted.Contact.ID, inserted.Credential.ContactID)
	assert.Equal(t, "Dr. A", inserted.Credential.ContactName)

	account, err := s.GetAccount(ctx, inserted.Contact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRegular, account.Role)
	assert.Equal(t, "a@x.com", account.Email)
	assert.True(t, creds.Verify(inserted.Credential.Password, account.PasswordHash))
}

func TestInsertContact_Skips(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "Alice", "a@x.com", "100", models.RoleRegular)

	tests := []struct {
		name      string
		candidate models.ContactCandidate
		wantErr   error
		contains  string
	}{
		{"duplicate email", models.ContactCandidate{Name: "B", Email: "a@x.com", Extension: "101"}, ErrConflict, "a@x.com"},
		{"duplicate extension", models.ContactCandidate{Name: "B", Email: "b@x.com", Extension: "100"}, ErrConflict, "extension 100"},
		{"missing fields", models.ContactCandidate{Name: "B"}, ErrMissingFields, "email, extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skipped, ok := f.contacts.InsertContact(ctx, tt.candidate).(Skipped)
			require.True(t, ok)
			assert.ErrorIs(t, skipped.Err, tt.wantErr)
			assert.Contains(t, skipped.Reason, tt.contains)
		})
	}
	assert.Equal(t, int64(1), f.contactCount(t))
}

func TestInsertContact_StoreRaceIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.store.SetFault("CreateContact", store.ErrDuplicate)

	skipped, ok := f.contacts.InsertContact(context.Background(),
		models.ContactCandidate{Name: "A", Email: "a@x.com", Extension: "100"}).(Skipped)
	require.True(t, ok)
	assert.ErrorIs(t, skipped.Err, ErrConflict)
}

func TestInsertContact_BestEffortKeepsContactWhenAccountFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.SetFault("CreateAccount", errors.New("connection reset"))

	inserted, ok := f.contacts.InsertContact(ctx, models.ContactCandidate{Name: "A", Email: "a@x.com", Extension: "100"}).(Inserted)
	require.True(t, ok)
	assert.True(t, inserted.AccountPending)
	assert.NotNil(t, inserted.Credential)

	_, err := f.store.GetContact(ctx, inserted.Contact.ID)
	assert.NoError(t, err)
	_, err = f.store.GetAccount(ctx, inserted.Contact.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestInsertContact_TransactionalRollsBack(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.CascadeMode = config.CascadeTransactional })
	f.store.SetFault("CreateAccount", errors.New("connection reset"))

	skipped, ok := f.contacts.InsertContact(context.Background(),
		models.ContactCandidate{Name: "A", Email: "a@x.com", Extension: "100"}).(Skipped)
	require.True(t, ok)
	assert.Contains(t, skipped.Reason, "connection reset")
	assert.Zero(t, f.contactCount(t))

	f.store.SetFault("CreateAccount", nil)
	_, ok = f.contacts.InsertContact(context.Background(),
		models.ContactCandidate{Name: "A", Email: "a@x.com", Extension: "100"}).(Inserted)
	assert.True(t, ok)
}

func TestDeleteContact_LastAdministrator(t *testing.T) {
	f := newFixture(t)
	only := f.seed(t, "Admin", "admin@x.com", "1", models.RoleAdmin)

	_, err := f.contacts.DeleteContact(context.Background(), only.ID)
	require.ErrorIs(t, err, ErrLastAdministrator)
	assert.Contains(t, err.Error(), "last administrator")
	assert.Equal(t, int64(1), f.contactCount(t))
	assert.Empty(t, f.publisher.Events())
}

func TestDeleteContact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "Admin", "admin@x.com", "1", models.RoleAdmin)
	second := f.seed(t, "Admin Two", "admin2@x.com", "2", models.RoleAdmin)
	r := f.seed(t, "Reg", "reg@x.com", "3", models.RoleRegular)

	deleted, err := f.contacts.DeleteContact(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, DeletedContact{ID: r.ID, Email: "reg@x.com", Name: "Reg"}, *deleted)
	_, err = f.store.GetAccount(ctx, r.ID)
	assert.True(t, store.IsNotFound(err))

	_, err = f.contacts.DeleteContact(ctx, second.ID)
	require.NoError(t, err)

	_, err = f.contacts.DeleteContact(ctx, r.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)

	events := f.publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventContactsDeleted, events[0].Type)
}

func TestDeleteContact_AccountFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.seed(t, "Reg", "reg@x.com", "3", models.RoleRegular)
	f.store.SetFault("DeleteAccount", errors.New("timeout"))

	_, err := f.contacts.DeleteContact(ctx, r.ID)
	require.NoError(t, err)
	assert.Zero(t, f.contactCount(t))
}

func TestUpdateContact_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.seed(t, "Alice", "alice@x.com", "100", models.RoleRegular)
	bob := f.seed(t, "Bob", "bob@x.com", "101", models.RoleRegular)

	updated, err := f.contacts.UpdateContact(ctx, regular(alice.ID), alice.ID, map[string]interface{}{"location": "Kharghar"})
	require.NoError(t, err)
	assert.Equal(t, "Kharghar", updated.Location)

	_, err = f.contacts.UpdateContact(ctx, regular(alice.ID), bob.ID, map[string]interface{}{"location": "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.contacts.UpdateContact(ctx, regular(alice.ID), alice.ID, map[string]interface{}{"extension": "555"})
	assert.ErrorIs(t, err, ErrForbiddenField)

	_, err = f.contacts.UpdateContact(ctx, regular(alice.ID), alice.ID, map[string]interface{}{"role": "admin"})
	assert.ErrorIs(t, err, ErrForbiddenField)

	_, err = f.contacts.UpdateContact(ctx, nil, alice.ID, map[string]interface{}{"location": "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.contacts.UpdateContact(ctx, admin("root"), alice.ID, map[string]interface{}{"salary": "1"})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = f.contacts.UpdateContact(ctx, admin("root"), alice.ID, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestUpdateContact_EmailPropagatesToAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.seed(t, "Alice", "alice@x.com", "100", models.RoleRegular)

	updated, err := f.contacts.UpdateContact(ctx, admin("root"), alice.ID, map[string]interface{}{"email": " Alice.New@X.com "})
	require.NoError(t, err)
	assert.Equal(t, "alice.new@x.com", updated.Email)

	account, err := f.store.GetAccount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice.new@x.com", account.Email)
}

func TestUpdateContact_PropagationFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.seed(t, "Alice", "alice@x.com", "100", models.RoleRegular)
	f.store.SetFault("UpdateAccount", errors.New("timeout"))

	updated, err := f.contacts.UpdateContact(ctx, admin("root"), alice.ID, map[string]interface{}{"email": "new@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", updated.Email)
}

func TestUpdateContact_RechecksUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.seed(t, "Alice", "alice@x.com", "100", models.RoleRegular)
	f.seed(t, "Bob", "bob@x.com", "101", models.RoleRegular)

	_, err := f.contacts.UpdateContact(ctx, admin("root"), alice.ID, map[string]interface{}{"email": "bob@x.com"})
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "Bob")

	_, err = f.contacts.UpdateContact(ctx, admin("root"), alice.ID, map[string]interface{}{"extension": "101"})
	assert.ErrorIs(t, err, ErrConflict)

	// unchanged values do not conflict with the contact itself
	_, err = f.contacts.UpdateContact(ctx, admin("root"), alice.ID, map[string]interface{}{"email": "alice@x.com", "extension": "100"})
	assert.NoError(t, err)
}

func TestUpdateContact_RoleChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boss := f.seed(t, "Boss", "boss@x.com", "1", models.RoleAdmin)
	alice := f.seed(t, "Alice", "alice@x.com", "100", models.RoleRegular)

	_, err := f.contacts.UpdateContact(ctx, admin(boss.ID), boss.ID, map[string]interface{}{"role": "regular"})
	assert.ErrorIs(t, err, ErrLastAdministrator)

	_, err = f.contacts.UpdateContact(ctx, admin(boss.ID), alice.ID, map[string]interface{}{"role": "admin"})
	require.NoError(t, err)

	account, err := f.contacts.ChangeRole(ctx, boss.ID, "regular")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRegular, account.Role)

	_, err = f.contacts.ChangeRole(ctx, alice.ID, "regular")
	assert.ErrorIs(t, err, ErrLastAdministrator)

	_, err = f.contacts.ChangeRole(ctx, alice.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestListContacts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i, name := range []string{"Charlie", "Alice", "Bob"} {
		f.seed(t, name, name+"@x.com", string(rune('1'+i)), models.RoleRegular)
	}

	page, err := f.contacts.ListContacts(ctx, ContactQuery{PaginationQuery: models.PaginationQuery{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, int64(2), page.Pagination.TotalPages)
	require.Len(t, page.Contacts, 2)
	assert.Equal(t, "Alice", page.Contacts[0].Name)

	contact, err := f.contacts.GetContact(ctx, page.Contacts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", contact.Name)

	_, err = f.contacts.GetContact(ctx, "missing")
	assert.ErrorIs(t, err, ErrContactNotFound)
}
