package services

import (
	"context"
	"fmt"
	"testing"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkInsert_DuplicateEmailInBatch(t *testing.T) {
	f := newFixture(t)

	out, err := f.bulk.BulkInsert(context.Background(), []models.ContactCandidate{
		{Name: "A", Email: "a@x.com", Extension: "100"},
		{Name: "B", Email: "a@x.com", Extension: "101"},
	})
	require.NoError(t, err)
	assert.Len(t, out.Inserted, 1)
	require.Len(t, out.Skipped, 1)
	assert.Contains(t, out.Skipped[0].Reason, "a@x.com")
	assert.Equal(t, 1, out.Skipped[0].Index)
	assert.Len(t, out.Credentials, 1)
	assert.Equal(t, Summary{Total: 2, Succeeded: 1, Failed: 1}, out.Summary)
}

func TestBulkInsert_SkipsExactlyTheDuplicates(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "Existing", "taken@x.com", "500", models.RoleAdmin)

	candidates := []models.ContactCandidate{
		{Name: "C0", Email: "c0@x.com", Extension: "1"},
		{Name: "C1", Email: "TAKEN@x.com", Extension: "2"},
		{Name: "C2", Email: "c2@x.com", Extension: "500"},
		{Name: "C3", Email: "c3@x.com", Extension: "1"},
		{Name: "C4", Email: "c4@x.com", Extension: "4"},
		{Name: "C5", Email: "c5@x.com", Extension: "5"},
		{Name: "", Email: "c6@x.com", Extension: "6"},
	}
	out, err := f.bulk.BulkInsert(context.Background(), candidates)
	require.NoError(t, err)

	assert.Len(t, out.Skipped, 4)
	assert.Len(t, out.Inserted, 3)
	assert.Len(t, out.Credentials, 3)
	assert.Equal(t, int64(4), f.contactCount(t))

	skippedAt := make([]int, 0, len(out.Skipped))
	for _, s := range out.Skipped {
		skippedAt = append(skippedAt, s.Index)
	}
	assert.Equal(t, []int{1, 2, 3, 6}, skippedAt)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventContactsCreated, events[0].Type)
	assert.Len(t, events[0].IDs, 3)
}

func TestBulkInsert_Validation(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.BulkMaxItems = 2 })

	_, err := f.bulk.BulkInsert(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = f.bulk.BulkInsert(context.Background(), make([]models.ContactCandidate, 3))
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Zero(t, f.contactCount(t))
}

func TestBulkInsert_ManyConcurrent(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.BulkMaxConcurrency = 4 })

	candidates := make([]models.ContactCandidate, 50)
	for i := range candidates {
		candidates[i] = models.ContactCandidate{
			Name:      fmt.Sprintf("Person %02d", i),
			Email:     fmt.Sprintf("p%02d@x.com", i),
			Extension: fmt.Sprintf("%d", 1000+i),
		}
	}
	out, err := f.bulk.BulkInsert(context.Background(), candidates)
	require.NoError(t, err)
	assert.Len(t, out.Inserted, 50)
	assert.Empty(t, out.Skipped)
	for i, c := range out.Inserted {
		assert.Equal(t, candidates[i].Email, c.Email)
	}
}

func TestBulkDelete_SoleAdminIsRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boss := f.seed(t, "Boss", "boss@x.com", "1", models.RoleAdmin)
	r := f.seed(t, "Reg", "reg@x.com", "2", models.RoleRegular)

	out, err := f.bulk.BulkDelete(ctx, []string{boss.ID, r.ID})
	require.NoError(t, err)

	require.Len(t, out.Deleted, 1)
	assert.Equal(t, r.ID, out.Deleted[0].ID)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, boss.ID, out.Errors[0].ID)
	assert.Contains(t, out.Errors[0].Reason, "last administrator")

	_, err = f.store.GetContact(ctx, boss.ID)
	assert.NoError(t, err)
	_, err = f.store.GetAccount(ctx, boss.ID)
	assert.NoError(t, err)
}

func TestBulkDelete_KeepsOneOfSeveralAdmins(t *testing.T) {
	f := newFixture(t)
	a1 := f.seed(t, "A1", "a1@x.com", "1", models.RoleAdmin)
	a2 := f.seed(t, "A2", "a2@x.com", "2", models.RoleAdmin)

	out, err := f.bulk.BulkDelete(context.Background(), []string{a1.ID, a2.ID})
	require.NoError(t, err)
	assert.Len(t, out.Deleted, 1)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, a2.ID, out.Errors[0].ID)

	admins, err := f.store.CountAccountsByRole(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}

func TestBulkDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "Boss", "boss@x.com", "1", models.RoleAdmin)
	r1 := f.seed(t, "R1", "r1@x.com", "2", models.RoleRegular)
	r2 := f.seed(t, "R2", "r2@x.com", "3", models.RoleRegular)
	ids := []string{r1.ID, r2.ID}

	first, err := f.bulk.BulkDelete(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, first.Deleted, 2)
	assert.Empty(t, first.Errors)
	countAfterFirst := f.contactCount(t)

	second, err := f.bulk.BulkDelete(ctx, ids)
	require.NoError(t, err)
	assert.Empty(t, second.Deleted)
	require.Len(t, second.Errors, 2)
	for _, e := range second.Errors {
		assert.Contains(t, e.Reason, "not found")
	}
	assert.Equal(t, countAfterFirst, f.contactCount(t))
}

func TestBulkDelete_DuplicateAndBlankIDs(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "Boss", "boss@x.com", "1", models.RoleAdmin)
	r := f.seed(t, "R", "r@x.com", "2", models.RoleRegular)

	out, err := f.bulk.BulkDelete(context.Background(), []string{r.ID, r.ID, " "})
	require.NoError(t, err)
	assert.Len(t, out.Deleted, 1)
	assert.Len(t, out.Errors, 2)
	assert.Equal(t, Summary{Total: 3, Succeeded: 1, Failed: 2}, out.Summary)

	_, err = f.bulk.BulkDelete(context.Background(), []string{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestBulk_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "Boss", "boss@x.com", "1", models.RoleAdmin)
	before := f.contactCount(t)

	inserted, err := f.bulk.BulkInsert(ctx, []models.ContactCandidate{{Name: "New", Email: "new@x.com", Extension: "42"}})
	require.NoError(t, err)
	require.Len(t, inserted.Inserted, 1)

	deleted, err := f.bulk.BulkDelete(ctx, []string{inserted.Inserted[0].ID})
	require.NoError(t, err)
	require.Len(t, deleted.Deleted, 1)

	assert.Equal(t, before, f.contactCount(t))
}

func TestBulkUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a1 := f.seed(t, "A1", "a1@x.com", "1", models.RoleAdmin)
	a2 := f.seed(t, "A2", "a2@x.com", "2", models.RoleAdmin)
	r := f.seed(t, "R", "r@x.com", "3", models.RoleRegular)

	out, err := f.bulk.BulkUpdate(ctx, admin(a1.ID), []string{r.ID, "missing"}, map[string]interface{}{"department": "Radiology"})
	require.NoError(t, err)
	require.Len(t, out.Updated, 1)
	assert.Equal(t, "Radiology", out.Updated[0].Department)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0].Reason, "not found")

	out, err = f.bulk.BulkUpdate(ctx, admin(a1.ID), []string{a1.ID, a2.ID}, map[string]interface{}{"role": "regular"})
	require.NoError(t, err)
	assert.Len(t, out.Updated, 1)
	require.Len(t, out.Errors, 1)
	assert.ErrorIs(t, out.Errors[0].Err, ErrLastAdministrator)

	admins, err := f.store.CountAccountsByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	_, err = f.bulk.BulkUpdate(ctx, admin(a1.ID), []string{r.ID}, nil)
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = f.bulk.BulkUpdate(ctx, regular(r.ID), []string{r.ID}, map[string]interface{}{"location": "x"})
	assert.ErrorIs(t, err, ErrForbidden)
}
