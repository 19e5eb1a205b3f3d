package services

import (
	"context"
	"testing"
	"time"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisDirectoryCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	cache := NewRedisDirectoryCache(client, time.Minute)

	version, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", version)

	var got []string
	hit, err := cache.Get(ctx, version, "departments", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, version, "departments", []string{"Radiology", "Surgery"}))
	hit, err = cache.Get(ctx, version, "departments", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Radiology", "Surgery"}, got)

	require.NoError(t, cache.Invalidate(ctx))
	version, err = cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", version)
	hit, err = cache.Get(ctx, version, "departments", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, version, "departments", []string{"x"}))
	mr.FastForward(2 * time.Minute)
	hit, err = cache.Get(ctx, version, "departments", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestContactService_CacheInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	f := newFixture(t)
	svc := NewContactService(f.store, f.config, &fakeCredentials{}, NewRedisDirectoryCache(client, time.Minute), nil, zap.NewNop())

	page, err := svc.ListContacts(ctx, ContactQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Contacts)

	// a write that bypasses the service is not visible until invalidation
	f.seed(t, "Hidden", "hidden@x.com", "9", models.RoleRegular)
	page, err = svc.ListContacts(ctx, ContactQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Contacts)

	_, ok := svc.InsertContact(ctx, models.ContactCandidate{Name: "A", Email: "a@x.com", Extension: "1"}).(Inserted)
	require.True(t, ok)

	page, err = svc.ListContacts(ctx, ContactQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Contacts, 2)
}

// interleavedStore runs onGet once, right after a contact row was fetched
type interleavedStore struct {
	*store.MemoryStore
	onGet func()
}

func (s *interleavedStore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	contact, err := s.MemoryStore.GetContact(ctx, id)
	if hook := s.onGet; hook != nil {
		s.onGet = nil
		hook()
	}
	return contact, err
}

func TestContactService_UpdateDuringCachedReadIsNotHidden(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	f := newFixture(t)
	c := f.seed(t, "Old", "old@x.com", "7", models.RoleRegular)

	s := &interleavedStore{MemoryStore: f.store}
	svc := NewContactService(s, f.config, &fakeCredentials{}, NewRedisDirectoryCache(client, time.Minute), nil, zap.NewNop())

	s.onGet = func() {
		_, err := svc.UpdateContact(ctx, admin("root"), c.ID, map[string]interface{}{"name": "New"})
		require.NoError(t, err)
	}

	first, err := svc.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", first.Name)

	second, err := svc.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", second.Name)
}
