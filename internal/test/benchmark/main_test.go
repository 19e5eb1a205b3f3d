package benchmark

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"actrec-directory/internal/app/routes"
	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	concurrency = 8
	requests    = 40
)

type liveServer struct {
	url   string
	store *store.MemoryStore
	jwt   services.InterfaceJWTService
}

func startServer(t *testing.T) *liveServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemoryStore()
	c := container.NewServiceContainer(container.Options{
		Store: s,
		Config: &config.Config{
			DefaultInstitution: "ACTREC",
			CascadeMode:        config.CascadeBestEffort,
			BulkMaxConcurrency: 4,
			BulkMaxItems:       100,
			PasswordHashCost:   12,
			JWTSecretKey:       "bench-secret",
			JWTTTL:             time.Hour,
			RateLimitRPS:       10000,
			RateLimitBurst:     10000,
		},
	})
	srv := httptest.NewServer(routes.SetupRouter(c))
	t.Cleanup(func() {
		srv.Close()
		c.Close()
	})

	return &liveServer{
		url:   srv.URL + "/api",
		store: s,
		jwt:   c.GetService("jwt").(services.InterfaceJWTService),
	}
}

func (l *liveServer) seedAdmin(t *testing.T, i int) (string, string) {
	t.Helper()
	ctx := context.Background()
	contact := &models.Contact{Name: fmt.Sprintf("Admin %d", i), Email: fmt.Sprintf("admin%d@x.com", i), Extension: fmt.Sprintf("9%03d", i)}
	require.NoError(t, l.store.CreateContact(ctx, contact))
	account := &models.Account{BaseModel: models.BaseModel{ID: contact.ID}, Email: contact.Email, Role: models.RoleAdmin}
	require.NoError(t, l.store.CreateAccount(ctx, account))

	token, _, err := l.jwt.GenerateToken(account)
	require.NoError(t, err)
	return contact.ID, token
}

func TestDirectoryListing(t *testing.T) {
	l := startServer(t)
	l.seedAdmin(t, 0)

	result := NewAPIBenchmark(l.url, concurrency, requests, "").RunGET("/contacts?page_size=50")
	t.Log(result)

	assert.Zero(t, result.FailureCount)
	assert.Equal(t, requests, result.StatusCodes[http.StatusOK])
}

// Every admin is deleted by its own request; exactly one survives. The
// requests run one at a time since the floor check is not atomic across
// separate requests.
func TestSequentialAdminDeletes(t *testing.T) {
	l := startServer(t)

	const admins = 6
	ids := make([]string, admins)
	var token string
	for i := range ids {
		ids[i], token = l.seedAdmin(t, i)
	}

	b := NewAPIBenchmark(l.url, 1, admins, token)
	result := b.Run(http.MethodDelete, "/contacts/bulk", func(i int) interface{} {
		return map[string]interface{}{"ids": []string{ids[i]}}
	})
	t.Log(result)
	assert.Empty(t, result.Errors)

	remaining, err := l.store.CountAccountsByRole(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}

// Concurrent batches that all carry the same email insert it exactly once.
func TestConcurrentBulkInsertSameEmail(t *testing.T) {
	l := startServer(t)
	_, token := l.seedAdmin(t, 0)

	b := NewAPIBenchmark(l.url, concurrency, concurrency, token)
	result := b.Run(http.MethodPost, "/contacts/bulk", func(i int) interface{} {
		return map[string]interface{}{"contacts": []map[string]string{
			{"name": "Shared", "email": "shared@x.com", "extension": fmt.Sprintf("5%02d", i)},
		}}
	})
	t.Log(result)
	assert.Equal(t, concurrency, result.SuccessCount)

	contact, err := l.store.FindContactByEmail(context.Background(), "shared@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Shared", contact.Name)

	total, err := l.store.CountContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
