package database

import (
	"io/fs"
	"testing"

	"actrec-directory/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationSource(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", ""} {
		sub, err := migrationSource(driver)
		require.NoError(t, err, driver)

		up, err := fs.ReadFile(sub, "000001_init.up.sql")
		require.NoError(t, err)
		assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS contacts")
		assert.Contains(t, string(up), "user_profiles")

		_, err = fs.Stat(sub, "000001_init.down.sql")
		assert.NoError(t, err)
	}

	_, err := migrationSource("sqlite")
	assert.Error(t, err)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "mysql"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_UnknownMode(t *testing.T) {
	err := Migrate(nil, &config.Config{DBMigrationMode: "alter"}, zap.NewNop())
	assert.ErrorContains(t, err, "alter")
}
