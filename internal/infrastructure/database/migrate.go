package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration modes
const (
	MigrationAuto = "auto"
	MigrationSQL  = "sql"
	MigrationDrop = "drop"
)

//go:embed migrations
var migrationFiles embed.FS

// Models lists every table the directory owns
func Models() []interface{} {
	return []interface{}{&models.Contact{}, &models.Account{}}
}

// Migrate brings the schema up to date according to cfg.DBMigrationMode.
// auto adds missing tables and columns, sql runs the embedded versioned
// migrations and drop recreates every table.
func Migrate(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	switch cfg.DBMigrationMode {
	case MigrationSQL:
		log.Info("running versioned SQL migrations", zap.String("driver", cfg.DBDriver))
		return RunSQLMigrations(cfg)
	case MigrationDrop:
		log.Warn("drop mode: every directory table is dropped and recreated")
		if err := db.Migrator().DropTable(Models()...); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		return db.AutoMigrate(Models()...)
	case MigrationAuto, "":
		log.Info("running AutoMigrate")
		return db.AutoMigrate(Models()...)
	default:
		return fmt.Errorf("unknown DB_MIGRATION_MODE %q", cfg.DBMigrationMode)
	}
}

// RunSQLMigrations applies the embedded migrations for the configured driver
func RunSQLMigrations(cfg *config.Config) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// RollbackSQLMigrations reverts the given number of migration steps
func RollbackSQLMigrations(cfg *config.Config, steps int) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

func migrationSource(driver string) (fs.FS, error) {
	if driver == "" {
		driver = "postgres"
	}
	if driver != "postgres" && driver != "mysql" {
		return nil, fmt.Errorf("no SQL migrations for driver %q", driver)
	}
	return fs.Sub(migrationFiles, "migrations/"+driver)
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, error) {
	sub, err := migrationSource(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.GetMigrateURL())
	if err != nil {
		return nil, fmt.Errorf("open migrator: %w", err)
	}
	return m, nil
}
