package main

import (
	"fmt"
	"os"

	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/database"
	"actrec-directory/internal/infrastructure/store"
	Logger "actrec-directory/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand needs once the root command has run
type app struct {
	envFile string
	config  *config.Config
	logger  *zap.Logger
	pool    *database.ConnectionPool

	redis     *redis.Client
	publisher services.InterfaceEventPublisher
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Operate the ACTREC telephone directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(a.envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load %s: %w", a.envFile, err)
			}
			a.config = config.LoadConfig()

			logger, err := Logger.NewLogger(a.config.LogLevel, "console", "directoryctl")
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newBootstrapAdminCmd(a),
	)
	return root
}

// store opens the database on first use
func (a *app) store() (*store.GormStore, error) {
	if a.pool == nil {
		pool, err := database.NewConnectionPool(a.config, a.logger)
		if err != nil {
			return nil, err
		}
		a.pool = pool
	}
	return store.NewGormStore(a.pool.GetDB()), nil
}

// directoryCache connects to the server's read cache so CLI writes invalidate
// cached listings. Without Redis the cache is a no-op.
func (a *app) directoryCache() services.InterfaceDirectoryCache {
	if !a.config.RedisEnabled() {
		return services.NoopDirectoryCache{}
	}
	if a.redis == nil {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.config.GetRedisAddr(),
			Password: a.config.RedisPassword,
			DB:       a.config.RedisDB,
		})
	}
	return services.NewRedisDirectoryCache(a.redis, a.config.CacheTTL)
}

// eventPublisher connects to the MQTT broker when one is configured
func (a *app) eventPublisher() services.InterfaceEventPublisher {
	if !a.config.MQTTEnabled() {
		return services.NoopEventPublisher{}
	}
	if a.publisher == nil {
		publisher, err := services.NewMQTTEventPublisher(a.config, a.logger)
		if err != nil {
			a.logger.Warn("MQTT unavailable, change events disabled", zap.Error(err))
			return services.NoopEventPublisher{}
		}
		a.publisher = publisher
	}
	return a.publisher
}

func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		_ = a.pool.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
