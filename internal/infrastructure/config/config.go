package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config     *Config
	configOnce sync.Once
)

// Cascade modes for the contact -> account insert.
const (
	CascadeBestEffort    = "best_effort"
	CascadeTransactional = "transactional"
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBDriver        string // postgres | mysql
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBSSLMode       string
	DBMigrationMode string // auto (default), sql, drop

	// Server
	ServerPort      string
	CORSAllowOrigin string
	RateLimitRPS    float64
	RateLimitBurst  int

	// Redis; an empty host disables the directory cache
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// MQTT; an empty broker URL disables change events
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTQoS         int
	MQTTRetained    bool
	MQTTTopicPrefix string

	// JWT Authentication
	JWTSecretKey string
	JWTTTL       time.Duration

	// Credentials
	PasswordHashCost int

	// Contacts
	DefaultInstitution string
	CascadeMode        string
	BulkMaxConcurrency int
	BulkMaxItems       int

	// Bootstrap administrator, created when no admin account exists
	BootstrapAdminEmail     string
	BootstrapAdminName      string
	BootstrapAdminExtension string
	BootstrapAdminPassword  string // empty means generate one and log it once

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	envType := strings.ToUpper(getEnv("ENV_TYPE", "LOCAL"))
	prefix := ""
	switch envType {
	case "LOCAL":
		prefix = "LOCAL_"
	case "SERVER":
		prefix = "SERVER_"
	default:
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	cascadeMode := getEnv("CASCADE_MODE", CascadeBestEffort)
	if cascadeMode != CascadeTransactional {
		cascadeMode = CascadeBestEffort
	}

	hashCost := getEnvAsInt("PASSWORD_HASH_COST", 12)
	if hashCost < 12 {
		hashCost = 12
	}

	return &Config{
		EnvType: envType,

		DBDriver:        strings.ToLower(getPrefixed(prefix, "DB_DRIVER", "postgres")),
		DBHost:          getPrefixed(prefix, "DB_HOST", "localhost"),
		DBUser:          getPrefixed(prefix, "DB_USER", "postgres"),
		DBPassword:      getPrefixed(prefix, "DB_PASSWORD", ""),
		DBName:          getPrefixed(prefix, "DB_NAME", "actrec_directory"),
		DBPort:          getPrefixed(prefix, "DB_PORT", "5432"),
		DBSSLMode:       getPrefixed(prefix, "DB_SSLMODE", "disable"),
		DBMigrationMode: getPrefixed(prefix, "DB_MIGRATION_MODE", "auto"),

		ServerPort:      getPrefixed(prefix, "SERVER_PORT", "8080"),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
		RateLimitRPS:    float64(getEnvAsInt("RATE_LIMIT_RPS", 20)),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),

		RedisHost:     getPrefixed(prefix, "REDIS_HOST", ""),
		RedisPort:     getPrefixed(prefix, "REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 60)) * time.Second,

		MQTTBrokerURL:   getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "actrec_directory"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:         getEnvAsInt("MQTT_QOS", 1),
		MQTTRetained:    getEnvAsBool("MQTT_RETAINED", false),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "actrec/directory"),

		JWTSecretKey: getEnv("JWT_SECRET_KEY", "actrec-directory-secret-change-in-production"),
		JWTTTL:       time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,

		PasswordHashCost: hashCost,

		DefaultInstitution: getEnv("DEFAULT_INSTITUTION", "ACTREC"),
		CascadeMode:        cascadeMode,
		BulkMaxConcurrency: getEnvAsInt("BULK_MAX_CONCURRENCY", 16),
		BulkMaxItems:       getEnvAsInt("BULK_MAX_ITEMS", 1000),

		BootstrapAdminEmail:     strings.ToLower(strings.TrimSpace(getEnv("BOOTSTRAP_ADMIN_EMAIL", ""))),
		BootstrapAdminName:      getEnv("BOOTSTRAP_ADMIN_NAME", "Directory Administrator"),
		BootstrapAdminExtension: getEnv("BOOTSTRAP_ADMIN_EXTENSION", "0000"),
		BootstrapAdminPassword:  getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.DBDriver == "mysql" {
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=UTC"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// GetMigrateURL returns the database URL golang-migrate expects
func (c *Config) GetMigrateURL() string {
	userinfo := url.UserPassword(c.DBUser, c.DBPassword).String()
	if c.DBDriver == "mysql" {
		return "mysql://" + userinfo + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?multiStatements=true"
	}
	return "postgres://" + userinfo + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// MQTTEnabled reports whether a broker is configured
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBrokerURL != ""
}

// getPrefixed prefers the environment-specific key and falls back to the bare key
func getPrefixed(prefix, key, defaultValue string) string {
	return getEnv(prefix+key, getEnv(key, defaultValue))
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
