package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/relayops/channelstore/pkg/channels"
	"github.com/relayops/channelstore/pkg/observability"
	"github.com/relayops/channelstore/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Storage configuration
	Storage storage.Config

	// Quota limits applied to every organization
	Limits channels.Limits

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds document-store connection settings. An empty URI
// selects the in-memory store, which does not survive a restart.
type DatabaseConfig struct {
	MongoURI       string
	MongoDatabase  string
	ConnectTimeout time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Storage:       loadStorageConfig(),
		Limits:        loadLimits(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CHANNELSTORE_HOST", "0.0.0.0"),
		Port:            getEnv("CHANNELSTORE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CHANNELSTORE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CHANNELSTORE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CHANNELSTORE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CHANNELSTORE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("CHANNELSTORE_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads document-store configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		MongoURI:       getEnv("CHANNELSTORE_MONGO_URI", ""),
		MongoDatabase:  getEnv("CHANNELSTORE_MONGO_DATABASE", "channelstore"),
		ConnectTimeout: getEnvDuration("CHANNELSTORE_MONGO_CONNECT_TIMEOUT", 10*time.Second),
	}
}

// loadStorageConfig loads blob-storage configuration from environment. The
// local backend is always available; an S3 location is registered when an
// endpoint or region is configured, under the name given by
// CHANNELSTORE_S3_LOCATION.
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if localRoot := getEnv("CHANNELSTORE_LOCAL_ROOT", ""); localRoot != "" {
		cfg.LocalRoot = localRoot
	}
	if localBucket := getEnv("CHANNELSTORE_LOCAL_BUCKET", ""); localBucket != "" {
		cfg.LocalBucket = localBucket
	}

	endpoint := getEnv("CHANNELSTORE_S3_ENDPOINT", "")
	region := getEnv("CHANNELSTORE_S3_REGION", "")
	if endpoint == "" && region == "" {
		return cfg
	}

	location := strings.ToLower(getEnv("CHANNELSTORE_S3_LOCATION", "s3"))
	cfg.Locations = map[string]storage.LocationConfig{
		location: {
			Bucket:       getEnv("CHANNELSTORE_S3_BUCKET", "channel-data"),
			Endpoint:     endpoint,
			Region:       region,
			AccessKey:    getEnv("CHANNELSTORE_S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("CHANNELSTORE_S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool("CHANNELSTORE_S3_USE_PATH_STYLE", false),
		},
	}
	cfg.DefaultLocation = strings.ToLower(getEnv("CHANNELSTORE_DEFAULT_LOCATION", location))

	return cfg
}

// loadLimits loads quota limits from environment
func loadLimits() channels.Limits {
	limits := channels.DefaultLimits()
	if maxChannels := getEnvInt("CHANNELSTORE_MAX_CHANNELS", 0); maxChannels > 0 {
		limits.MaxChannels = maxChannels
	}
	if maxVersions := getEnvInt("CHANNELSTORE_MAX_VERSIONS_PER_CHANNEL", 0); maxVersions > 0 {
		limits.MaxVersionsPerChannel = maxVersions
	}
	if maxSize := getEnvInt("CHANNELSTORE_MAX_VERSION_SIZE_MB", 0); maxSize > 0 {
		limits.MaxVersionSizeMB = maxSize
	}
	if concurrency := getEnvInt("CHANNELSTORE_DELETE_CONCURRENCY", 0); concurrency > 0 {
		limits.DeleteConcurrency = concurrency
	}
	return limits
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("CHANNELSTORE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("CHANNELSTORE_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Storage.LocalRoot == "" {
		return fmt.Errorf("local storage root is required")
	}
	if len(c.Storage.Locations) > 0 {
		if c.Storage.DefaultLocation == "" {
			return fmt.Errorf("a default location is required when S3 locations are configured")
		}
		if _, ok := c.Storage.Locations[c.Storage.DefaultLocation]; !ok {
			return fmt.Errorf("default location %q is not a configured location", c.Storage.DefaultLocation)
		}
	}

	if c.Limits.MaxChannels <= 0 {
		return fmt.Errorf("max channels must be positive")
	}
	if c.Limits.MaxVersionsPerChannel <= 0 {
		return fmt.Errorf("max versions per channel must be positive")
	}
	if c.Limits.MaxVersionSizeMB <= 0 {
		return fmt.Errorf("max version size must be positive")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
