package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/channelstore/pkg/observability"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)

	assert.Empty(t, cfg.Database.MongoURI)
	assert.Equal(t, "channelstore", cfg.Database.MongoDatabase)

	assert.Equal(t, "/var/lib/channelstore", cfg.Storage.LocalRoot)
	assert.Equal(t, "channel-data", cfg.Storage.LocalBucket)
	assert.Empty(t, cfg.Storage.Locations)

	assert.Equal(t, 100, cfg.Limits.MaxChannels)
	assert.Equal(t, 1000, cfg.Limits.MaxVersionsPerChannel)
	assert.Equal(t, 3, cfg.Limits.MaxVersionSizeMB)
	assert.Equal(t, 5, cfg.Limits.DeleteConcurrency)

	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHANNELSTORE_PORT", "9999")
	t.Setenv("CHANNELSTORE_MONGO_URI", "mongodb://db:27017")
	t.Setenv("CHANNELSTORE_MAX_CHANNELS", "25")
	t.Setenv("CHANNELSTORE_LOG_LEVEL", "debug")
	t.Setenv("CHANNELSTORE_S3_ENDPOINT", "https://minio:9000")
	t.Setenv("CHANNELSTORE_S3_REGION", "us-east-1")
	t.Setenv("CHANNELSTORE_S3_LOCATION", "UsEast")
	t.Setenv("CHANNELSTORE_S3_BUCKET", "razee-blobs")
	t.Setenv("CHANNELSTORE_S3_USE_PATH_STYLE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Database.MongoURI)
	assert.Equal(t, 25, cfg.Limits.MaxChannels)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)

	// Location names normalize to lower case.
	require.Contains(t, cfg.Storage.Locations, "useast")
	loc := cfg.Storage.Locations["useast"]
	assert.Equal(t, "https://minio:9000", loc.Endpoint)
	assert.Equal(t, "razee-blobs", loc.Bucket)
	assert.True(t, loc.UsePathStyle)
	assert.Equal(t, "useast", cfg.Storage.DefaultLocation)
}

func TestValidateRejectsPortCollision(t *testing.T) {
	t.Setenv("CHANNELSTORE_PORT", "8080")
	t.Setenv("CHANNELSTORE_HEALTH_PORT", "8080")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")
}

func TestValidateRejectsZeroQuota(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Limits.MaxChannels = 0
	assert.Error(t, cfg.Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CHANNELSTORE_TEST_STR", "custom")
	t.Setenv("CHANNELSTORE_TEST_INT", "42")
	t.Setenv("CHANNELSTORE_TEST_BAD_INT", "nope")
	t.Setenv("CHANNELSTORE_TEST_DUR", "90s")
	t.Setenv("CHANNELSTORE_TEST_BOOL", "1")

	assert.Equal(t, "custom", getEnv("CHANNELSTORE_TEST_STR", "default"))
	assert.Equal(t, "default", getEnv("CHANNELSTORE_TEST_UNSET", "default"))
	assert.Equal(t, 42, getEnvInt("CHANNELSTORE_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("CHANNELSTORE_TEST_BAD_INT", 7))
	assert.Equal(t, 90*time.Second, getEnvDuration("CHANNELSTORE_TEST_DUR", time.Second))
	assert.True(t, getEnvBool("CHANNELSTORE_TEST_BOOL", false))
}
