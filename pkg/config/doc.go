// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	CHANNELSTORE_HOST="0.0.0.0"
//	CHANNELSTORE_PORT="8080"
//	CHANNELSTORE_HEALTH_PORT="9090"
//	CHANNELSTORE_READ_TIMEOUT="15s"
//	CHANNELSTORE_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	CHANNELSTORE_MONGO_URI="mongodb://localhost:27017"
//	CHANNELSTORE_MONGO_DATABASE="channelstore"
//
// Storage settings:
//
//	CHANNELSTORE_LOCAL_ROOT="/var/lib/channelstore"
//	CHANNELSTORE_LOCAL_BUCKET="channel-data"
//	CHANNELSTORE_S3_LOCATION="useast"
//	CHANNELSTORE_S3_ENDPOINT="https://s3.us-east-1.amazonaws.com"
//	CHANNELSTORE_S3_REGION="us-east-1"
//	CHANNELSTORE_S3_BUCKET="channel-data"
//
// Quota settings:
//
//	CHANNELSTORE_MAX_CHANNELS="100"
//	CHANNELSTORE_MAX_VERSIONS_PER_CHANNEL="1000"
//	CHANNELSTORE_MAX_VERSION_SIZE_MB="3"
//	CHANNELSTORE_DELETE_CONCURRENCY="5"
//
// Observability settings:
//
//	CHANNELSTORE_LOG_LEVEL="info"  # debug, info, warn, error
//	CHANNELSTORE_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/channels: Uses quota limits
//   - pkg/observability: Uses observability configuration
package config
