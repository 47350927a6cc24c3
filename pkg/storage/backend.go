package storage

import (
	"context"
	"errors"
)

// Kind discriminates the backend variant recorded in a serialized pointer.
type Kind string

const (
	// KindLocal stores blobs on the local filesystem.
	KindLocal Kind = "local"
	// KindS3 stores blobs in an S3-compatible object store.
	KindS3 Kind = "s3"
)

// ErrBlobNotFound is returned by Get when no blob exists at the requested
// bucket/path.
var ErrBlobNotFound = errors.New("blob not found")

// Backend physically stores opaque blobs addressed by a path within a named
// bucket. Implementations must make Delete idempotent: deleting a missing
// object is not an error.
type Backend interface {
	// Kind identifies the backend variant.
	Kind() Kind
	// Put writes the blob, replacing any existing content at the address.
	Put(ctx context.Context, bucket, path string, data []byte) error
	// Get reads the blob back, or ErrBlobNotFound if it is absent.
	Get(ctx context.Context, bucket, path string) ([]byte, error)
	// Delete removes the blob if present.
	Delete(ctx context.Context, bucket, path string) error
}

// LocationConfig describes one named object-store location.
type LocationConfig struct {
	Bucket       string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Config is the storage routing configuration: the location→bucket map, a
// default location for new writes, and the local fallback used when no
// locations are configured. It is an immutable snapshot; the factory never
// consults ambient state after construction.
type Config struct {
	// LocalRoot is the root directory of the local backend.
	LocalRoot string
	// LocalBucket names the bucket used for locally stored blobs.
	LocalBucket string
	// DefaultLocation routes new writes when a channel has no data location.
	// Empty selects the local backend.
	DefaultLocation string
	// Locations maps location identifiers to object-store settings.
	Locations map[string]LocationConfig
}

// DefaultConfig returns the local-only fallback configuration.
func DefaultConfig() Config {
	return Config{
		LocalRoot:   "/var/lib/channelstore",
		LocalBucket: "channel-data",
	}
}
