package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/relayops/channelstore/pkg/observability"
)

var (
	// ErrInvalidPointer is returned when a serialized pointer cannot be
	// parsed or names an unknown format version or backend kind.
	ErrInvalidPointer = errors.New("invalid storage pointer")
	// ErrUnknownLocation is returned when a location is not present in the
	// configured location set.
	ErrUnknownLocation = errors.New("unknown storage location")
)

// Factory produces Storage Handles. It is the sole extension point for
// adding backend variants: new kinds extend the pointer tag switch in
// Deserialize and the construction in NewResourceHandler, never call sites.
type Factory struct {
	cfg     Config
	local   Backend
	remotes map[string]Backend
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewFactory builds the backend set from the configuration snapshot: one S3
// backend per configured location plus the local fallback.
func NewFactory(ctx context.Context, cfg Config, logger *observability.Logger, metrics *observability.Metrics) (*Factory, error) {
	local, err := NewLocalBackend(cfg.LocalRoot)
	if err != nil {
		return nil, err
	}

	remotes := make(map[string]Backend, len(cfg.Locations))
	for location, lc := range cfg.Locations {
		backend, err := NewS3Backend(ctx, location, lc)
		if err != nil {
			return nil, err
		}
		remotes[location] = backend
	}

	return newFactory(cfg, local, remotes, logger, metrics)
}

// NewFactoryWithBackends builds a factory over pre-constructed backends.
// Intended for dependency injection and backend stubs in tests.
func NewFactoryWithBackends(cfg Config, local Backend, remotes map[string]Backend, logger *observability.Logger, metrics *observability.Metrics) (*Factory, error) {
	if remotes == nil {
		remotes = map[string]Backend{}
	}
	return newFactory(cfg, local, remotes, logger, metrics)
}

func newFactory(cfg Config, local Backend, remotes map[string]Backend, logger *observability.Logger, metrics *observability.Metrics) (*Factory, error) {
	if cfg.LocalBucket == "" {
		cfg.LocalBucket = DefaultConfig().LocalBucket
	}
	if cfg.DefaultLocation != "" {
		if _, ok := remotes[cfg.DefaultLocation]; !ok {
			return nil, fmt.Errorf("%w: default location %q", ErrUnknownLocation, cfg.DefaultLocation)
		}
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Factory{
		cfg:     cfg,
		local:   local,
		remotes: remotes,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// DefaultLocation returns the location new writes route to when a channel
// has none. Empty means the local backend.
func (f *Factory) DefaultLocation() string { return f.cfg.DefaultLocation }

// HasLocations reports whether any object-store locations are configured.
func (f *Factory) HasLocations() bool { return len(f.remotes) > 0 }

// HasLocation reports whether the named location is configured.
func (f *Factory) HasLocation(location string) bool {
	_, ok := f.remotes[strings.ToLower(location)]
	return ok
}

// Locations lists the configured location identifiers, sorted.
func (f *Factory) Locations() []string {
	out := make([]string, 0, len(f.remotes))
	for location := range f.remotes {
		out = append(out, location)
	}
	sort.Strings(out)
	return out
}

// ChannelBucket resolves the bucket new content for the given location is
// written to. The local bucket serves the empty location.
func (f *Factory) ChannelBucket(location string) string {
	if lc, ok := f.cfg.Locations[strings.ToLower(location)]; ok {
		return lc.Bucket
	}
	return f.cfg.LocalBucket
}

// NewResourceHandler allocates a fresh write-path handle bound to the backend
// serving the given location. An empty location selects the local backend.
func (f *Factory) NewResourceHandler(path, bucket, location string) (*Handle, error) {
	location = strings.ToLower(location)
	if location == "" {
		return f.newHandle(KindLocal, "", bucket, path, f.local), nil
	}
	backend, ok := f.remotes[location]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}
	return f.newHandle(KindS3, location, bucket, path, backend), nil
}

// Deserialize reconstructs a handle purely from a previously serialized
// pointer. Backend selection comes from the pointer metadata, never from the
// current default location, so historical content stays readable after
// configuration changes.
func (f *Factory) Deserialize(serialized string) (*Handle, error) {
	var p pointer
	if err := json.Unmarshal([]byte(serialized), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPointer, err)
	}
	if p.Version != pointerVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidPointer, p.Version)
	}

	switch p.Kind {
	case KindLocal:
		return f.newHandle(KindLocal, "", p.Bucket, p.Path, f.local), nil
	case KindS3:
		backend, ok := f.remotes[p.Location]
		if !ok {
			return nil, fmt.Errorf("%w: %q referenced by stored pointer", ErrUnknownLocation, p.Location)
		}
		return f.newHandle(KindS3, p.Location, p.Bucket, p.Path, backend), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend kind %q", ErrInvalidPointer, p.Kind)
	}
}

func (f *Factory) newHandle(kind Kind, location, bucket, path string, backend Backend) *Handle {
	return &Handle{
		kind:     kind,
		location: location,
		bucket:   bucket,
		path:     path,
		backend:  backend,
		logger:   f.logger,
		metrics:  f.metrics,
	}
}
