package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/relayops/channelstore/pkg/auth"
	"github.com/relayops/channelstore/pkg/encryption"
	"github.com/relayops/channelstore/pkg/observability"
	"github.com/relayops/channelstore/pkg/orgs"
	"github.com/relayops/channelstore/pkg/storage"
	"github.com/relayops/channelstore/pkg/store"
)

// Limits is the per-tenant quota snapshot consumed by the lifecycle
// manager. It is read at construction time and never refreshed.
type Limits struct {
	// MaxChannels caps live channels per organization.
	MaxChannels int
	// MaxVersionsPerChannel caps live versions per (org, channel).
	MaxVersionsPerChannel int
	// MaxVersionSizeMB caps the YAML payload size in megabytes.
	MaxVersionSizeMB int
	// DeleteConcurrency bounds simultaneous blob deletions during channel
	// removal.
	DeleteConcurrency int
}

// DefaultLimits returns the stock limit set.
func DefaultLimits() Limits {
	return Limits{
		MaxChannels:           100,
		MaxVersionsPerChannel: 1000,
		MaxVersionSizeMB:      3,
		DeleteConcurrency:     5,
	}
}

// ChannelVersion is the decrypted read-back view of a version. Content is
// the plaintext payload, byte-identical to what was written.
type ChannelVersion struct {
	UUID        string    `json:"uuid"`
	ChannelID   string    `json:"channelId"`
	ChannelName string    `json:"channelName"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Content     []byte    `json:"content"`
	Created     time.Time `json:"created"`
}

// VersionQuery locates a version by channel uuid or name plus version uuid
// or name. Name lookups resolve to a uuid before any further join.
type VersionQuery struct {
	ChannelUUID string
	ChannelName string
	VersionUUID string
	VersionName string
}

// Service is the channel/version lifecycle manager. It enforces quotas,
// uniqueness and size limits on write, referential-integrity gates on
// delete, and the blob/record ordering contracts that keep the two storage
// systems consistent.
type Service struct {
	store   store.Store
	factory *storage.Factory
	auth    auth.Authorizer
	limits  Limits
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates a lifecycle manager. metrics may be nil.
func NewService(s store.Store, factory *storage.Factory, authorizer auth.Authorizer, limits Limits, logger *observability.Logger, metrics *observability.Metrics) *Service {
	if limits.DeleteConcurrency <= 0 {
		limits.DeleteConcurrency = DefaultLimits().DeleteConcurrency
	}
	return &Service{
		store:   s,
		factory: factory,
		auth:    authorizer,
		limits:  limits,
		logger:  logger,
		metrics: metrics,
	}
}

// AddChannel creates an empty channel. The data location, when supplied,
// must be a member of the configured location set; when absent it defaults
// to the factory's default location.
func (s *Service) AddChannel(ctx context.Context, subject, orgID, name, dataLocation string, tags []string) (*store.Channel, error) {
	s.logger.WithFields(map[string]any{"org_id": orgID, "name": name}).Debug("addChannel enter")

	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionCreate, auth.TypeChannel); err != nil {
		return nil, err
	}

	channel, err := s.addChannel(ctx, orgID, name, dataLocation, tags)
	s.metrics.ObserveLifecycleOp("addChannel", ErrorCategory(err))
	return channel, err
}

func (s *Service) addChannel(ctx context.Context, orgID, name, dataLocation string, tags []string) (*store.Channel, error) {
	if name == "" {
		return nil, validationErrorf("a channel name must be specified")
	}

	dataLocation = strings.ToLower(dataLocation)
	if s.factory.HasLocations() {
		if dataLocation != "" && !s.factory.HasLocation(dataLocation) {
			return nil, validationErrorf("the data location %q is not valid, allowed values: [%s]",
				dataLocation, strings.Join(s.factory.Locations(), " "))
		}
		if dataLocation == "" {
			dataLocation = s.factory.DefaultLocation()
		}
	} else {
		dataLocation = ""
	}

	if _, err := s.store.GetChannelByName(ctx, orgID, name); err == nil {
		return nil, validationErrorf("the channel name %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, &BackendError{Op: "addChannel", Err: err}
	}

	total, err := s.store.CountChannels(ctx, orgID)
	if err != nil {
		return nil, &BackendError{Op: "addChannel", Err: err}
	}
	if total >= int64(s.limits.MaxChannels) {
		return nil, &QuotaExceededError{Resource: "channels", Current: total, Limit: int64(s.limits.MaxChannels)}
	}

	now := time.Now()
	channel := &store.Channel{
		ID:           uuid.New().String(),
		OrgID:        orgID,
		UUID:         uuid.New().String(),
		Name:         name,
		Tags:         tags,
		DataLocation: dataLocation,
		Versions:     []store.VersionRef{},
		Created:      now,
		Updated:      now,
	}
	if err := s.store.CreateChannel(ctx, channel); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost the unique-index race to a concurrent creator.
			return nil, validationErrorf("the channel name %q already exists", name)
		}
		return nil, &BackendError{Op: "addChannel", Err: err}
	}
	return channel, nil
}

// EditChannel renames a channel and/or changes its data location and tags,
// then broadcasts the new name to the denormalized channelName fields on
// dependent subscriptions and versions. The broadcast is best-effort and
// not transactional with the rename.
func (s *Service) EditChannel(ctx context.Context, subject, orgID, channelUUID, name, dataLocation string, tags []string) error {
	s.logger.WithFields(map[string]any{"org_id": orgID, "uuid": channelUUID, "name": name}).Debug("editChannel enter")

	err := s.editChannel(ctx, subject, orgID, channelUUID, name, dataLocation, tags)
	s.metrics.ObserveLifecycleOp("editChannel", ErrorCategory(err))
	return err
}

func (s *Service) editChannel(ctx context.Context, subject, orgID, channelUUID, name, dataLocation string, tags []string) error {
	channel, err := s.store.GetChannel(ctx, orgID, channelUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Resource: "channel", ID: channelUUID}
		}
		return &BackendError{Op: "editChannel", Err: err}
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionUpdate, auth.TypeChannel, channel.UUID, channel.Name); err != nil {
		return err
	}

	dataLocation = strings.ToLower(dataLocation)
	if dataLocation != "" && !s.factory.HasLocation(dataLocation) {
		return validationErrorf("the data location %q is not valid, allowed values: [%s]",
			dataLocation, strings.Join(s.factory.Locations(), " "))
	}

	if err := s.store.UpdateChannelMeta(ctx, orgID, channelUUID, name, dataLocation, tags); err != nil {
		return &BackendError{Op: "editChannel", Err: err}
	}

	if name != "" && name != channel.Name {
		if err := s.store.SetSubscriptionChannelName(ctx, orgID, channelUUID, name); err != nil {
			s.logger.WithError(err).WithField("uuid", channelUUID).Warn("subscription channelName broadcast failed")
		}
		if err := s.store.SetVersionChannelName(ctx, orgID, channelUUID, name); err != nil {
			s.logger.WithError(err).WithField("uuid", channelUUID).Warn("version channelName broadcast failed")
		}
	}
	return nil
}

// GetChannel fetches a channel by uuid.
func (s *Service) GetChannel(ctx context.Context, subject, orgID, channelUUID string) (*store.Channel, error) {
	channel, err := s.store.GetChannel(ctx, orgID, channelUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "channel", ID: channelUUID}
		}
		return nil, &BackendError{Op: "getChannel", Err: err}
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionRead, auth.TypeChannel, channel.UUID, channel.Name); err != nil {
		return nil, err
	}
	return channel, nil
}

// GetChannelByName fetches a channel by its tenant-unique name.
func (s *Service) GetChannelByName(ctx context.Context, subject, orgID, name string) (*store.Channel, error) {
	channel, err := s.store.GetChannelByName(ctx, orgID, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "channel", ID: name}
		}
		return nil, &BackendError{Op: "getChannelByName", Err: err}
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionRead, auth.TypeChannel, channel.UUID, channel.Name); err != nil {
		return nil, err
	}
	return channel, nil
}

// ListChannels lists all channels of the organization.
func (s *Service) ListChannels(ctx context.Context, subject, orgID string) ([]*store.Channel, error) {
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionRead, auth.TypeChannel); err != nil {
		return nil, err
	}
	channels, err := s.store.ListChannels(ctx, orgID)
	if err != nil {
		return nil, &BackendError{Op: "listChannels", Err: err}
	}
	return channels, nil
}

// ListChannelsByTags lists channels carrying every supplied tag. At least
// one tag is required.
func (s *Service) ListChannelsByTags(ctx context.Context, subject, orgID string, tags []string) ([]*store.Channel, error) {
	if len(tags) < 1 {
		return nil, validationErrorf("please supply one or more tags")
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionRead, auth.TypeChannel); err != nil {
		return nil, err
	}
	channels, err := s.store.ListChannelsByTags(ctx, orgID, tags)
	if err != nil {
		return nil, &BackendError{Op: "listChannelsByTags", Err: err}
	}
	return channels, nil
}

// AddChannelVersion validates and persists a new version: the encrypted
// blob is committed to the backend before the database record and the
// channel's VersionRef index are updated, so a mid-flight failure can
// orphan a blob but never leave a record pointing at missing content.
func (s *Service) AddChannelVersion(ctx context.Context, subject, orgID, channelUUID, name, contentType string, content []byte, description string) (*store.DeployableVersion, error) {
	s.logger.WithFields(map[string]any{
		"org_id": orgID, "channel_uuid": channelUUID, "name": name, "type": contentType,
	}).Debug("addChannelVersion enter")

	version, err := s.addChannelVersion(ctx, subject, orgID, channelUUID, name, contentType, content, description)
	s.metrics.ObserveLifecycleOp("addChannelVersion", ErrorCategory(err))
	return version, err
}

func (s *Service) addChannelVersion(ctx context.Context, subject, orgID, channelUUID, name, contentType string, content []byte, description string) (*store.DeployableVersion, error) {
	org, err := s.store.GetOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "organization", ID: orgID}
		}
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	orgKey, err := orgs.ActiveOrgKey(org)
	if err != nil {
		return nil, err
	}

	if name == "" {
		return nil, validationErrorf("a name must be specified")
	}
	if contentType != "yaml" && contentType != "application/yaml" {
		return nil, validationErrorf("a type of application/yaml must be specified")
	}
	if channelUUID == "" {
		return nil, validationErrorf("a channel uuid must be specified")
	}
	if len(content) == 0 {
		return nil, validationErrorf("content must be specified")
	}

	channel, err := s.store.GetChannel(ctx, orgID, channelUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "channel", ID: channelUUID}
		}
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionManageVersion, auth.TypeChannel, channel.UUID, channel.Name); err != nil {
		return nil, err
	}

	if _, err := s.store.GetVersionByName(ctx, orgID, channelUUID, name); err == nil {
		return nil, validationErrorf("the version name %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}

	total, err := s.store.CountVersions(ctx, orgID, channelUUID)
	if err != nil {
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	if total >= int64(s.limits.MaxVersionsPerChannel) {
		return nil, &QuotaExceededError{Resource: "channel versions", Current: total, Limit: int64(s.limits.MaxVersionsPerChannel)}
	}

	maxBytes := s.limits.MaxVersionSizeMB * 1024 * 1024
	if len(content) > maxBytes {
		return nil, validationErrorf("YAML content size should not be more than %dmb", s.limits.MaxVersionSizeMB)
	}
	if err := validateYAML(content); err != nil {
		return nil, validationErrorf("provided YAML content is not valid: %v", err)
	}

	// All preconditions hold; the blob write is the first destructive step.
	path := fmt.Sprintf("%s-%s-%s", strings.ToLower(orgID), channel.UUID, name)
	bucket := s.factory.ChannelBucket(channel.DataLocation)
	handler, err := s.factory.NewResourceHandler(path, bucket, channel.DataLocation)
	if err != nil {
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	iv, err := handler.SetDataAndEncrypt(ctx, content, orgKey)
	if err != nil {
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	pointer, err := handler.Serialize()
	if err != nil {
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	s.metrics.ObserveContentSize(len(content))

	now := time.Now()
	version := &store.DeployableVersion{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		UUID:        uuid.New().String(),
		ChannelID:   channel.UUID,
		ChannelName: channel.Name,
		Name:        name,
		Description: description,
		Type:        contentType,
		Content:     pointer,
		IV:          iv,
		Created:     now,
		Updated:     now,
	}
	// A failure past this point orphans the blob, which is inert and
	// reclaimable; the record is only visible once both writes land.
	if err := s.store.CreateVersion(ctx, version); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, validationErrorf("the version name %q already exists", name)
		}
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	ref := store.VersionRef{UUID: version.UUID, Name: name, Created: now}
	if err := s.store.AddVersionRef(ctx, orgID, channel.UUID, ref); err != nil {
		return nil, &BackendError{Op: "addChannelVersion", Err: err}
	}
	return version, nil
}

// GetChannelVersion resolves a version by uuid or name and returns its
// decrypted content. Name lookups resolve through the channel's VersionRef
// index to a uuid first; the name is never joined against the version store
// directly.
func (s *Service) GetChannelVersion(ctx context.Context, subject, orgID string, query VersionQuery) (*ChannelVersion, error) {
	s.logger.WithFields(map[string]any{
		"org_id": orgID, "channel_uuid": query.ChannelUUID, "version_uuid": query.VersionUUID,
	}).Debug("channelVersion enter")

	org, err := s.store.GetOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "organization", ID: orgID}
		}
		return nil, &BackendError{Op: "channelVersion", Err: err}
	}
	orgKey, err := orgs.ActiveOrgKey(org)
	if err != nil {
		return nil, err
	}

	var channel *store.Channel
	if query.ChannelName != "" {
		channel, err = s.store.GetChannelByName(ctx, orgID, query.ChannelName)
	} else {
		channel, err = s.store.GetChannel(ctx, orgID, query.ChannelUUID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "channel", ID: query.ChannelUUID + query.ChannelName}
		}
		return nil, &BackendError{Op: "channelVersion", Err: err}
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionRead, auth.TypeChannel, channel.UUID, channel.Name); err != nil {
		return nil, err
	}

	var ref *store.VersionRef
	for i := range channel.Versions {
		v := &channel.Versions[i]
		if v.UUID == query.VersionUUID || (query.VersionName != "" && v.Name == query.VersionName) {
			ref = v
			break
		}
	}
	if ref == nil {
		return nil, &NotFoundError{Resource: "version", ID: query.VersionUUID + query.VersionName}
	}

	version, err := s.store.GetChannelVersion(ctx, orgID, channel.UUID, ref.UUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "version", ID: ref.UUID}
		}
		return nil, &BackendError{Op: "channelVersion", Err: err}
	}

	handler, err := s.factory.Deserialize(version.Content)
	if err != nil {
		return nil, &BackendError{Op: "channelVersion", Err: err}
	}
	content, err := handler.GetDataAndDecrypt(ctx, orgKey, version.IV)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBlobNotFound):
			return nil, &NotFoundError{Resource: "version content", ID: ref.UUID}
		case errors.Is(err, encryption.ErrDecryptionFailed):
			// Collapsed into a generic validation failure; the caller must
			// not learn which cryptographic detail failed.
			return nil, validationErrorf("unable to read content for version %q", ref.UUID)
		default:
			return nil, &BackendError{Op: "channelVersion", Err: err}
		}
	}

	return &ChannelVersion{
		UUID:        version.UUID,
		ChannelID:   version.ChannelID,
		ChannelName: version.ChannelName,
		Name:        version.Name,
		Description: version.Description,
		Type:        version.Type,
		Content:     content,
		Created:     version.Created,
	}, nil
}

// RemoveChannelVersion deletes one version: blob first, then the record,
// then the VersionRef index entry. Subscriptions referencing the version
// block the removal.
func (s *Service) RemoveChannelVersion(ctx context.Context, subject, orgID, versionUUID string) error {
	s.logger.WithFields(map[string]any{"org_id": orgID, "uuid": versionUUID}).Debug("removeChannelVersion enter")

	err := s.removeChannelVersion(ctx, subject, orgID, versionUUID)
	s.metrics.ObserveLifecycleOp("removeChannelVersion", ErrorCategory(err))
	return err
}

func (s *Service) removeChannelVersion(ctx context.Context, subject, orgID, versionUUID string) error {
	version, err := s.store.GetVersion(ctx, orgID, versionUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Resource: "version", ID: versionUUID}
		}
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}

	subCount, err := s.store.CountSubscriptionsForVersion(ctx, orgID, versionUUID)
	if err != nil {
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}
	if subCount > 0 {
		return validationErrorf("%d subscription(s) depend on this channel version, please update/remove them before removing it", subCount)
	}
	svcSubCount, err := s.store.CountServiceSubscriptionsForVersion(ctx, versionUUID)
	if err != nil {
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}
	if svcSubCount > 0 {
		return validationErrorf("%d service subscription(s) depend on this channel version, please update/remove them before removing it", svcSubCount)
	}

	channel, err := s.store.GetChannel(ctx, orgID, version.ChannelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Resource: "channel", ID: version.ChannelID}
		}
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionManageVersion, auth.TypeChannel, channel.UUID, channel.Name); err != nil {
		return err
	}

	found := false
	for _, ref := range channel.Versions {
		if ref.UUID == versionUUID {
			found = true
			break
		}
	}
	if !found {
		return &NotFoundError{Resource: "version", ID: versionUUID}
	}

	// Blob first, then record, then index entry: the mirror of the write
	// ordering, so the index never names a version whose blob still exists
	// unindexed, nor a record whose blob is unaccounted for.
	handler, err := s.factory.Deserialize(version.Content)
	if err != nil {
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}
	if err := handler.DeleteData(ctx); err != nil {
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}
	if err := s.store.DeleteVersion(ctx, orgID, versionUUID); err != nil {
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}
	if err := s.store.RemoveVersionRef(ctx, orgID, channel.UUID, versionUUID); err != nil {
		return &BackendError{Op: "removeChannelVersion", Err: err}
	}
	return nil
}

// RemoveChannel deletes a channel and everything it owns. Any subscription
// or service subscription referencing the channel blocks the removal. Blob
// deletion fans out with bounded concurrency; all outcomes are collected
// before any database record is touched, and any blob failure aborts the
// removal with the aggregate error.
func (s *Service) RemoveChannel(ctx context.Context, subject, orgID, channelUUID string) error {
	s.logger.WithFields(map[string]any{"org_id": orgID, "uuid": channelUUID}).Debug("removeChannel enter")

	err := s.removeChannel(ctx, subject, orgID, channelUUID)
	s.metrics.ObserveLifecycleOp("removeChannel", ErrorCategory(err))
	return err
}

func (s *Service) removeChannel(ctx context.Context, subject, orgID, channelUUID string) error {
	channel, err := s.store.GetChannel(ctx, orgID, channelUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Resource: "channel", ID: channelUUID}
		}
		return &BackendError{Op: "removeChannel", Err: err}
	}
	if err := s.auth.ValidAuth(ctx, subject, orgID, auth.ActionDelete, auth.TypeChannel, channel.UUID, channel.Name); err != nil {
		return err
	}

	subCount, err := s.store.CountSubscriptionsForChannel(ctx, orgID, channelUUID)
	if err != nil {
		return &BackendError{Op: "removeChannel", Err: err}
	}
	if subCount > 0 {
		return validationErrorf("%d subscription(s) depend on this channel, please update/remove them before removing it", subCount)
	}
	svcSubCount, err := s.store.CountServiceSubscriptionsForChannel(ctx, channelUUID)
	if err != nil {
		return &BackendError{Op: "removeChannel", Err: err}
	}
	if svcSubCount > 0 {
		return validationErrorf("%d service subscription(s) depend on this channel, please update/remove them before removing it", svcSubCount)
	}

	versions, err := s.store.ListVersions(ctx, orgID, channelUUID)
	if err != nil {
		return &BackendError{Op: "removeChannel", Err: err}
	}

	// Bounded fan-out over independent blob deletes. A failure in one does
	// not cancel the others; every outcome is collected.
	var (
		mu     sync.Mutex
		merged *multierror.Error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.limits.DeleteConcurrency)
	for _, version := range versions {
		g.Go(func() error {
			handler, err := s.factory.Deserialize(version.Content)
			if err == nil {
				err = handler.DeleteData(ctx)
			}
			if err != nil {
				mu.Lock()
				merged = multierror.Append(merged, fmt.Errorf("version %s: %w", version.UUID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := merged.ErrorOrNil(); err != nil {
		return &BackendError{Op: "removeChannel", Err: err}
	}

	if err := s.store.DeleteChannelVersions(ctx, orgID, channelUUID); err != nil {
		return &BackendError{Op: "removeChannel", Err: err}
	}
	if err := s.store.DeleteChannel(ctx, orgID, channelUUID); err != nil {
		return &BackendError{Op: "removeChannel", Err: err}
	}
	return nil
}
