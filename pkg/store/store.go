package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint (org name, channel name within org, version name within
	// channel).
	ErrDuplicate = errors.New("duplicate document")
)

// OrganizationStore provides keyed access to Organization documents.
type OrganizationStore interface {
	GetOrg(ctx context.Context, id string) (*Organization, error)
	GetOrgByName(ctx context.Context, name string) (*Organization, error)
	CreateOrg(ctx context.Context, org *Organization) error
}

// ChannelStore provides keyed access to Channel documents and their cached
// VersionRef index. Index mutations are single atomic document updates.
type ChannelStore interface {
	GetChannel(ctx context.Context, orgID, uuid string) (*Channel, error)
	GetChannelByName(ctx context.Context, orgID, name string) (*Channel, error)
	ListChannels(ctx context.Context, orgID string) ([]*Channel, error)
	ListChannelsByTags(ctx context.Context, orgID string, tags []string) ([]*Channel, error)
	CountChannels(ctx context.Context, orgID string) (int64, error)
	CreateChannel(ctx context.Context, channel *Channel) error
	UpdateChannelMeta(ctx context.Context, orgID, uuid, name, dataLocation string, tags []string) error
	AddVersionRef(ctx context.Context, orgID, channelUUID string, ref VersionRef) error
	RemoveVersionRef(ctx context.Context, orgID, channelUUID, versionUUID string) error
	DeleteChannel(ctx context.Context, orgID, uuid string) error
}

// VersionStore provides keyed access to the authoritative DeployableVersion
// records.
type VersionStore interface {
	GetVersion(ctx context.Context, orgID, uuid string) (*DeployableVersion, error)
	GetChannelVersion(ctx context.Context, orgID, channelUUID, versionUUID string) (*DeployableVersion, error)
	GetVersionByName(ctx context.Context, orgID, channelUUID, name string) (*DeployableVersion, error)
	ListVersions(ctx context.Context, orgID, channelUUID string) ([]*DeployableVersion, error)
	CountVersions(ctx context.Context, orgID, channelUUID string) (int64, error)
	CreateVersion(ctx context.Context, version *DeployableVersion) error
	DeleteVersion(ctx context.Context, orgID, uuid string) error
	DeleteChannelVersions(ctx context.Context, orgID, channelUUID string) error
	SetVersionChannelName(ctx context.Context, orgID, channelUUID, channelName string) error
}

// SubscriptionStore exposes subscriptions as referential constraints plus
// the rename broadcast. Note the service-subscription counts are not
// org-scoped: a channel may be consumed across organizations.
type SubscriptionStore interface {
	CountSubscriptionsForChannel(ctx context.Context, orgID, channelUUID string) (int64, error)
	CountSubscriptionsForVersion(ctx context.Context, orgID, versionUUID string) (int64, error)
	SetSubscriptionChannelName(ctx context.Context, orgID, channelUUID, channelName string) error
	CreateSubscription(ctx context.Context, sub *Subscription) error
	DeleteSubscription(ctx context.Context, orgID, uuid string) error

	CountServiceSubscriptionsForChannel(ctx context.Context, channelUUID string) (int64, error)
	CountServiceSubscriptionsForVersion(ctx context.Context, versionUUID string) (int64, error)
	CreateServiceSubscription(ctx context.Context, sub *ServiceSubscription) error
	DeleteServiceSubscription(ctx context.Context, uuid string) error
}

// Store composes the document-store capabilities consumed by the lifecycle
// manager.
type Store interface {
	OrganizationStore
	ChannelStore
	VersionStore
	SubscriptionStore
}
