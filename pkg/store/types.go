package store

import "time"

// Organization is the tenant root. OrgKeys is ordered; index 0 is the active
// encryption key. Keys are issued at creation and never rotated here.
type Organization struct {
	ID      string    `json:"id" bson:"_id"`
	Name    string    `json:"name" bson:"name"`
	OrgKeys []string  `json:"-" bson:"orgKeys"`
	Created time.Time `json:"created" bson:"created"`
	Updated time.Time `json:"updated" bson:"updated"`
}

// ActiveKey returns the organization's active encryption key, or false when
// no keys exist.
func (o *Organization) ActiveKey() (string, bool) {
	if len(o.OrgKeys) == 0 {
		return "", false
	}
	return o.OrgKeys[0], true
}

// VersionRef is the lightweight index entry cached on a Channel. It is
// mutated in lockstep with the authoritative DeployableVersion records.
type VersionRef struct {
	UUID    string    `json:"uuid" bson:"uuid"`
	Name    string    `json:"name" bson:"name"`
	Created time.Time `json:"created" bson:"created"`
}

// Channel is a named, versioned configuration container scoped to one
// organization. Name is unique within the org. DataLocation selects the
// storage backend new content is written to; empty means the default.
type Channel struct {
	ID           string       `json:"id" bson:"_id"`
	OrgID        string       `json:"orgId" bson:"org_id"`
	UUID         string       `json:"uuid" bson:"uuid"`
	Name         string       `json:"name" bson:"name"`
	Tags         []string     `json:"tags" bson:"tags"`
	DataLocation string       `json:"dataLocation" bson:"data_location"`
	Versions     []VersionRef `json:"versions" bson:"versions"`
	Created      time.Time    `json:"created" bson:"created"`
	Updated      time.Time    `json:"updated" bson:"updated"`
}

// DeployableVersion is one immutable content revision of a channel. Content
// holds the serialized storage pointer, never the payload itself; IV is the
// base64 initialization vector recorded at encryption time.
type DeployableVersion struct {
	ID          string    `json:"id" bson:"_id"`
	OrgID       string    `json:"orgId" bson:"org_id"`
	UUID        string    `json:"uuid" bson:"uuid"`
	ChannelID   string    `json:"channelId" bson:"channel_id"`
	ChannelName string    `json:"channelName" bson:"channel_name"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Type        string    `json:"type" bson:"type"`
	Content     string    `json:"-" bson:"content"`
	IV          string    `json:"-" bson:"iv"`
	Created     time.Time `json:"created" bson:"created"`
	Updated     time.Time `json:"updated" bson:"updated"`
}

// Subscription binds a cluster group to a channel version. The lifecycle
// manager treats subscriptions as read-only referential constraints, except
// for propagating channel renames into the denormalized ChannelName.
type Subscription struct {
	ID          string    `json:"id" bson:"_id"`
	OrgID       string    `json:"orgId" bson:"org_id"`
	UUID        string    `json:"uuid" bson:"uuid"`
	Name        string    `json:"name" bson:"name"`
	Groups      []string  `json:"groups" bson:"groups"`
	ChannelUUID string    `json:"channelUuid" bson:"channel_uuid"`
	ChannelName string    `json:"channelName" bson:"channelName"`
	Version     string    `json:"version" bson:"version"`
	VersionUUID string    `json:"versionUuid" bson:"version_uuid"`
	Created     time.Time `json:"created" bson:"created"`
	Updated     time.Time `json:"updated" bson:"updated"`
}

// ServiceSubscription targets a cluster in another organization; its channel
// and version references are not org-scoped when counted as delete blockers.
type ServiceSubscription struct {
	ID           string    `json:"id" bson:"_id"`
	OrgID        string    `json:"orgId" bson:"org_id"`
	ClusterOrgID string    `json:"clusterOrgId" bson:"clusterOrgId"`
	UUID         string    `json:"uuid" bson:"uuid"`
	Name         string    `json:"name" bson:"name"`
	ClusterID    string    `json:"clusterId" bson:"clusterId"`
	ChannelUUID  string    `json:"channelUuid" bson:"channel_uuid"`
	ChannelName  string    `json:"channelName" bson:"channelName"`
	VersionUUID  string    `json:"versionUuid" bson:"version_uuid"`
	Created      time.Time `json:"created" bson:"created"`
	Updated      time.Time `json:"updated" bson:"updated"`
}
