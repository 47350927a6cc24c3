package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process
// development. All methods are safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	orgs     map[string]*Organization
	channels map[string]*Channel          // keyed by uuid
	versions map[string]*DeployableVersion // keyed by uuid
	subs     map[string]*Subscription      // keyed by uuid
	svcSubs  map[string]*ServiceSubscription
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:     map[string]*Organization{},
		channels: map[string]*Channel{},
		versions: map[string]*DeployableVersion{},
		subs:     map[string]*Subscription{},
		svcSubs:  map[string]*ServiceSubscription{},
	}
}

func copyChannel(c *Channel) *Channel {
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	out.Versions = append([]VersionRef(nil), c.Versions...)
	return &out
}

func copyOrg(o *Organization) *Organization {
	out := *o
	out.OrgKeys = append([]string(nil), o.OrgKeys...)
	return &out
}

// GetOrg implements OrganizationStore.
func (s *MemoryStore) GetOrg(ctx context.Context, id string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrg(org), nil
}

// GetOrgByName implements OrganizationStore.
func (s *MemoryStore) GetOrgByName(ctx context.Context, name string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, org := range s.orgs {
		if org.Name == name {
			return copyOrg(org), nil
		}
	}
	return nil, ErrNotFound
}

// CreateOrg implements OrganizationStore.
func (s *MemoryStore) CreateOrg(ctx context.Context, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[org.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.orgs {
		if existing.Name == org.Name {
			return ErrDuplicate
		}
	}
	s.orgs[org.ID] = copyOrg(org)
	return nil
}

// GetChannel implements ChannelStore.
func (s *MemoryStore) GetChannel(ctx context.Context, orgID, uuid string) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channel, ok := s.channels[uuid]
	if !ok || channel.OrgID != orgID {
		return nil, ErrNotFound
	}
	return copyChannel(channel), nil
}

// GetChannelByName implements ChannelStore.
func (s *MemoryStore) GetChannelByName(ctx context.Context, orgID, name string) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, channel := range s.channels {
		if channel.OrgID == orgID && channel.Name == name {
			return copyChannel(channel), nil
		}
	}
	return nil, ErrNotFound
}

// ListChannels implements ChannelStore.
func (s *MemoryStore) ListChannels(ctx context.Context, orgID string) ([]*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Channel
	for _, channel := range s.channels {
		if channel.OrgID == orgID {
			out = append(out, copyChannel(channel))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListChannelsByTags implements ChannelStore. A channel matches when it
// carries every requested tag.
func (s *MemoryStore) ListChannelsByTags(ctx context.Context, orgID string, tags []string) ([]*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Channel
	for _, channel := range s.channels {
		if channel.OrgID != orgID {
			continue
		}
		if hasAllTags(channel.Tags, tags) {
			out = append(out, copyChannel(channel))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CountChannels implements ChannelStore.
func (s *MemoryStore) CountChannels(ctx context.Context, orgID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, channel := range s.channels {
		if channel.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

// CreateChannel implements ChannelStore.
func (s *MemoryStore) CreateChannel(ctx context.Context, channel *Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.channels {
		if existing.OrgID == channel.OrgID && existing.Name == channel.Name {
			return ErrDuplicate
		}
	}
	s.channels[channel.UUID] = copyChannel(channel)
	return nil
}

// UpdateChannelMeta implements ChannelStore.
func (s *MemoryStore) UpdateChannelMeta(ctx context.Context, orgID, uuid, name, dataLocation string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[uuid]
	if !ok || channel.OrgID != orgID {
		return ErrNotFound
	}
	if name != "" {
		channel.Name = name
	}
	if dataLocation != "" {
		channel.DataLocation = dataLocation
	}
	if tags != nil {
		channel.Tags = append([]string(nil), tags...)
	}
	channel.Updated = time.Now()
	return nil
}

// AddVersionRef implements ChannelStore.
func (s *MemoryStore) AddVersionRef(ctx context.Context, orgID, channelUUID string, ref VersionRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[channelUUID]
	if !ok || channel.OrgID != orgID {
		return ErrNotFound
	}
	channel.Versions = append(channel.Versions, ref)
	channel.Updated = time.Now()
	return nil
}

// RemoveVersionRef implements ChannelStore.
func (s *MemoryStore) RemoveVersionRef(ctx context.Context, orgID, channelUUID, versionUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[channelUUID]
	if !ok || channel.OrgID != orgID {
		return ErrNotFound
	}
	refs := channel.Versions[:0]
	for _, ref := range channel.Versions {
		if ref.UUID != versionUUID {
			refs = append(refs, ref)
		}
	}
	channel.Versions = refs
	channel.Updated = time.Now()
	return nil
}

// DeleteChannel implements ChannelStore.
func (s *MemoryStore) DeleteChannel(ctx context.Context, orgID, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[uuid]
	if !ok || channel.OrgID != orgID {
		return ErrNotFound
	}
	delete(s.channels, uuid)
	return nil
}

// GetVersion implements VersionStore.
func (s *MemoryStore) GetVersion(ctx context.Context, orgID, uuid string) (*DeployableVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[uuid]
	if !ok || version.OrgID != orgID {
		return nil, ErrNotFound
	}
	out := *version
	return &out, nil
}

// GetChannelVersion implements VersionStore.
func (s *MemoryStore) GetChannelVersion(ctx context.Context, orgID, channelUUID, versionUUID string) (*DeployableVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[versionUUID]
	if !ok || version.OrgID != orgID || version.ChannelID != channelUUID {
		return nil, ErrNotFound
	}
	out := *version
	return &out, nil
}

// GetVersionByName implements VersionStore.
func (s *MemoryStore) GetVersionByName(ctx context.Context, orgID, channelUUID, name string) (*DeployableVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, version := range s.versions {
		if version.OrgID == orgID && version.ChannelID == channelUUID && version.Name == name {
			out := *version
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListVersions implements VersionStore.
func (s *MemoryStore) ListVersions(ctx context.Context, orgID, channelUUID string) ([]*DeployableVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*DeployableVersion
	for _, version := range s.versions {
		if version.OrgID == orgID && version.ChannelID == channelUUID {
			v := *version
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CountVersions implements VersionStore.
func (s *MemoryStore) CountVersions(ctx context.Context, orgID, channelUUID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, version := range s.versions {
		if version.OrgID == orgID && version.ChannelID == channelUUID {
			n++
		}
	}
	return n, nil
}

// CreateVersion implements VersionStore.
func (s *MemoryStore) CreateVersion(ctx context.Context, version *DeployableVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.versions {
		if existing.OrgID == version.OrgID && existing.ChannelID == version.ChannelID && existing.Name == version.Name {
			return ErrDuplicate
		}
	}
	v := *version
	s.versions[version.UUID] = &v
	return nil
}

// DeleteVersion implements VersionStore.
func (s *MemoryStore) DeleteVersion(ctx context.Context, orgID, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	version, ok := s.versions[uuid]
	if !ok || version.OrgID != orgID {
		return ErrNotFound
	}
	delete(s.versions, uuid)
	return nil
}

// DeleteChannelVersions implements VersionStore.
func (s *MemoryStore) DeleteChannelVersions(ctx context.Context, orgID, channelUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uuid, version := range s.versions {
		if version.OrgID == orgID && version.ChannelID == channelUUID {
			delete(s.versions, uuid)
		}
	}
	return nil
}

// SetVersionChannelName implements VersionStore.
func (s *MemoryStore) SetVersionChannelName(ctx context.Context, orgID, channelUUID, channelName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, version := range s.versions {
		if version.OrgID == orgID && version.ChannelID == channelUUID {
			version.ChannelName = channelName
			version.Updated = time.Now()
		}
	}
	return nil
}

// CountSubscriptionsForChannel implements SubscriptionStore.
func (s *MemoryStore) CountSubscriptionsForChannel(ctx context.Context, orgID, channelUUID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sub := range s.subs {
		if sub.OrgID == orgID && sub.ChannelUUID == channelUUID {
			n++
		}
	}
	return n, nil
}

// CountSubscriptionsForVersion implements SubscriptionStore.
func (s *MemoryStore) CountSubscriptionsForVersion(ctx context.Context, orgID, versionUUID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sub := range s.subs {
		if sub.OrgID == orgID && sub.VersionUUID == versionUUID {
			n++
		}
	}
	return n, nil
}

// SetSubscriptionChannelName implements SubscriptionStore.
func (s *MemoryStore) SetSubscriptionChannelName(ctx context.Context, orgID, channelUUID, channelName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.OrgID == orgID && sub.ChannelUUID == channelUUID {
			sub.ChannelName = channelName
			sub.Updated = time.Now()
		}
	}
	return nil
}

// CreateSubscription implements SubscriptionStore.
func (s *MemoryStore) CreateSubscription(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *sub
	s.subs[sub.UUID] = &v
	return nil
}

// DeleteSubscription implements SubscriptionStore.
func (s *MemoryStore) DeleteSubscription(ctx context.Context, orgID, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[uuid]
	if !ok || sub.OrgID != orgID {
		return ErrNotFound
	}
	delete(s.subs, uuid)
	return nil
}

// CountServiceSubscriptionsForChannel implements SubscriptionStore.
func (s *MemoryStore) CountServiceSubscriptionsForChannel(ctx context.Context, channelUUID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sub := range s.svcSubs {
		if sub.ChannelUUID == channelUUID {
			n++
		}
	}
	return n, nil
}

// CountServiceSubscriptionsForVersion implements SubscriptionStore.
func (s *MemoryStore) CountServiceSubscriptionsForVersion(ctx context.Context, versionUUID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sub := range s.svcSubs {
		if sub.VersionUUID == versionUUID {
			n++
		}
	}
	return n, nil
}

// CreateServiceSubscription implements SubscriptionStore.
func (s *MemoryStore) CreateServiceSubscription(ctx context.Context, sub *ServiceSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *sub
	s.svcSubs[sub.UUID] = &v
	return nil
}

// DeleteServiceSubscription implements SubscriptionStore.
func (s *MemoryStore) DeleteServiceSubscription(ctx context.Context, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.svcSubs[uuid]; !ok {
		return ErrNotFound
	}
	delete(s.svcSubs, uuid)
	return nil
}
