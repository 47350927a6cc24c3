package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreOrgCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	org := &Organization{ID: "org1", Name: "acme", OrgKeys: []string{"k1", "k2"}}
	require.NoError(t, s.CreateOrg(ctx, org))

	got, err := s.GetOrg(ctx, "org1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)

	key, ok := got.ActiveKey()
	require.True(t, ok)
	assert.Equal(t, "k1", key)

	byName, err := s.GetOrgByName(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "org1", byName.ID)

	assert.ErrorIs(t, s.CreateOrg(ctx, &Organization{ID: "org2", Name: "acme"}), ErrDuplicate)

	_, err = s.GetOrg(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrganizationActiveKeyEmpty(t *testing.T) {
	org := &Organization{ID: "org1", Name: "keyless"}
	_, ok := org.ActiveKey()
	assert.False(t, ok)
}

func TestMemoryStoreChannelUniqueness(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateChannel(ctx, &Channel{ID: "1", UUID: "c1", OrgID: "org1", Name: "stable"}))
	assert.ErrorIs(t, s.CreateChannel(ctx, &Channel{ID: "2", UUID: "c2", OrgID: "org1", Name: "stable"}), ErrDuplicate)
	// Same name in a different org is fine.
	require.NoError(t, s.CreateChannel(ctx, &Channel{ID: "3", UUID: "c3", OrgID: "org2", Name: "stable"}))

	n, err := s.CountChannels(ctx, "org1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryStoreVersionRefIndex(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateChannel(ctx, &Channel{ID: "1", UUID: "c1", OrgID: "org1", Name: "stable"}))

	ref := VersionRef{UUID: "v1", Name: "1.0.0", Created: time.Now()}
	require.NoError(t, s.AddVersionRef(ctx, "org1", "c1", ref))

	channel, err := s.GetChannel(ctx, "org1", "c1")
	require.NoError(t, err)
	require.Len(t, channel.Versions, 1)
	assert.Equal(t, "v1", channel.Versions[0].UUID)

	require.NoError(t, s.RemoveVersionRef(ctx, "org1", "c1", "v1"))
	channel, err = s.GetChannel(ctx, "org1", "c1")
	require.NoError(t, err)
	assert.Empty(t, channel.Versions)

	assert.ErrorIs(t, s.AddVersionRef(ctx, "org1", "missing", ref), ErrNotFound)
}

func TestMemoryStoreVersionUniquenessPerChannel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v := &DeployableVersion{ID: "1", UUID: "v1", OrgID: "org1", ChannelID: "c1", Name: "1.0.0"}
	require.NoError(t, s.CreateVersion(ctx, v))
	assert.ErrorIs(t, s.CreateVersion(ctx, &DeployableVersion{ID: "2", UUID: "v2", OrgID: "org1", ChannelID: "c1", Name: "1.0.0"}), ErrDuplicate)
	// Same name under a different channel is allowed.
	require.NoError(t, s.CreateVersion(ctx, &DeployableVersion{ID: "3", UUID: "v3", OrgID: "org1", ChannelID: "c2", Name: "1.0.0"}))
}

func TestMemoryStoreDeleteChannelVersions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, uuid := range []string{"v1", "v2", "v3"} {
		require.NoError(t, s.CreateVersion(ctx, &DeployableVersion{ID: uuid, UUID: uuid, OrgID: "org1", ChannelID: "c1", Name: uuid}))
	}
	require.NoError(t, s.CreateVersion(ctx, &DeployableVersion{ID: "other", UUID: "other", OrgID: "org1", ChannelID: "c2", Name: "other"}))

	require.NoError(t, s.DeleteChannelVersions(ctx, "org1", "c1"))

	n, err := s.CountVersions(ctx, "org1", "c1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.CountVersions(ctx, "org1", "c2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryStoreRenameBroadcast(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateVersion(ctx, &DeployableVersion{ID: "v1", UUID: "v1", OrgID: "org1", ChannelID: "c1", Name: "1.0.0", ChannelName: "old"}))
	require.NoError(t, s.CreateSubscription(ctx, &Subscription{ID: "s1", UUID: "s1", OrgID: "org1", ChannelUUID: "c1", ChannelName: "old"}))

	require.NoError(t, s.SetVersionChannelName(ctx, "org1", "c1", "new"))
	require.NoError(t, s.SetSubscriptionChannelName(ctx, "org1", "c1", "new"))

	v, err := s.GetVersion(ctx, "org1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "new", v.ChannelName)
}

func TestMemoryStoreSubscriptionCounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateSubscription(ctx, &Subscription{ID: "s1", UUID: "s1", OrgID: "org1", ChannelUUID: "c1", VersionUUID: "v1"}))
	require.NoError(t, s.CreateServiceSubscription(ctx, &ServiceSubscription{ID: "ss1", UUID: "ss1", OrgID: "other-org", ChannelUUID: "c1", VersionUUID: "v1"}))

	n, err := s.CountSubscriptionsForChannel(ctx, "org1", "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// Service subscription counts ignore the org boundary.
	n, err = s.CountServiceSubscriptionsForChannel(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.CountServiceSubscriptionsForVersion(ctx, "v1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.DeleteSubscription(ctx, "org1", "s1"))
	require.NoError(t, s.DeleteServiceSubscription(ctx, "ss1"))

	n, err = s.CountSubscriptionsForVersion(ctx, "org1", "v1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStoreListChannelsByTags(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateChannel(ctx, &Channel{ID: "1", UUID: "c1", OrgID: "org1", Name: "a", Tags: []string{"prod", "web"}}))
	require.NoError(t, s.CreateChannel(ctx, &Channel{ID: "2", UUID: "c2", OrgID: "org1", Name: "b", Tags: []string{"prod"}}))

	channels, err := s.ListChannelsByTags(ctx, "org1", []string{"prod", "web"})
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "a", channels[0].Name)

	channels, err = s.ListChannelsByTags(ctx, "org1", []string{"prod"})
	require.NoError(t, err)
	assert.Len(t, channels, 2)
}
