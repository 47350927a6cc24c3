package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	collOrgs                 = "orgs"
	collChannels             = "channels"
	collVersions             = "deployableVersions"
	collSubscriptions        = "subscriptions"
	collServiceSubscriptions = "serviceSubscriptions"
)

// MongoStore implements Store against a MongoDB database. Uniqueness
// (org name, org_id+name on channels, org_id+channel_id+name on versions)
// is enforced through unique indexes, so concurrent writers racing on the
// same name lose with ErrDuplicate rather than corrupting state.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB and ensures the indexes this subsystem
// relies on.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Disconnect closes the underlying client.
func (s *MongoStore) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.db.Collection(collOrgs).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("failed to create org indexes: %w", err)
	}

	_, err = s.db.Collection(collChannels).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "uuid", Value: 1}}, Options: unique},
	})
	if err != nil {
		return fmt.Errorf("failed to create channel indexes: %w", err)
	}

	_, err = s.db.Collection(collVersions).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "channel_id", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "uuid", Value: 1}}, Options: unique},
	})
	if err != nil {
		return fmt.Errorf("failed to create version indexes: %w", err)
	}

	_, err = s.db.Collection(collSubscriptions).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "channel_uuid", Value: 1}}},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "version_uuid", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}

	_, err = s.db.Collection(collServiceSubscriptions).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel_uuid", Value: 1}}},
		{Keys: bson.D{{Key: "version_uuid", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create service subscription indexes: %w", err)
	}
	return nil
}

func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

// GetOrg implements OrganizationStore.
func (s *MongoStore) GetOrg(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	err := s.db.Collection(collOrgs).FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &org, nil
}

// GetOrgByName implements OrganizationStore.
func (s *MongoStore) GetOrgByName(ctx context.Context, name string) (*Organization, error) {
	var org Organization
	err := s.db.Collection(collOrgs).FindOne(ctx, bson.M{"name": name}).Decode(&org)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &org, nil
}

// CreateOrg implements OrganizationStore.
func (s *MongoStore) CreateOrg(ctx context.Context, org *Organization) error {
	_, err := s.db.Collection(collOrgs).InsertOne(ctx, org)
	return mapMongoErr(err)
}

// GetChannel implements ChannelStore.
func (s *MongoStore) GetChannel(ctx context.Context, orgID, uuid string) (*Channel, error) {
	var channel Channel
	err := s.db.Collection(collChannels).FindOne(ctx, bson.M{"org_id": orgID, "uuid": uuid}).Decode(&channel)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &channel, nil
}

// GetChannelByName implements ChannelStore.
func (s *MongoStore) GetChannelByName(ctx context.Context, orgID, name string) (*Channel, error) {
	var channel Channel
	err := s.db.Collection(collChannels).FindOne(ctx, bson.M{"org_id": orgID, "name": name}).Decode(&channel)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &channel, nil
}

func (s *MongoStore) findChannels(ctx context.Context, filter bson.M) ([]*Channel, error) {
	cursor, err := s.db.Collection(collChannels).Find(ctx, filter)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	var channels []*Channel
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, mapMongoErr(err)
	}
	return channels, nil
}

// ListChannels implements ChannelStore.
func (s *MongoStore) ListChannels(ctx context.Context, orgID string) ([]*Channel, error) {
	return s.findChannels(ctx, bson.M{"org_id": orgID})
}

// ListChannelsByTags implements ChannelStore.
func (s *MongoStore) ListChannelsByTags(ctx context.Context, orgID string, tags []string) ([]*Channel, error) {
	return s.findChannels(ctx, bson.M{"org_id": orgID, "tags": bson.M{"$all": tags}})
}

// CountChannels implements ChannelStore.
func (s *MongoStore) CountChannels(ctx context.Context, orgID string) (int64, error) {
	n, err := s.db.Collection(collChannels).CountDocuments(ctx, bson.M{"org_id": orgID})
	return n, mapMongoErr(err)
}

// CreateChannel implements ChannelStore.
func (s *MongoStore) CreateChannel(ctx context.Context, channel *Channel) error {
	_, err := s.db.Collection(collChannels).InsertOne(ctx, channel)
	return mapMongoErr(err)
}

// UpdateChannelMeta implements ChannelStore.
func (s *MongoStore) UpdateChannelMeta(ctx context.Context, orgID, uuid, name, dataLocation string, tags []string) error {
	set := bson.M{"updated": time.Now()}
	if name != "" {
		set["name"] = name
	}
	if dataLocation != "" {
		set["data_location"] = dataLocation
	}
	if tags != nil {
		set["tags"] = tags
	}
	result, err := s.db.Collection(collChannels).UpdateOne(ctx,
		bson.M{"org_id": orgID, "uuid": uuid},
		bson.M{"$set": set},
	)
	if err != nil {
		return mapMongoErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVersionRef implements ChannelStore. The index mutation is a single
// atomic $push.
func (s *MongoStore) AddVersionRef(ctx context.Context, orgID, channelUUID string, ref VersionRef) error {
	result, err := s.db.Collection(collChannels).UpdateOne(ctx,
		bson.M{"org_id": orgID, "uuid": channelUUID},
		bson.M{"$push": bson.M{"versions": ref}, "$set": bson.M{"updated": time.Now()}},
	)
	if err != nil {
		return mapMongoErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveVersionRef implements ChannelStore. The index mutation is a single
// atomic $pull.
func (s *MongoStore) RemoveVersionRef(ctx context.Context, orgID, channelUUID, versionUUID string) error {
	result, err := s.db.Collection(collChannels).UpdateOne(ctx,
		bson.M{"org_id": orgID, "uuid": channelUUID},
		bson.M{"$pull": bson.M{"versions": bson.M{"uuid": versionUUID}}, "$set": bson.M{"updated": time.Now()}},
	)
	if err != nil {
		return mapMongoErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChannel implements ChannelStore.
func (s *MongoStore) DeleteChannel(ctx context.Context, orgID, uuid string) error {
	result, err := s.db.Collection(collChannels).DeleteOne(ctx, bson.M{"org_id": orgID, "uuid": uuid})
	if err != nil {
		return mapMongoErr(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetVersion implements VersionStore.
func (s *MongoStore) GetVersion(ctx context.Context, orgID, uuid string) (*DeployableVersion, error) {
	var version DeployableVersion
	err := s.db.Collection(collVersions).FindOne(ctx, bson.M{"org_id": orgID, "uuid": uuid}).Decode(&version)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &version, nil
}

// GetChannelVersion implements VersionStore.
func (s *MongoStore) GetChannelVersion(ctx context.Context, orgID, channelUUID, versionUUID string) (*DeployableVersion, error) {
	var version DeployableVersion
	err := s.db.Collection(collVersions).FindOne(ctx,
		bson.M{"org_id": orgID, "channel_id": channelUUID, "uuid": versionUUID}).Decode(&version)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &version, nil
}

// GetVersionByName implements VersionStore.
func (s *MongoStore) GetVersionByName(ctx context.Context, orgID, channelUUID, name string) (*DeployableVersion, error) {
	var version DeployableVersion
	err := s.db.Collection(collVersions).FindOne(ctx,
		bson.M{"org_id": orgID, "channel_id": channelUUID, "name": name}).Decode(&version)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &version, nil
}

// ListVersions implements VersionStore.
func (s *MongoStore) ListVersions(ctx context.Context, orgID, channelUUID string) ([]*DeployableVersion, error) {
	cursor, err := s.db.Collection(collVersions).Find(ctx, bson.M{"org_id": orgID, "channel_id": channelUUID})
	if err != nil {
		return nil, mapMongoErr(err)
	}
	var versions []*DeployableVersion
	if err := cursor.All(ctx, &versions); err != nil {
		return nil, mapMongoErr(err)
	}
	return versions, nil
}

// CountVersions implements VersionStore.
func (s *MongoStore) CountVersions(ctx context.Context, orgID, channelUUID string) (int64, error) {
	n, err := s.db.Collection(collVersions).CountDocuments(ctx, bson.M{"org_id": orgID, "channel_id": channelUUID})
	return n, mapMongoErr(err)
}

// CreateVersion implements VersionStore.
func (s *MongoStore) CreateVersion(ctx context.Context, version *DeployableVersion) error {
	_, err := s.db.Collection(collVersions).InsertOne(ctx, version)
	return mapMongoErr(err)
}

// DeleteVersion implements VersionStore.
func (s *MongoStore) DeleteVersion(ctx context.Context, orgID, uuid string) error {
	result, err := s.db.Collection(collVersions).DeleteOne(ctx, bson.M{"org_id": orgID, "uuid": uuid})
	if err != nil {
		return mapMongoErr(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChannelVersions implements VersionStore.
func (s *MongoStore) DeleteChannelVersions(ctx context.Context, orgID, channelUUID string) error {
	_, err := s.db.Collection(collVersions).DeleteMany(ctx, bson.M{"org_id": orgID, "channel_id": channelUUID})
	return mapMongoErr(err)
}

// SetVersionChannelName implements VersionStore.
func (s *MongoStore) SetVersionChannelName(ctx context.Context, orgID, channelUUID, channelName string) error {
	_, err := s.db.Collection(collVersions).UpdateMany(ctx,
		bson.M{"org_id": orgID, "channel_id": channelUUID},
		bson.M{"$set": bson.M{"channel_name": channelName, "updated": time.Now()}},
	)
	return mapMongoErr(err)
}

// CountSubscriptionsForChannel implements SubscriptionStore.
func (s *MongoStore) CountSubscriptionsForChannel(ctx context.Context, orgID, channelUUID string) (int64, error) {
	n, err := s.db.Collection(collSubscriptions).CountDocuments(ctx, bson.M{"org_id": orgID, "channel_uuid": channelUUID})
	return n, mapMongoErr(err)
}

// CountSubscriptionsForVersion implements SubscriptionStore.
func (s *MongoStore) CountSubscriptionsForVersion(ctx context.Context, orgID, versionUUID string) (int64, error) {
	n, err := s.db.Collection(collSubscriptions).CountDocuments(ctx, bson.M{"org_id": orgID, "version_uuid": versionUUID})
	return n, mapMongoErr(err)
}

// SetSubscriptionChannelName implements SubscriptionStore.
func (s *MongoStore) SetSubscriptionChannelName(ctx context.Context, orgID, channelUUID, channelName string) error {
	_, err := s.db.Collection(collSubscriptions).UpdateMany(ctx,
		bson.M{"org_id": orgID, "channel_uuid": channelUUID},
		bson.M{"$set": bson.M{"channelName": channelName, "updated": time.Now()}},
	)
	return mapMongoErr(err)
}

// CreateSubscription implements SubscriptionStore.
func (s *MongoStore) CreateSubscription(ctx context.Context, sub *Subscription) error {
	_, err := s.db.Collection(collSubscriptions).InsertOne(ctx, sub)
	return mapMongoErr(err)
}

// DeleteSubscription implements SubscriptionStore.
func (s *MongoStore) DeleteSubscription(ctx context.Context, orgID, uuid string) error {
	result, err := s.db.Collection(collSubscriptions).DeleteOne(ctx, bson.M{"org_id": orgID, "uuid": uuid})
	if err != nil {
		return mapMongoErr(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountServiceSubscriptionsForChannel implements SubscriptionStore. The
// count is deliberately not org-scoped: service subscriptions in any
// organization block channel removal.
func (s *MongoStore) CountServiceSubscriptionsForChannel(ctx context.Context, channelUUID string) (int64, error) {
	n, err := s.db.Collection(collServiceSubscriptions).CountDocuments(ctx, bson.M{"channel_uuid": channelUUID})
	return n, mapMongoErr(err)
}

// CountServiceSubscriptionsForVersion implements SubscriptionStore.
func (s *MongoStore) CountServiceSubscriptionsForVersion(ctx context.Context, versionUUID string) (int64, error) {
	n, err := s.db.Collection(collServiceSubscriptions).CountDocuments(ctx, bson.M{"version_uuid": versionUUID})
	return n, mapMongoErr(err)
}

// CreateServiceSubscription implements SubscriptionStore.
func (s *MongoStore) CreateServiceSubscription(ctx context.Context, sub *ServiceSubscription) error {
	_, err := s.db.Collection(collServiceSubscriptions).InsertOne(ctx, sub)
	return mapMongoErr(err)
}

// DeleteServiceSubscription implements SubscriptionStore.
func (s *MongoStore) DeleteServiceSubscription(ctx context.Context, uuid string) error {
	result, err := s.db.Collection(collServiceSubscriptions).DeleteOne(ctx, bson.M{"uuid": uuid})
	if err != nil {
		return mapMongoErr(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
