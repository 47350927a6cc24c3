// Package store defines the document models of the control plane and the
// keyed CRUD interfaces the lifecycle manager consumes.
//
// # Models
//
// Organization is the tenant root carrying the ordered org key list.
// Channel holds the denormalized VersionRef index of its versions, mutated
// in lockstep with the authoritative DeployableVersion records.
// DeployableVersion stores the serialized storage pointer and IV, never the
// payload. Subscription and ServiceSubscription are read-only referential
// constraints from this subsystem's point of view.
//
// # Implementations
//
// MongoStore is the production implementation; uniqueness constraints are
// unique indexes, and VersionRef index mutations are single atomic $push
// and $pull updates. MemoryStore backs tests and local development.
package store
