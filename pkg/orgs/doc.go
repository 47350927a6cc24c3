// Package orgs manages organization records: idempotent creation with org
// key issuance, and access to the active per-tenant encryption key.
//
// The key list is ordered and append-only from this subsystem's point of
// view; index 0 is always the active key. Rotation policy is out of scope
// but the data shape anticipates it.
package orgs
