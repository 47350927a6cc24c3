// Package auth defines the capability-check boundary of the content store.
//
// Authorization decisioning is an external collaborator: the lifecycle
// manager calls Authorizer.ValidAuth before every mutating operation and
// treats any returned AuthError as final. AuthError messages deliberately
// omit whether the target resource exists, so an unauthorized subject cannot
// probe for resources.
package auth
