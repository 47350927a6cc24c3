package auth

import (
	"context"
	"fmt"
)

// Action enumerates the capabilities checked before lifecycle operations.
type Action string

const (
	ActionRead          Action = "read"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionManageVersion Action = "manageversion"
)

// ResourceType enumerates the resource classes subject to capability checks.
type ResourceType string

const (
	TypeChannel      ResourceType = "channel"
	TypeOrganization ResourceType = "organization"
	TypeSubscription ResourceType = "subscription"
)

// AuthError reports a denied capability. Its message never reveals whether
// the named resource exists.
type AuthError struct {
	Subject string
	OrgID   string
	Action  Action
	Type    ResourceType
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("subject is not authorized for %s on %s in org %s", e.Action, e.Type, e.OrgID)
}

// Authorizer is the opaque capability check consulted before any mutating
// lifecycle operation. Authorization decisioning itself lives outside this
// subsystem; attrs optionally carries resource identifiers (uuid, name) for
// attribute-based deciders.
type Authorizer interface {
	ValidAuth(ctx context.Context, subject, orgID string, action Action, resourceType ResourceType, attrs ...string) error
}

// AllowAll grants every capability. For tests and single-tenant local
// deployments.
type AllowAll struct{}

// ValidAuth implements Authorizer.
func (AllowAll) ValidAuth(ctx context.Context, subject, orgID string, action Action, resourceType ResourceType, attrs ...string) error {
	return nil
}

// DenyAll refuses every capability. For negative-path tests.
type DenyAll struct{}

// ValidAuth implements Authorizer.
func (DenyAll) ValidAuth(ctx context.Context, subject, orgID string, action Action, resourceType ResourceType, attrs ...string) error {
	return &AuthError{Subject: subject, OrgID: orgID, Action: action, Type: resourceType}
}
