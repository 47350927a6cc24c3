package orgs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relayops/channelstore/pkg/observability"
	"github.com/relayops/channelstore/pkg/store"
)

// orgKeyPrefix prefixes every issued org key so keys are recognizable in
// operator tooling.
const orgKeyPrefix = "orgApiKey-"

// ConfigurationError reports an organization whose stored state cannot
// support an operation, such as a missing encryption key. It should never
// occur for organizations created through this service.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// Service manages organization records. Key issuance happens exactly once,
// at creation; this subsystem never rotates or mutates the key list.
type Service struct {
	store  store.OrganizationStore
	logger *observability.Logger
}

// NewService creates an organization service.
func NewService(s store.OrganizationStore, logger *observability.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// CreateLocalOrg creates an organization with a freshly issued org key, or
// returns the existing record when one already matches the name. Creation is
// idempotent by name.
func (s *Service) CreateLocalOrg(ctx context.Context, name string) (*store.Organization, error) {
	existing, err := s.store.GetOrgByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up organization %q: %w", name, err)
	}

	now := time.Now()
	org := &store.Organization{
		ID:      uuid.New().String(),
		Name:    name,
		OrgKeys: []string{orgKeyPrefix + uuid.New().String()},
		Created: now,
		Updated: now,
	}
	if err := s.store.CreateOrg(ctx, org); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a create race; the winner's record is the answer.
			return s.store.GetOrgByName(ctx, name)
		}
		return nil, fmt.Errorf("failed to create organization %q: %w", name, err)
	}

	s.logger.WithFields(map[string]any{"org_id": org.ID, "name": name}).Info("organization created")
	return org, nil
}

// GetOrg fetches an organization by id.
func (s *Service) GetOrg(ctx context.Context, id string) (*store.Organization, error) {
	return s.store.GetOrg(ctx, id)
}

// ActiveOrgKey returns the organization's active encryption key, orgKeys[0].
// Later keys exist only to support future rotation.
func ActiveOrgKey(org *store.Organization) (string, error) {
	key, ok := org.ActiveKey()
	if !ok {
		return "", &ConfigurationError{Message: fmt.Sprintf("organization %s has no encryption keys", org.ID)}
	}
	return key, nil
}
