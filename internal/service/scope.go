package service

import (
	"context"

	"sampletrack/internal/domain"
	"sampletrack/internal/repository"

	"github.com/google/uuid"
)

// sampleScope limits scoped roles to the samples where they own a stage.
type sampleScope struct {
	owners repository.OwnerRepository
	roles  map[domain.Role]bool
}

func newSampleScope(owners repository.OwnerRepository, roles []domain.Role) sampleScope {
	m := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		m[r] = true
	}
	return sampleScope{owners: owners, roles: m}
}

func (s sampleScope) applies(role domain.Role) bool {
	return s.owners != nil && s.roles[role]
}

// visible reports whether the actor may see the sample at all.
func (s sampleScope) visible(ctx context.Context, actor Actor, sampleID uuid.UUID) (bool, error) {
	if !s.applies(actor.Role) {
		return true, nil
	}
	owners, err := s.owners.List(ctx, sampleID)
	if err != nil {
		return false, err
	}
	for _, o := range owners {
		if o.UserID == actor.UserID {
			return true, nil
		}
	}
	return false, nil
}
