package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"school/internal/domain/entity"
	"school/internal/domain/repository"
)

type identityRepository struct {
	s *Store
}

func (r *identityRepository) FindByID(_ context.Context, id uint64) (*entity.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("FindByID"); err != nil {
		return nil, err
	}
	if identity := r.s.load(id); identity != nil {
		return identity, nil
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *identityRepository) FindByUsername(_ context.Context, username string) (*entity.Identity, error) {
	return r.findBy("FindByUsername", func(identity *entity.Identity) bool {
		return username != "" && identity.Username == username
	})
}

func (r *identityRepository) FindByExternalSubject(_ context.Context, subject string) (*entity.Identity, error) {
	return r.findBy("FindByExternalSubject", func(identity *entity.Identity) bool {
		return subject != "" && identity.ExternalSubject == subject
	})
}

func (r *identityRepository) findBy(method string, match func(*entity.Identity) bool) (*entity.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure(method); err != nil {
		return nil, err
	}
	for id, identity := range r.s.identities {
		if match(identity) {
			return r.s.load(id), nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *identityRepository) Create(_ context.Context, identity *entity.Identity) error {
	if r.s.OnCreate != nil {
		r.s.OnCreate(identity)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("Create"); err != nil {
		return err
	}
	for _, existing := range r.s.identities {
		if identity.ExternalSubject != "" && existing.ExternalSubject == identity.ExternalSubject {
			return repository.ErrExternalSubjectConflict
		}
		if identity.Username != "" && existing.Username == identity.Username {
			return repository.ErrUsernameConflict
		}
	}
	if identity.RoleID != nil {
		if _, ok := r.s.roles[*identity.RoleID]; !ok {
			return repository.ErrRoleNotFound
		}
	}

	now := time.Now()
	r.s.nextIdentityID++
	identity.ID = r.s.nextIdentityID
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.s.identities[identity.ID] = cloneIdentity(identity)

	return nil
}

func (r *identityRepository) UpdateProfile(_ context.Context, identity *entity.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("UpdateProfile"); err != nil {
		return err
	}
	stored, ok := r.s.identities[identity.ID]
	if !ok {
		return repository.ErrIdentityNotFound
	}
	stored.Name = identity.Name
	stored.Email = identity.Email
	stored.UpdatedAt = time.Now()
	identity.UpdatedAt = stored.UpdatedAt

	return nil
}

func (r *identityRepository) UpdateRole(_ context.Context, id uint64, roleID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("UpdateRole"); err != nil {
		return err
	}
	stored, ok := r.s.identities[id]
	if !ok {
		return repository.ErrIdentityNotFound
	}
	if _, ok := r.s.roles[roleID]; !ok {
		return repository.ErrRoleNotFound
	}
	stored.RoleID = &roleID
	stored.UpdatedAt = time.Now()

	return nil
}

func (r *identityRepository) List(_ context.Context, offset, limit int) ([]*entity.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("List"); err != nil {
		return nil, err
	}
	ids := slices.Sorted(maps.Keys(r.s.identities))
	if offset >= len(ids) {
		return []*entity.Identity{}, nil
	}
	ids = ids[offset:min(offset+limit, len(ids))]

	identities := make([]*entity.Identity, 0, len(ids))
	for _, id := range ids {
		identities = append(identities, r.s.load(id))
	}

	return identities, nil
}
