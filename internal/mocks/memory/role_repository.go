package memory

import (
	"context"

	"school/internal/domain/entity"
	"school/internal/domain/repository"
)

type roleRepository struct {
	s *Store
}

func (r *roleRepository) FindByName(_ context.Context, name entity.RoleName) (*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("FindRoleByName"); err != nil {
		return nil, err
	}
	for _, role := range r.s.roles {
		if role.Name == name {
			roleCopy := *role

			return &roleCopy, nil
		}
	}

	return nil, repository.ErrRoleNotFound
}

func (r *roleRepository) FindByID(_ context.Context, id uint64) (*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if role, ok := r.s.roles[id]; ok {
		roleCopy := *role

		return &roleCopy, nil
	}

	return nil, repository.ErrRoleNotFound
}
