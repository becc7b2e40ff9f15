package memory

import (
	"context"

	"school/internal/domain/repository"
)

type txManager struct {
	s *Store
}

func (m *txManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	snap := m.s.snapshot()
	if err := fn(&factory{s: m.s}); err != nil {
		m.s.restore(snap)

		return err
	}

	return nil
}

type factory struct {
	s *Store
}

func (f *factory) NewIdentityRepository() repository.IdentityRepository { return f.s.Identities() }
func (f *factory) NewRoleRepository() repository.RoleRepository         { return f.s.Roles() }
func (f *factory) NewSessionRepository() repository.SessionRepository   { return f.s.Sessions() }
