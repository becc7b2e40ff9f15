// Package memory provides map-backed repositories for tests. They enforce the same
// uniqueness and not-found rules as the postgres repositories.
package memory

import (
	"maps"
	"sync"

	"school/internal/domain/entity"
	"school/internal/domain/repository"
)

// Store holds every table behind one mutex.
type Store struct {
	mu sync.Mutex

	nextIdentityID uint64
	nextSessionID  uint64
	identities     map[uint64]*entity.Identity
	roles          map[uint64]*entity.Role
	sessions       map[uint64]*storedSession // keyed by identity id
	sessionWrites  int
	failures       map[string]error

	// OnCreate, when set, runs at the start of IdentityRepository.Create before the store is locked.
	OnCreate func(identity *entity.Identity)
}

type storedSession struct {
	session *entity.RefreshSession
	token   string
}

// NewStore returns a store seeded with the admin, teacher and student roles (ids 1, 2, 3).
func NewStore() *Store {
	s := &Store{
		identities: make(map[uint64]*entity.Identity),
		roles:      make(map[uint64]*entity.Role),
		sessions:   make(map[uint64]*storedSession),
		failures:   make(map[string]error),
	}
	for i, name := range []entity.RoleName{entity.RoleAdmin, entity.RoleTeacher, entity.RoleStudent} {
		id := uint64(i + 1)
		s.roles[id] = &entity.Role{ID: id, Name: name}
	}

	return s
}

// Identities returns an IdentityRepository backed by the store.
func (s *Store) Identities() repository.IdentityRepository { return &identityRepository{s: s} }

// Roles returns a RoleRepository backed by the store.
func (s *Store) Roles() repository.RoleRepository { return &roleRepository{s: s} }

// Sessions returns a SessionRepository backed by the store.
func (s *Store) Sessions() repository.SessionRepository { return &sessionRepository{s: s} }

// TxManager returns a TransactionManager that restores the store when fn fails.
func (s *Store) TxManager() repository.TransactionManager { return &txManager{s: s} }

// FailWith makes the named repository method return err until cleared with a nil err.
func (s *Store) FailWith(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, method)

		return
	}
	s.failures[method] = err
}

func (s *Store) failure(method string) error {
	return s.failures[method]
}

// SeedIdentity stores identity as is, assigning an id when it has none.
func (s *Store) SeedIdentity(identity *entity.Identity) *entity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity.ID == 0 {
		s.nextIdentityID++
		identity.ID = s.nextIdentityID
	} else if identity.ID > s.nextIdentityID {
		s.nextIdentityID = identity.ID
	}
	s.identities[identity.ID] = cloneIdentity(identity)

	return s.load(identity.ID)
}

// DeleteIdentity removes an identity and its session.
func (s *Store) DeleteIdentity(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.identities, id)
	delete(s.sessions, id)
}

// DeleteRole removes a role. Identities keep their dangling reference.
func (s *Store) DeleteRole(name entity.RoleName) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, role := range s.roles {
		if role.Name == name {
			delete(s.roles, id)
		}
	}
}

// IdentityCount returns the number of stored identities.
func (s *Store) IdentityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.identities)
}

// SessionCount returns the number of stored sessions, expired ones included.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// SessionWrites returns how many times ReplaceSession succeeded.
func (s *Store) SessionWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionWrites
}

// load returns a copy of the identity with its role resolved. The caller holds the lock.
func (s *Store) load(id uint64) *entity.Identity {
	stored, ok := s.identities[id]
	if !ok {
		return nil
	}

	identity := cloneIdentity(stored)
	identity.Role = nil
	if identity.RoleID != nil {
		if role, ok := s.roles[*identity.RoleID]; ok {
			roleCopy := *role
			identity.Role = &roleCopy
		}
	}

	return identity
}

type snapshot struct {
	nextIdentityID uint64
	nextSessionID  uint64
	identities     map[uint64]*entity.Identity
	sessions       map[uint64]*storedSession
	sessionWrites  int
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities := make(map[uint64]*entity.Identity, len(s.identities))
	for id, identity := range s.identities {
		identities[id] = cloneIdentity(identity)
	}

	return snapshot{
		nextIdentityID: s.nextIdentityID,
		nextSessionID:  s.nextSessionID,
		identities:     identities,
		sessions:       maps.Clone(s.sessions),
		sessionWrites:  s.sessionWrites,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextIdentityID = snap.nextIdentityID
	s.nextSessionID = snap.nextSessionID
	s.identities = snap.identities
	s.sessions = snap.sessions
	s.sessionWrites = snap.sessionWrites
}

func cloneIdentity(identity *entity.Identity) *entity.Identity {
	clone := *identity
	if identity.RoleID != nil {
		roleID := *identity.RoleID
		clone.RoleID = &roleID
	}

	return &clone
}
