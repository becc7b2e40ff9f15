package memory

import (
	"context"
	"time"

	"school/internal/domain/entity"
	"school/internal/domain/repository"
)

type sessionRepository struct {
	s *Store
}

func (r *sessionRepository) ReplaceSession(_ context.Context, identityID uint64, token string, issuedAt, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("ReplaceSession"); err != nil {
		return err
	}
	if _, ok := r.s.identities[identityID]; !ok {
		return repository.ErrIdentityNotFound
	}

	r.s.nextSessionID++
	r.s.sessions[identityID] = &storedSession{
		session: &entity.RefreshSession{
			ID:         r.s.nextSessionID,
			IdentityID: identityID,
			CreatedAt:  issuedAt,
			ExpiresAt:  expiresAt,
		},
		token: token,
	}
	r.s.sessionWrites++

	return nil
}

func (r *sessionRepository) FindValidSession(_ context.Context, identityID uint64, token string, now time.Time) (*entity.RefreshSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("FindValidSession"); err != nil {
		return nil, err
	}
	stored, ok := r.s.sessions[identityID]
	if !ok || stored.token != token {
		return nil, repository.ErrSessionNotFound
	}
	if stored.session.IsExpired(now) {
		delete(r.s.sessions, identityID)

		return nil, repository.ErrSessionNotFound
	}
	session := *stored.session

	return &session, nil
}

func (r *sessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure("DeleteExpired"); err != nil {
		return 0, err
	}
	var deleted int64
	for identityID, stored := range r.s.sessions {
		if stored.session.IsExpired(now) {
			delete(r.s.sessions, identityID)
			deleted++
		}
	}

	return deleted, nil
}
