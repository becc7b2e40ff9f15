package repository

import (
	"context"
	"time"

	"school/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when no live session matches the identity and token.
var ErrSessionNotFound = errors.New("refresh session not found")

// SessionRepository stores the single live refresh session of each identity.
type SessionRepository interface {
	// ReplaceSession atomically drops any session of the identity and stores a new one for token.
	ReplaceSession(ctx context.Context, identityID uint64, token string, issuedAt, expiresAt time.Time) error

	// FindValidSession returns the session matching identity and token that has not expired at now.
	// An expired match is deleted and reported as ErrSessionNotFound.
	FindValidSession(ctx context.Context, identityID uint64, token string, now time.Time) (*entity.RefreshSession, error)

	// DeleteExpired removes every session that expired at or before now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
