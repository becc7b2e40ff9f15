package entity

import "time"

// RefreshSession is the single live refresh session of an identity.
// Only a hash of the refresh token is ever stored.
type RefreshSession struct {
	ID         uint64
	IdentityID uint64
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the session is no longer usable at now.
func (s *RefreshSession) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
