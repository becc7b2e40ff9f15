package service

import (
	"time"

	"github.com/pkg/errors"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Verification failures reported by a TokenCodec.
var (
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenMalformed        = errors.New("token is malformed")
)

// TokenClaims are the application claims carried by a token in addition to the registered ones.
type TokenClaims struct {
	Role string
	Type string
}

// VerifiedClaims is the decoded payload of a token whose signature and expiry were checked.
type VerifiedClaims struct {
	Subject   string
	Role      string
	Type      string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies signed bearer tokens.
// Implementations are safe for concurrent use.
type TokenCodec interface {
	// Issue signs a token for subject that expires after ttl.
	Issue(subject string, claims TokenClaims, ttl time.Duration) (string, error)

	// Verify checks the signature before any claim and returns ErrTokenInvalidSignature,
	// ErrTokenExpired or ErrTokenMalformed on failure.
	Verify(token string) (*VerifiedClaims, error)
}
