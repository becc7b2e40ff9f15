// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"school/config"
	domainerrors "school/internal/domain/errors"
	"school/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// tokenClaims is the wire form of every token the service issues.
type tokenClaims struct {
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// jwtCodec is a concrete implementation of the TokenCodec interface using HMAC-signed JWTs.
type jwtCodec struct {
	key    []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewJWTCodec is the constructor for jwtCodec.
// The signing key is copied once and never changes afterwards.
func NewJWTCodec(cfg *config.Config) (service.TokenCodec, error) {
	return newJWTCodec(cfg.Token.SigningKey, cfg.Token.Algorithm, time.Now)
}

func newJWTCodec(key, algorithm string, now func() time.Time) (*jwtCodec, error) {
	if key == "" {
		return nil, domainerrors.NewConfigurationError("token.signingKey", "must not be empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, domainerrors.NewConfigurationError("token.algorithm", "must be one of HS256, HS384, HS512")
	}

	return &jwtCodec{
		key:    []byte(key),
		method: method,
		now:    now,
	}, nil
}

// Issue signs a token for subject that expires after ttl.
func (c *jwtCodec) Issue(subject string, claims service.TokenClaims, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}

	issuedAt := c.now()
	token := jwt.NewWithClaims(c.method, &tokenClaims{
		Role:      claims.Role,
		TokenType: claims.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// Verify checks the signature, then the expiry, then the required claims.
func (c *jwtCodec) Verify(tokenString string) (*service.VerifiedClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return c.key, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		// Non-canonical base64 would let the unused bits of the last signature character change.
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, classifyParseError(tokenString, err)
	}

	if claims.Subject == "" {
		return nil, errors.Wrap(service.ErrTokenMalformed, "missing subject")
	}

	verified := &service.VerifiedClaims{
		Subject: claims.Subject,
		Role:    claims.Role,
		Type:    claims.TokenType,
		ID:      claims.ID,
	}
	if claims.IssuedAt != nil {
		verified.IssuedAt = claims.IssuedAt.Time
	}
	verified.ExpiresAt = claims.ExpiresAt.Time

	return verified, nil
}

func classifyParseError(tokenString string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Wrap(service.ErrTokenInvalidSignature, err.Error())
	case errors.Is(err, jwt.ErrTokenMalformed) && onlySignatureUndecodable(tokenString):
		return errors.Wrap(service.ErrTokenInvalidSignature, err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrap(service.ErrTokenExpired, err.Error())
	default:
		return errors.Wrap(service.ErrTokenMalformed, err.Error())
	}
}

// onlySignatureUndecodable reports whether header and payload parse, so a malformed
// token can only have failed on its signature segment.
func onlySignatureUndecodable(tokenString string) bool {
	parser := jwt.NewParser(jwt.WithStrictDecoding())
	_, _, err := parser.ParseUnverified(tokenString, &tokenClaims{})

	return err == nil
}
