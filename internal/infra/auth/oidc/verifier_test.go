package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://access.line.me"
	testClientID = "1650000000"
)

func newTestVerifier(t *testing.T, now time.Time) (*Verifier, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idTokenVerifier := oidc.NewVerifier(testIssuer,
		&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}},
		&oidc.Config{ClientID: testClientID, Now: func() time.Time { return now }},
	)

	return newVerifier(idTokenVerifier, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	return signed
}

func TestVerifier_VerifyExternalToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	verifier, key := newTestVerifier(t, now)

	token := signIDToken(t, key, jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testClientID,
		"sub":   "U123",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"name":  "Ann",
		"email": "ann@example.com",
	})

	identity, err := verifier.VerifyExternalToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "U123", identity.Subject)
	assert.Equal(t, "Ann", identity.Name)
	assert.Equal(t, "ann@example.com", identity.Email)
	assert.Equal(t, "oidc", verifier.Provider())
}

func TestVerifier_Rejects(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	verifier, key := newTestVerifier(t, now)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	valid := jwt.MapClaims{
		"iss": testIssuer,
		"aud": testClientID,
		"sub": "U123",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	with := func(key string, value any) jwt.MapClaims {
		claims := jwt.MapClaims{}
		for k, v := range valid {
			claims[k] = v
		}
		claims[key] = value

		return claims
	}

	tests := map[string]string{
		"wrong audience": signIDToken(t, key, with("aud", "someone-else")),
		"wrong issuer":   signIDToken(t, key, with("iss", "https://evil.example.com")),
		"expired":        signIDToken(t, key, with("exp", now.Add(-time.Minute).Unix())),
		"foreign key":    signIDToken(t, otherKey, valid),
		"garbage":        "not-a-jwt",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			identity, err := verifier.VerifyExternalToken(context.Background(), token)
			assert.Error(t, err)
			assert.Nil(t, identity)
		})
	}
}
