// Package oidc verifies federated id tokens with OpenID Connect discovery and JWKS.
package oidc

import (
	"context"
	"log/slog"
	"time"

	"school/config"
	"school/internal/domain/service"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
)

const providerName = "oidc"

// profileClaims are the optional profile claims copied onto the identity.
type profileClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Verifier checks id tokens locally against the issuer's published keys.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// NewVerifier discovers the issuer configured in federated.issuer and returns a verifier
// bound to federated.clientId as the expected audience.
func NewVerifier(cfg *config.Config, logger *slog.Logger) (*Verifier, error) {
	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout(cfg.Federated.Timeout))
	defer cancel()

	provider, err := oidc.NewProvider(ctx, cfg.Federated.Issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "discover oidc issuer %s", cfg.Federated.Issuer)
	}

	return newVerifier(provider.Verifier(&oidc.Config{ClientID: cfg.Federated.ClientID}), logger), nil
}

func newVerifier(verifier *oidc.IDTokenVerifier, logger *slog.Logger) *Verifier {
	return &Verifier{verifier: verifier, logger: logger}
}

func discoveryTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return 10 * time.Second
	}

	return configured
}

// Provider implements service.ExternalIdentityVerifier.
func (v *Verifier) Provider() string {
	return providerName
}

// VerifyExternalToken implements service.ExternalIdentityVerifier.
func (v *Verifier) VerifyExternalToken(ctx context.Context, rawIDToken string) (*service.ExternalIdentity, error) {
	token, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "verify id token")
	}

	var claims profileClaims
	if err := token.Claims(&claims); err != nil {
		v.logger.WarnContext(ctx, "Failed to decode id token profile claims",
			slog.String("subject", token.Subject),
			slog.Any("error", err))
	}

	return &service.ExternalIdentity{
		Subject: token.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
	}, nil
}
