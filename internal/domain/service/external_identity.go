package service

import "context"

// ExternalIdentity is what a federated provider asserts about the holder of an id token.
type ExternalIdentity struct {
	Subject string // Provider-issued stable user id (the "sub" claim).
	Name    string
	Email   string
}

// ExternalIdentityVerifier validates id tokens issued by a federated login provider.
type ExternalIdentityVerifier interface {
	// VerifyExternalToken returns the asserted identity, or an error when the token is
	// rejected or the provider cannot be reached.
	VerifyExternalToken(ctx context.Context, idToken string) (*ExternalIdentity, error)

	// Provider names the provider for logs and metrics.
	Provider() string
}
