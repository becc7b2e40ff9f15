// Package usecase contains the application-specific business rules.
package usecase

import "context"

// TokenTypeBearer is the token_type reported with every issued access token.
const TokenTypeBearer = "bearer"

// LoginResult is the outcome of a successful login. It is either *AccessOnly or
// *AccessAndRefresh; no other implementation exists.
type LoginResult interface {
	loginResult()
	// Access returns the issued access token.
	Access() string
}

// AccessOnly is issued by password login and by refresh.
type AccessOnly struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AccessAndRefresh is issued by federated login.
type AccessAndRefresh struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (*AccessOnly) loginResult()       {}
func (*AccessAndRefresh) loginResult() {}

// Access returns the access token.
func (r *AccessOnly) Access() string { return r.AccessToken }

// Access returns the access token.
func (r *AccessAndRefresh) Access() string { return r.AccessToken }

// SessionUsecase issues credentials for both login flows and maintains refresh sessions.
type SessionUsecase interface {
	// PasswordLogin authenticates a password identity. No refresh token is issued.
	PasswordLogin(ctx context.Context, username, password string) (*AccessOnly, error)

	// FederatedLogin verifies a provider id token, provisions the identity on first sight,
	// and replaces the identity's refresh session.
	FederatedLogin(ctx context.Context, idToken string) (*AccessAndRefresh, error)

	// Refresh exchanges a live refresh token for a new access token. The refresh token is not rotated.
	Refresh(ctx context.Context, refreshToken string) (*AccessOnly, error)

	// PurgeExpiredSessions deletes refresh sessions that are past their expiry.
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}
