package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"school/config"
	deliverycontext "school/internal/delivery/context"
	"school/internal/domain/entity"
	domainerrors "school/internal/domain/errors"
	"school/internal/domain/repository"
	"school/internal/domain/service"
	"school/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// dummyPassword is hashed once and compared against when a login names no usable identity,
// so the response time does not reveal whether the username exists.
const dummyPassword = "school-dummy-password"

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	identityRepo repository.IdentityRepository
	sessionRepo  repository.SessionRepository
	resolver     usecase.IdentityResolver
	hasher       service.PasswordHasher
	codec        service.TokenCodec
	verifier     service.ExternalIdentityVerifier
	metrics      service.AuthMetrics
	accessTTL    time.Duration
	refreshTTL   time.Duration
	now          func() time.Time
	logger       *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	IdentityRepo repository.IdentityRepository
	SessionRepo  repository.SessionRepository
	Resolver     usecase.IdentityResolver
	Hasher       service.PasswordHasher
	Codec        service.TokenCodec
	Verifier     service.ExternalIdentityVerifier
	Metrics      service.AuthMetrics `optional:"true"`
	Config       *config.Config
	Logger       *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	metrics := params.Metrics
	if metrics == nil {
		metrics = service.NopMetrics{}
	}

	return &sessionService{
		identityRepo: params.IdentityRepo,
		sessionRepo:  params.SessionRepo,
		resolver:     params.Resolver,
		hasher:       params.Hasher,
		codec:        params.Codec,
		verifier:     params.Verifier,
		metrics:      metrics,
		accessTTL:    params.Config.Token.AccessTTL(),
		refreshTTL:   params.Config.Token.RefreshTTL(),
		now:          time.Now,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// PasswordLogin implements usecase.SessionUsecase.
func (srv *sessionService) PasswordLogin(ctx context.Context, username, password string) (*usecase.AccessOnly, error) {
	result, err := srv.passwordLogin(ctx, username, password)
	srv.metrics.ObserveLogin(service.FlowPassword, outcomeOf(err))

	return result, err
}

func (srv *sessionService) passwordLogin(ctx context.Context, username, password string) (*usecase.AccessOnly, error) {
	identity, err := srv.identityRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, errors.Wrap(err, "failed to find identity by username")
	}

	if identity == nil || !identity.HasPassword() {
		srv.compareDummy(password)
		srv.log(ctx).Info("Password login rejected", slog.String("username", username), slog.String("reason", "no password identity"))

		return nil, domainerrors.ErrInvalidCredentials
	}

	if !srv.hasher.VerifyPassword(password, identity.PasswordHash) {
		srv.log(ctx).Info("Password login rejected", slog.String("username", username), slog.String("reason", "password mismatch"))

		return nil, domainerrors.ErrInvalidCredentials
	}

	accessToken, err := srv.issueAccess(identity)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Password login succeeded", slog.Uint64("identityID", identity.ID))

	return &usecase.AccessOnly{AccessToken: accessToken, TokenType: usecase.TokenTypeBearer}, nil
}

func (srv *sessionService) compareDummy(password string) {
	srv.dummyOnce.Do(func() {
		hash, err := srv.hasher.HashPassword(dummyPassword)
		if err != nil {
			srv.logger.Error("Failed to hash dummy password", slog.Any("error", err))

			return
		}
		srv.dummyHash = hash
	})

	srv.hasher.VerifyPassword(password, srv.dummyHash)
}

// FederatedLogin implements usecase.SessionUsecase.
func (srv *sessionService) FederatedLogin(ctx context.Context, idToken string) (*usecase.AccessAndRefresh, error) {
	result, err := srv.federatedLogin(ctx, idToken)
	srv.metrics.ObserveLogin(service.FlowFederated, outcomeOf(err))

	return result, err
}

func (srv *sessionService) federatedLogin(ctx context.Context, idToken string) (*usecase.AccessAndRefresh, error) {
	if idToken == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("id_token is required")
	}

	external, err := srv.verifyExternal(ctx, idToken)
	if err != nil {
		return nil, err
	}

	identity, err := srv.resolver.ResolveOrProvision(ctx, external.Subject, entity.ExternalProfile{
		Name:  external.Name,
		Email: external.Email,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve federated identity")
	}

	accessToken, err := srv.issueAccess(identity)
	if err != nil {
		return nil, err
	}

	// Refresh tokens carry no role; Refresh reads it from the identity when it mints access.
	refreshToken, err := srv.codec.Issue(identity.SubjectString(), service.TokenClaims{
		Type: service.TokenTypeRefresh,
	}, srv.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue refresh token")
	}

	issuedAt := srv.now()
	if err := srv.sessionRepo.ReplaceSession(ctx, identity.ID, refreshToken, issuedAt, issuedAt.Add(srv.refreshTTL)); err != nil {
		return nil, errors.Wrap(err, "failed to store refresh session")
	}

	srv.log(ctx).Info("Federated login succeeded",
		slog.Uint64("identityID", identity.ID),
		slog.String("provider", srv.verifier.Provider()))

	return &usecase.AccessAndRefresh{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    usecase.TokenTypeBearer,
	}, nil
}

// verifyExternal hides every verifier failure behind ErrInvalidExternalToken. The cause is logged only.
func (srv *sessionService) verifyExternal(ctx context.Context, idToken string) (*service.ExternalIdentity, error) {
	start := time.Now()
	external, err := srv.verifier.VerifyExternalToken(ctx, idToken)
	if err == nil && external.Subject == "" {
		err = errors.New("verifier returned an empty subject")
	}
	if err != nil {
		srv.metrics.ObserveExternalVerify(srv.verifier.Provider(), outcomeOf(domainerrors.ErrInvalidExternalToken), time.Since(start))
		srv.log(ctx).Warn("External token verification failed",
			slog.String("provider", srv.verifier.Provider()),
			slog.Any("error", err))

		return nil, domainerrors.ErrInvalidExternalToken
	}
	srv.metrics.ObserveExternalVerify(srv.verifier.Provider(), service.OutcomeSuccess, time.Since(start))

	return external, nil
}

// Refresh implements usecase.SessionUsecase.
func (srv *sessionService) Refresh(ctx context.Context, refreshToken string) (*usecase.AccessOnly, error) {
	result, err := srv.refresh(ctx, refreshToken)
	srv.metrics.ObserveRefresh(outcomeOf(err))

	return result, err
}

func (srv *sessionService) refresh(ctx context.Context, refreshToken string) (*usecase.AccessOnly, error) {
	claims, err := srv.codec.Verify(refreshToken)
	if err != nil {
		srv.log(ctx).Debug("Rejected refresh token", slog.Any("error", err))

		return nil, domainerrors.ErrRefreshTokenInvalid
	}
	if claims.Type == service.TokenTypeAccess {
		return nil, domainerrors.ErrRefreshTokenInvalid
	}

	identityID, err := entity.ParseSubject(claims.Subject)
	if err != nil {
		return nil, domainerrors.ErrRefreshTokenInvalid
	}

	_, err = srv.sessionRepo.FindValidSession(ctx, identityID, refreshToken, srv.now())
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, domainerrors.ErrRefreshTokenInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find refresh session")
	}

	identity, err := srv.identityRepo.FindByID(ctx, identityID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, domainerrors.ErrIdentityNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load identity")
	}

	accessToken, err := srv.issueAccess(identity)
	if err != nil {
		return nil, err
	}

	return &usecase.AccessOnly{AccessToken: accessToken, TokenType: usecase.TokenTypeBearer}, nil
}

// PurgeExpiredSessions implements usecase.SessionUsecase.
func (srv *sessionService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := srv.sessionRepo.DeleteExpired(ctx, srv.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired sessions")
	}

	srv.log(ctx).Info("Purged expired refresh sessions", slog.Int64("deleted", deleted))

	return deleted, nil
}

func (srv *sessionService) issueAccess(identity *entity.Identity) (string, error) {
	token, err := srv.codec.Issue(identity.SubjectString(), service.TokenClaims{
		Role: entity.ResolveRoleName(identity).String(),
		Type: service.TokenTypeAccess,
	}, srv.accessTTL)
	if err != nil {
		return "", errors.Wrap(err, "failed to issue access token")
	}

	return token, nil
}
