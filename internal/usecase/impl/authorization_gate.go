package impl

import (
	"context"
	"log/slog"

	deliverycontext "school/internal/delivery/context"
	"school/internal/domain/entity"
	domainerrors "school/internal/domain/errors"
	"school/internal/domain/repository"
	"school/internal/domain/service"
	"school/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type authorizationGate struct {
	codec        service.TokenCodec
	identityRepo repository.IdentityRepository
	metrics      service.AuthMetrics
	logger       *slog.Logger
}

// AuthorizationGateParams holds dependencies for the gate, injected by Fx.
type AuthorizationGateParams struct {
	fx.In

	Codec        service.TokenCodec
	IdentityRepo repository.IdentityRepository
	Metrics      service.AuthMetrics `optional:"true"`
	Logger       *slog.Logger
}

// NewAuthorizationGate is the constructor for authorizationGate.
func NewAuthorizationGate(params AuthorizationGateParams) usecase.AuthorizationGate {
	metrics := params.Metrics
	if metrics == nil {
		metrics = service.NopMetrics{}
	}

	return &authorizationGate{
		codec:        params.Codec,
		identityRepo: params.IdentityRepo,
		metrics:      metrics,
		logger:       params.Logger,
	}
}

func (g *authorizationGate) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, g.logger)
}

// Authorize implements usecase.AuthorizationGate.
func (g *authorizationGate) Authorize(ctx context.Context, token string, allowed entity.RoleSet) (*entity.Principal, error) {
	principal, err := g.authorize(ctx, token, allowed)
	g.metrics.ObserveAuthorize(outcomeOf(err))

	return principal, err
}

func (g *authorizationGate) authorize(ctx context.Context, token string, allowed entity.RoleSet) (*entity.Principal, error) {
	claims, err := g.codec.Verify(token)
	if err != nil {
		g.log(ctx).Debug("Rejected bearer token", slog.Any("error", err))

		return nil, domainerrors.ErrUnauthenticated
	}
	if claims.Role == "" || claims.Type == service.TokenTypeRefresh {
		return nil, domainerrors.ErrUnauthenticated
	}

	identityID, err := entity.ParseSubject(claims.Subject)
	if err != nil {
		return nil, domainerrors.ErrUnauthenticated
	}

	identity, err := g.identityRepo.FindByID(ctx, identityID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, domainerrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load token identity")
	}

	role := entity.RoleName(claims.Role)
	if !allowed.Contains(role) {
		g.log(ctx).Info("Role not allowed",
			slog.Uint64("identityID", identityID),
			slog.String("role", role.String()),
			slog.String("allowed", allowed.String()))

		return nil, domainerrors.ErrForbidden
	}

	return &entity.Principal{Identity: identity, Role: role}, nil
}
