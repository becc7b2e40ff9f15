// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"slices"

	"school/config"
	deliverycontext "school/internal/delivery/context"
	"school/internal/domain/entity"
	domainerrors "school/internal/domain/errors"
	"school/internal/domain/lifecycle"
	"school/internal/domain/repository"
	"school/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type identityResolver struct {
	identityRepo repository.IdentityRepository
	roleRepo     repository.RoleRepository
	defaultRole  entity.RoleName
	logger       *slog.Logger
}

// IdentityResolverParams holds dependencies for the resolver, injected by Fx.
type IdentityResolverParams struct {
	fx.In

	Lifecycle    fx.Lifecycle
	IdentityRepo repository.IdentityRepository
	RoleRepo     repository.RoleRepository
	Config       *config.Config
	Logger       *slog.Logger
}

// NewIdentityResolver builds the resolver and registers a start hook that fails the
// application when the default role is not seeded.
func NewIdentityResolver(params IdentityResolverParams) usecase.IdentityResolver {
	res := newIdentityResolver(params.IdentityRepo, params.RoleRepo, entity.RoleName(params.Config.Auth.DefaultRole), params.Logger)

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			return res.checkDefaultRole(ctx)
		},
	})

	return res
}

func newIdentityResolver(
	identityRepo repository.IdentityRepository,
	roleRepo repository.RoleRepository,
	defaultRole entity.RoleName,
	logger *slog.Logger,
) *identityResolver {
	return &identityResolver{
		identityRepo: identityRepo,
		roleRepo:     roleRepo,
		defaultRole:  defaultRole,
		logger:       logger,
	}
}

func (res *identityResolver) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, res.logger)
}

func (res *identityResolver) checkDefaultRole(ctx context.Context) error {
	_, err := res.roleRepo.FindByName(ctx, res.defaultRole)
	if errors.Is(err, repository.ErrRoleNotFound) {
		return domainerrors.NewConfigurationError("auth.defaultRole", "role "+res.defaultRole.String()+" does not exist in the roles table")
	}
	if err != nil {
		return errors.Wrap(err, "failed to load default role")
	}

	return nil
}

// ResolveOrProvision relies on the unique constraint on the external subject instead of locks:
// a provisioning race surfaces as ErrExternalSubjectConflict and resolves to the winner's row.
func (res *identityResolver) ResolveOrProvision(ctx context.Context, subject string, profile entity.ExternalProfile) (*entity.Identity, error) {
	if subject == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("external subject is empty")
	}

	identity, err := res.identityRepo.FindByExternalSubject(ctx, subject)
	if err == nil {
		return res.refreshProfile(ctx, identity, profile)
	}
	if !errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, errors.Wrap(err, "failed to find identity by external subject")
	}

	return res.provision(ctx, subject, profile)
}

func (res *identityResolver) provision(ctx context.Context, subject string, profile entity.ExternalProfile) (*entity.Identity, error) {
	role, err := res.roleRepo.FindByName(ctx, res.defaultRole)
	if errors.Is(err, repository.ErrRoleNotFound) {
		return nil, domainerrors.ErrInternalError.WrapMessage("default role " + res.defaultRole.String() + " is missing")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load default role")
	}

	identity := &entity.Identity{
		ExternalSubject: subject,
		Name:            profile.Name,
		Email:           profile.Email,
		RoleID:          &role.ID,
		Role:            role,
	}

	usernames := slices.Compact([]string{entity.DeriveUsername(subject), entity.FallbackUsername(subject)})
	for _, username := range usernames {
		identity.Username = username

		err := res.identityRepo.Create(ctx, identity)
		switch {
		case err == nil:
			res.log(ctx).Info("Provisioned federated identity",
				slog.Uint64("identityID", identity.ID),
				slog.String("username", identity.Username),
				slog.String("role", role.Name.String()))

			return identity, nil
		case errors.Is(err, repository.ErrExternalSubjectConflict):
			existing, findErr := res.identityRepo.FindByExternalSubject(ctx, subject)
			if findErr == nil {
				res.log(ctx).Debug("Lost provisioning race, using existing identity", slog.Uint64("identityID", existing.ID))

				return res.refreshProfile(ctx, existing, profile)
			}
			if !errors.Is(findErr, repository.ErrIdentityNotFound) {
				return nil, errors.Wrap(findErr, "failed to reload identity after conflict")
			}
			// Nobody holds the subject, so the collision was on the username.
		case errors.Is(err, repository.ErrUsernameConflict):
		default:
			return nil, errors.Wrap(err, "failed to create identity")
		}

		res.log(ctx).Warn("Provisioned username already taken", slog.String("username", username))
	}

	return nil, domainerrors.ErrUsernameTaken.WrapMessage("no free username for external subject")
}

func (res *identityResolver) refreshProfile(ctx context.Context, identity *entity.Identity, profile entity.ExternalProfile) (*entity.Identity, error) {
	if !identity.ApplyProfile(profile) {
		return identity, nil
	}
	if err := res.identityRepo.UpdateProfile(ctx, identity); err != nil {
		return nil, errors.Wrap(err, "failed to update identity profile")
	}

	return identity, nil
}
