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

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	hasher       service.PasswordHasher
	logger       *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	Hasher       service.PasswordHasher
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		hasher:       params.Hasher,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Me returns the identity the gate attached to the request.
func (srv *userService) Me(_ context.Context, principal *entity.Principal) (*entity.Identity, error) {
	if principal == nil || principal.Identity == nil {
		return nil, domainerrors.ErrUnauthenticated
	}

	return principal.Identity, nil
}

// ListUsers returns a page of identities with their roles.
func (srv *userService) ListUsers(ctx context.Context, input usecase.ListUsersInput) ([]*entity.Identity, error) {
	input = input.Normalize()

	identities, err := srv.identityRepo.List(ctx, input.Offset, input.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list identities")
	}

	return identities, nil
}

// UpdateUserRole moves an identity to another role. Tokens already issued keep their role claim until they expire.
func (srv *userService) UpdateUserRole(ctx context.Context, userID uint64, role entity.RoleName) (*entity.Identity, error) {
	var updated *entity.Identity
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		roleRepo := repoFactory.NewRoleRepository()
		identityRepo := repoFactory.NewIdentityRepository()

		target, err := roleRepo.FindByName(ctx, role)
		if err != nil {
			return mapRoleError(err)
		}

		if err := identityRepo.UpdateRole(ctx, userID, target.ID); err != nil {
			switch {
			case errors.Is(err, repository.ErrIdentityNotFound):
				return domainerrors.ErrIdentityNotFound
			case errors.Is(err, repository.ErrRoleNotFound):
				return domainerrors.ErrRoleNotFound
			default:
				return errors.Wrap(err, "failed to update identity role")
			}
		}

		updated, err = identityRepo.FindByID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to reload identity")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Updated identity role", slog.Uint64("identityID", userID), slog.String("role", role.String()))

	return updated, nil
}

// CreatePasswordIdentity seeds an identity that logs in with a password.
func (srv *userService) CreatePasswordIdentity(ctx context.Context, input usecase.CreatePasswordIdentityInput) (*entity.Identity, error) {
	if input.Username == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("username is required")
	}

	hash, err := srv.hasher.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	roleName := input.Role
	if roleName == "" {
		roleName = entity.RoleAdmin
	}

	var created *entity.Identity
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		role, err := repoFactory.NewRoleRepository().FindByName(ctx, roleName)
		if err != nil {
			return mapRoleError(err)
		}

		identity := &entity.Identity{
			Username:     input.Username,
			PasswordHash: hash,
			Name:         input.Name,
			RoleID:       &role.ID,
			Role:         role,
		}
		if err := repoFactory.NewIdentityRepository().Create(ctx, identity); err != nil {
			if errors.Is(err, repository.ErrUsernameConflict) {
				return domainerrors.ErrUsernameTaken
			}

			return errors.Wrap(err, "failed to create identity")
		}
		created = identity

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Created password identity",
		slog.Uint64("identityID", created.ID),
		slog.String("username", created.Username),
		slog.String("role", roleName.String()))

	return created, nil
}

func mapRoleError(err error) error {
	if errors.Is(err, repository.ErrRoleNotFound) {
		return domainerrors.ErrRoleNotFound
	}

	return errors.Wrap(err, "failed to find role")
}
