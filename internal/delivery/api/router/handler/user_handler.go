package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"school/internal/delivery/api/middleware"
	"school/internal/delivery/api/response"
	"school/internal/domain/entity"
	domainerrors "school/internal/domain/errors"
	"school/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	UserUC usecase.UserUsecase
	Logger *slog.Logger
}

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	userUC usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler.
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		userUC: params.UserUC,
		logger: params.Logger,
	}
}

// UserProfile is the public view of an identity.
type UserProfile struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	Federated bool      `json:"federated"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateRoleRequest names the role to assign.
type UpdateRoleRequest struct {
	RoleName string `json:"role_name" validate:"required"`
}

// ListUsersQuery pages the identity listing.
type ListUsersQuery struct {
	Offset int `query:"offset" validate:"gte=0"`
	Limit  int `query:"limit" validate:"gte=0"`
}

func toUserProfile(identity *entity.Identity) UserProfile {
	return UserProfile{
		ID:        identity.ID,
		Username:  identity.Username,
		Name:      identity.Name,
		Email:     identity.Email,
		Role:      entity.ResolveRoleName(identity).String(),
		Federated: identity.IsFederated(),
		CreatedAt: identity.CreatedAt,
	}
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return domainerrors.ErrUnauthenticated
	}

	identity, err := h.userUC.Me(c.Request().Context(), principal)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, toUserProfile(identity))
}

// ListUsers returns a page of profiles.
func (h *UserHandler) ListUsers(c echo.Context) error {
	var query ListUsersQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}

	input := usecase.ListUsersInput{Offset: query.Offset, Limit: query.Limit}.Normalize()
	identities, err := h.userUC.ListUsers(c.Request().Context(), input)
	if err != nil {
		return err
	}

	profiles := make([]UserProfile, 0, len(identities))
	for _, identity := range identities {
		profiles = append(profiles, toUserProfile(identity))
	}

	return response.Page(c, profiles, input.Offset, input.Limit)
}

// UpdateUserRole assigns a new role to the identity named in the path.
func (h *UserHandler) UpdateUserRole(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		return domainerrors.ErrValidationFailed.WithDetails("invalid user id")
	}

	var req UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	identity, err := h.userUC.UpdateUserRole(c.Request().Context(), userID, entity.RoleName(req.RoleName))
	if err != nil {
		return err
	}

	h.logger.InfoContext(c.Request().Context(), "identity role updated",
		slog.Uint64("identity_id", identity.ID),
		slog.String("role", req.RoleName),
	)

	return response.Success(c, http.StatusOK, toUserProfile(identity))
}
