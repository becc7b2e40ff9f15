package handler

import (
	"log/slog"

	"school/internal/delivery/api/response"
	"school/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	SessionUC usecase.SessionUsecase
	Logger    *slog.Logger
}

// AuthHandler serves the login and refresh endpoints.
type AuthHandler struct {
	sessionUC usecase.SessionUsecase
	logger    *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		sessionUC: params.SessionUC,
		logger:    params.Logger,
	}
}

// AdminLoginRequest is the form body of the password login.
type AdminLoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// FederatedLoginRequest carries the provider-issued ID token.
type FederatedLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// RefreshRequest carries a refresh token issued by FederatedLogin.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AdminLogin exchanges a username and password for an access token.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req AdminLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.sessionUC.PasswordLogin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return response.Token(c, result)
}

// FederatedLogin exchanges a provider ID token for an access and refresh token pair.
func (h *AuthHandler) FederatedLogin(c echo.Context) error {
	var req FederatedLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.sessionUC.FederatedLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}

	return response.Token(c, result)
}

// Refresh mints a new access token. The refresh token is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.sessionUC.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return response.Token(c, result)
}
