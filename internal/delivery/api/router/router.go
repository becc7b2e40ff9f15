// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"school/config"
	"school/internal/delivery/api/middleware"
	"school/internal/delivery/api/router/handler"
	"school/internal/domain/entity"
	"school/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

var (
	adminOnly = entity.RoleSet{entity.RoleAdmin}
	staffOnly = entity.RoleSet{entity.RoleAdmin, entity.RoleTeacher}
	anyRole   = entity.RoleSet{entity.RoleAdmin, entity.RoleTeacher, entity.RoleStudent}
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	Metrics             *metrics.Collector
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	metrics             *metrics.Collector
	config              *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:         params.AuthHandler,
		userHandler:         params.UserHandler,
		authMiddleware:      params.AuthMiddleware,
		rateLimitMiddleware: params.RateLimitMiddleware,
		metrics:             params.Metrics,
		config:              params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	e.POST("/admin/login", r.authHandler.AdminLogin, r.rateLimitMiddleware.Handle)

	lineGroup := e.Group("/auth/line", r.rateLimitMiddleware.Handle)
	{
		lineGroup.POST("/login", r.authHandler.FederatedLogin)
		lineGroup.POST("/refresh", r.authHandler.Refresh)
	}

	userGroup := e.Group("/users")
	{
		userGroup.GET("/me", r.userHandler.Me, r.authMiddleware.Require(anyRole))
		userGroup.GET("", r.userHandler.ListUsers, r.authMiddleware.Require(staffOnly))
		userGroup.PUT("/:id/role", r.userHandler.UpdateUserRole, r.authMiddleware.Require(adminOnly))
	}
}

// RegisterMetricsRoute exposes the prometheus registry when metrics are enabled.
func (r *router) RegisterMetricsRoute(e *echo.Echo) {
	if !r.config.Metrics.Enabled {
		return
	}

	path := r.config.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	e.GET(path, echo.WrapHandler(r.metrics.Handler()))
}
