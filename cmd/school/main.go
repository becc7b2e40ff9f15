package main

import (
	"context"
	"log/slog"
	"os"

	"school/config"
	"school/internal/delivery"
	"school/internal/delivery/api"
	apimiddleware "school/internal/delivery/api/middleware"
	"school/internal/delivery/api/router/handler"
	"school/internal/delivery/worker"
	"school/internal/domain/service"
	"school/internal/infra/auth"
	"school/internal/infra/auth/line"
	"school/internal/infra/auth/oidc"
	logs "school/internal/infra/log"
	"school/internal/infra/metrics"
	"school/internal/infra/persistence/postgres"
	"school/internal/usecase/impl"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			migrateOnStart,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		postgres.New,
		metrics.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewIdentityRepository,
			postgres.NewRoleRepository,
			postgres.NewSessionRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTCodec,
			newExternalIdentityVerifier,
			func(c *metrics.Collector) service.AuthMetrics { return c },
		),
	)
}

// newExternalIdentityVerifier picks the federated provider named in config.
func newExternalIdentityVerifier(cfg *config.Config, logger *slog.Logger) (service.ExternalIdentityVerifier, error) {
	switch cfg.Federated.Provider {
	case config.ProviderOIDC:
		verifier, err := oidc.NewVerifier(cfg, logger)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create OIDC verifier")
		}

		return verifier, nil
	default:
		return line.NewVerifier(cfg, logger), nil
	}
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewIdentityResolver,
			impl.NewAuthorizationGate,
			impl.NewSessionService,
			impl.NewUserService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			apimiddleware.NewAuthMiddleware,
			apimiddleware.NewRateLimitMiddleware,
			apimiddleware.NewMetricsMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewSessionSweeper,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// migrateOnStart applies pending migrations before any other start hook touches the schema.
func migrateOnStart(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) {
	if !cfg.Database.AutoMigrate {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return postgres.MigrateUp(cfg, logger)
		},
	})
}

func startServer(params startServerParams) {
	params.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, d := range params.Deliveries {
				go func() {
					if err := d.Serve(context.Background()); err != nil {
						slog.Error("Failed to start server", slog.Any("error", err))
						os.Exit(1)
					}
				}()
			}

			return nil
		},
	})
}
