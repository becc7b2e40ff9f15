package main

import (
	"log/slog"
	"os"

	"school/config"
	"school/internal/domain/repository"
	"school/internal/infra/auth"
	"school/internal/infra/persistence/postgres"
	"school/internal/usecase"
	"school/internal/usecase/impl"

	"github.com/pkg/errors"
)

// migrator is the subset of postgres.Migrator the migrate commands drive.
type migrator interface {
	Up() error
	Down(steps int) error
	Version() (version uint, dirty bool, err error)
	Close() error
}

// store bundles what the admin and session commands need from the database.
type store struct {
	users    usecase.UserUsecase
	sessions repository.SessionRepository
	close    func() error
}

// deps are the side-effecting constructors behind every command.
type deps struct {
	loadConfig  func() (*config.Config, error)
	newLogger   func(*config.Config) *slog.Logger
	newMigrator func(*config.Config, *slog.Logger) (migrator, error)
	openStore   func(*config.Config, *slog.Logger) (*store, error)
}

func defaultDeps() *deps {
	return &deps{
		// Token and provider settings are not needed here, so the config is loaded without Validate.
		loadConfig: config.Load,
		newLogger: func(cfg *config.Config) *slog.Logger {
			level := slog.LevelInfo
			if cfg.Env.Debug {
				level = slog.LevelDebug
			}

			return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
		newMigrator: func(cfg *config.Config, logger *slog.Logger) (migrator, error) {
			return postgres.NewMigrator(cfg, logger)
		},
		openStore: openPostgresStore,
	}
}

func openPostgresStore(cfg *config.Config, logger *slog.Logger) (*store, error) {
	db, err := postgres.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	users := impl.NewUserService(impl.UserServiceParams{
		TxManager:    postgres.NewTransactionManager(db, cfg),
		IdentityRepo: postgres.NewIdentityRepository(db, cfg),
		Hasher:       auth.NewBcryptHasher(cfg),
		Logger:       logger,
	})

	return &store{
		users:    users,
		sessions: postgres.NewSessionRepository(db, cfg),
		close:    sqlDB.Close,
	}, nil
}

// withStore opens the store, runs fn and closes the store.
func (d *deps) withStore(fn func(cfg *config.Config, logger *slog.Logger, s *store) error) error {
	cfg, err := d.loadConfig()
	if err != nil {
		return err
	}
	logger := d.newLogger(cfg)

	s, err := d.openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			logger.Warn("Failed to close database", slog.Any("error", err))
		}
	}()

	return fn(cfg, logger, s)
}
