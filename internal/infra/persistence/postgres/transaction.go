package postgres

import (
	"context"
	"time"

	"school/config"
	"school/internal/domain/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type gormTransactionManager struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewTransactionManager runs units of work on db, each bounded by database.queryTimeout.
func NewTransactionManager(db *gorm.DB, cfg *config.Config) repository.TransactionManager {
	return &gormTransactionManager{db: db, timeout: cfg.Database.QueryTimeout}
}

// txRepositories hands out repositories bound to one open transaction. They share its
// deadline and carry no timeout of their own.
type txRepositories struct {
	tx *gorm.DB
}

func (f txRepositories) NewIdentityRepository() repository.IdentityRepository {
	return newIdentityRepository(f.tx, 0)
}

func (f txRepositories) NewRoleRepository() repository.RoleRepository {
	return newRoleRepository(f.tx, 0)
}

func (f txRepositories) NewSessionRepository() repository.SessionRepository {
	return newSessionRepository(f.tx, 0)
}

// Execute commits when fn returns nil and rolls back otherwise. A panic inside fn rolls
// back and is re-raised.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) (err error) {
	ctx, cancel := withQueryTimeout(ctx, tm.timeout)
	defer cancel()

	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return translateError(tx.Error, nil, "begin transaction")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if rbErr := tx.Rollback().Error; rbErr != nil {
			err = errors.Wrapf(err, "transaction rollback failed: %v", rbErr)
		}
	}()

	if err = fn(txRepositories{tx: tx}); err != nil {
		return err
	}

	committed = true
	if cErr := tx.Commit().Error; cErr != nil {
		return translateError(cErr, nil, "commit transaction")
	}

	return nil
}
