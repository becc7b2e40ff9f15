package postgres

import (
	"context"

	domainerrors "school/internal/domain/errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Constraint names declared by the migrations.
const (
	constraintUsersUsername        = "uq_users_username"
	constraintUsersExternalSubject = "uq_users_external_subject"
)

// uniqueViolation reports whether err is a unique violation and, when the driver
// exposes it, the violated constraint.
func uniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}

	return "", errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}

	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.CheckViolation
	}

	return errors.Is(err, gorm.ErrCheckConstraintViolated)
}

// isUnavailable reports deadline, cancellation and connection-level timeouts.
func isUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		pgconn.Timeout(err)
}

// translateError maps driver errors onto the domain: record-not-found becomes notFound,
// timeouts become ErrStorageUnavailable, everything else a DatabaseExecuteError.
func translateError(err error, notFound error, operation string) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case isUnavailable(err):
		return domainerrors.ErrStorageUnavailable.WrapMessage(operation + ": " + err.Error())
	default:
		return domainerrors.NewDatabaseExecuteError(err, operation)
	}
}
