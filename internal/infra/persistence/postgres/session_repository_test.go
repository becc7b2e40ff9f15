package postgres

import (
	"context"
	"testing"
	"time"

	"school/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionColumns = []string{"session_id", "user_id", "token_hash", "created_at", "expires_at"}

func TestHashToken(t *testing.T) {
	hash := hashToken("refresh-token")

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, hashToken("refresh-token"))
	assert.NotEqual(t, hash, hashToken("refresh-token2"))
}

func TestSessionRepository_ReplaceSession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newSessionRepository(db, time.Second)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_sessions" WHERE user_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "refresh_sessions" .* ON CONFLICT \("user_id"\) DO UPDATE SET "token_hash"="excluded"."token_hash"`).
		WithArgs(sqlmock.AnyArg(), hashToken("t2"), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow(2))
	mock.ExpectCommit()

	err := repo.ReplaceSession(context.Background(), 7, "t2", now, now.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ReplaceSession_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newSessionRepository(db, time.Second)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_sessions" WHERE user_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "refresh_sessions"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.ReplaceSession(context.Background(), 7, "t2", now, now.Add(time.Hour))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ReplaceSession_UnknownIdentity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newSessionRepository(db, time.Second)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_sessions"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "refresh_sessions"`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "refresh_sessions_user_id_fkey"})
	mock.ExpectRollback()

	err := repo.ReplaceSession(context.Background(), 404, "t", now, now.Add(time.Hour))
	assert.True(t, errors.Is(err, repository.ErrIdentityNotFound), "got %v", err)
}

func TestSessionRepository_FindValidSession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newSessionRepository(db, time.Second)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "refresh_sessions" WHERE user_id = \$1 AND token_hash = \$2`).
		WillReturnRows(sqlmock.NewRows(sessionColumns).
			AddRow(2, 7, hashToken("t2"), now.Add(-time.Hour), now.Add(time.Hour)))

	session, err := repo.FindValidSession(context.Background(), 7, "t2", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), session.IdentityID)
	assert.Equal(t, hashToken("t2"), session.TokenHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindValidSession_ExpiredRowIsPurged(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newSessionRepository(db, time.Second)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "refresh_sessions" WHERE user_id = \$1 AND token_hash = \$2`).
		WillReturnRows(sqlmock.NewRows(sessionColumns).
			AddRow(2, 7, hashToken("t2"), now.Add(-31*24*time.Hour), now.Add(-time.Hour)))
	mock.ExpectExec(`DELETE FROM "refresh_sessions" WHERE "refresh_sessions"."session_id" = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.FindValidSession(context.Background(), 7, "t2", now)
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindValidSession_Absent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newSessionRepository(db, time.Second)

	mock.ExpectQuery(`SELECT \* FROM "refresh_sessions"`).
		WillReturnRows(sqlmock.NewRows(sessionColumns))

	_, err := repo.FindValidSession(context.Background(), 7, "t1", time.Now())
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newSessionRepository(db, time.Second)

	mock.ExpectExec(`DELETE FROM "refresh_sessions" WHERE expires_at <= \$1`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
