package postgres

import (
	"context"
	"testing"
	"time"

	"school/internal/domain/entity"
	domainerrors "school/internal/domain/errors"
	"school/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"user_id", "username", "password_hash", "external_subject", "name", "email", "role_id", "created_at", "updated_at",
}

func TestIdentityRepository_FindByExternalSubject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE external_subject = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(12, "user_U123", nil, "U123", "Ann", nil, 3, now, now))
	mock.ExpectQuery(`SELECT \* FROM "roles" WHERE "roles"."role_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "name", "description"}).
			AddRow(3, "student", "Learner"))

	identity, err := repo.FindByExternalSubject(context.Background(), "U123")
	require.NoError(t, err)

	assert.Equal(t, uint64(12), identity.ID)
	assert.Equal(t, "user_U123", identity.Username)
	assert.Equal(t, "U123", identity.ExternalSubject)
	assert.Equal(t, "Ann", identity.Name)
	assert.Empty(t, identity.Email)
	assert.False(t, identity.HasPassword())
	require.NotNil(t, identity.Role)
	assert.Equal(t, entity.RoleStudent, identity.Role.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_FindByUsername_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.True(t, errors.Is(err, repository.ErrIdentityNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_FindByID_StorageUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE user_id = \$1`).
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.FindByID(context.Background(), 12)
	assert.True(t, errors.Is(err, domainerrors.ErrStorageUnavailable), "got %v", err)
	assert.Equal(t, domainerrors.KindInfrastructure, domainerrors.KindOf(err))
}

func TestIdentityRepository_FindByID_DatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE user_id = \$1`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.FindByID(context.Background(), 12)

	var dbErr *domainerrors.DatabaseExecuteError
	assert.True(t, errors.As(err, &dbErr), "got %v", err)
}

func TestIdentityRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)
	roleID := uint64(3)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(41))

	identity := &entity.Identity{
		Username:        "user_U123",
		ExternalSubject: "U123",
		Name:            "Ann",
		RoleID:          &roleID,
	}
	require.NoError(t, repo.Create(context.Background(), identity))

	assert.Equal(t, uint64(41), identity.ID)
	assert.False(t, identity.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_Create_UniqueViolations(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		identity *entity.Identity
		want     error
	}{
		{
			name:     "external subject constraint",
			err:      &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_external_subject"},
			identity: &entity.Identity{Username: "user_U123", ExternalSubject: "U123"},
			want:     repository.ErrExternalSubjectConflict,
		},
		{
			name:     "username constraint",
			err:      &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_username"},
			identity: &entity.Identity{Username: "user_U123", ExternalSubject: "U123"},
			want:     repository.ErrUsernameConflict,
		},
		{
			name:     "unnamed violation on a password identity",
			err:      &pgconn.PgError{Code: "23505"},
			identity: &entity.Identity{Username: "admin1", PasswordHash: "$2a$10$hash"},
			want:     repository.ErrUsernameConflict,
		},
		{
			name:     "unknown role",
			err:      &pgconn.PgError{Code: "23503", ConstraintName: "users_role_id_fkey"},
			identity: &entity.Identity{Username: "admin1", PasswordHash: "$2a$10$hash"},
			want:     repository.ErrRoleNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := newIdentityRepository(db, time.Second)

			mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(tt.err)

			err := repo.Create(context.Background(), tt.identity)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Zero(t, tt.identity.ID)
		})
	}
}

func TestIdentityRepository_UpdateProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	identity := &entity.Identity{ID: 12, Name: "Ann", Email: "ann@example.com"}
	require.NoError(t, repo.UpdateProfile(context.Background(), identity))
	assert.False(t, identity.UpdatedAt.IsZero())

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateProfile(context.Background(), &entity.Identity{ID: 99, Name: "Nobody"})
	assert.True(t, errors.Is(err, repository.ErrIdentityNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_UpdateRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateRole(context.Background(), 12, 1))

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, errors.Is(repo.UpdateRole(context.Background(), 99, 1), repository.ErrIdentityNotFound))

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnError(&pgconn.PgError{Code: "23503"})
	assert.True(t, errors.Is(repo.UpdateRole(context.Background(), 12, 77), repository.ErrRoleNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newIdentityRepository(db, time.Second)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "users" ORDER BY user_id`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "admin1", "$2a$10$hash", nil, "Admin", nil, 1, now, now).
			AddRow(2, "user_U123", nil, "U123", "Ann", nil, nil, now, now))
	mock.ExpectQuery(`SELECT \* FROM "roles" WHERE "roles"."role_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "name", "description"}).AddRow(1, "admin", nil))

	identities, err := repo.List(context.Background(), 0, 50)
	require.NoError(t, err)
	require.Len(t, identities, 2)

	assert.Equal(t, entity.RoleAdmin, identities[0].Role.Name)
	assert.Nil(t, identities[1].Role)
	assert.Equal(t, entity.LegacyFallbackRole, entity.ResolveRoleName(identities[1]))
	assert.NoError(t, mock.ExpectationsWereMet())
}
