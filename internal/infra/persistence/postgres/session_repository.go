package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"school/config"
	"school/internal/domain/entity"
	"school/internal/domain/repository"
	"school/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertSessionByUser overwrites the identity's row on uq_refresh_sessions_user_id when a
// concurrent ReplaceSession inserted after our DELETE ran.
var upsertSessionByUser = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at", "expires_at"}),
}

// sessionRepository implements the repository.SessionRepository interface using GORM.
type sessionRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB, cfg *config.Config) repository.SessionRepository {
	return newSessionRepository(db, cfg.Database.QueryTimeout)
}

func newSessionRepository(db *gorm.DB, timeout time.Duration) *sessionRepository {
	return &sessionRepository{db: db, timeout: timeout}
}

// hashToken returns the hex SHA-256 stored in place of the raw refresh token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

// ReplaceSession deletes every session of the identity and inserts the new one in one transaction.
// The schema allows one session per identity.
func (repo *sessionRepository) ReplaceSession(ctx context.Context, identityID uint64, token string, issuedAt, expiresAt time.Time) error {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", identityID).Delete(&model.RefreshSessionModel{}).Error; err != nil {
			return err
		}

		return tx.Clauses(upsertSessionByUser).Create(&model.RefreshSessionModel{
			UserID:    identityID,
			TokenHash: hashToken(token),
			CreatedAt: issuedAt,
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrIdentityNotFound
		}

		return translateError(err, nil, "replace refresh session")
	}

	return nil
}

// FindValidSession looks up the session for identity and token. An expired match is purged.
func (repo *sessionRepository) FindValidSession(ctx context.Context, identityID uint64, token string, now time.Time) (*entity.RefreshSession, error) {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	var sessionM model.RefreshSessionModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", identityID, hashToken(token)).
		First(&sessionM).Error
	if err != nil {
		return nil, translateError(err, repository.ErrSessionNotFound, "find refresh session")
	}

	session := toSessionDomain(&sessionM)
	if session.IsExpired(now) {
		if err := repo.db.WithContext(ctx).Delete(&model.RefreshSessionModel{}, sessionM.ID).Error; err != nil {
			return nil, translateError(err, nil, "purge expired refresh session")
		}

		return nil, repository.ErrSessionNotFound
	}

	return session, nil
}

// DeleteExpired removes sessions that expired at or before now.
func (repo *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	result := repo.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.RefreshSessionModel{})
	if result.Error != nil {
		return 0, translateError(result.Error, nil, "delete expired refresh sessions")
	}

	return result.RowsAffected, nil
}

func toSessionDomain(data *model.RefreshSessionModel) *entity.RefreshSession {
	return &entity.RefreshSession{
		ID:         data.ID,
		IdentityID: data.UserID,
		TokenHash:  data.TokenHash,
		CreatedAt:  data.CreatedAt,
		ExpiresAt:  data.ExpiresAt,
	}
}
