package postgres

import (
	"context"
	"time"

	"school/config"
	"school/internal/domain/entity"
	"school/internal/domain/repository"
	"school/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// identityRepository implements the repository.IdentityRepository interface using GORM.
type identityRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewIdentityRepository is the constructor for identityRepository.
func NewIdentityRepository(db *gorm.DB, cfg *config.Config) repository.IdentityRepository {
	return newIdentityRepository(db, cfg.Database.QueryTimeout)
}

func newIdentityRepository(db *gorm.DB, timeout time.Duration) *identityRepository {
	return &identityRepository{db: db, timeout: timeout}
}

// FindByID retrieves an identity with its role.
func (repo *identityRepository) FindByID(ctx context.Context, id uint64) (*entity.Identity, error) {
	return repo.findOne(ctx, "find identity by id", "user_id = ?", id)
}

// FindByUsername retrieves an identity by login name.
func (repo *identityRepository) FindByUsername(ctx context.Context, username string) (*entity.Identity, error) {
	return repo.findOne(ctx, "find identity by username", "username = ?", username)
}

// FindByExternalSubject retrieves the identity bound to a federated subject.
func (repo *identityRepository) FindByExternalSubject(ctx context.Context, subject string) (*entity.Identity, error) {
	return repo.findOne(ctx, "find identity by external subject", "external_subject = ?", subject)
}

func (repo *identityRepository) findOne(ctx context.Context, operation, query string, args ...any) (*entity.Identity, error) {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Preload("Role").
		Where(query, args...).
		First(&userM).Error
	if err != nil {
		return nil, translateError(err, repository.ErrIdentityNotFound, operation)
	}

	return toIdentityDomain(&userM), nil
}

// Create persists a new identity. Unique violations are reported per constraint so the
// caller can tell a lost provisioning race from a username collision.
func (repo *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	userM := fromIdentityDomain(identity)
	if err := repo.db.WithContext(ctx).Omit("Role").Create(userM).Error; err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch {
			case constraint == constraintUsersExternalSubject:
				return repository.ErrExternalSubjectConflict
			case constraint == constraintUsersUsername:
				return repository.ErrUsernameConflict
			case identity.IsFederated():
				// Without a constraint name the subject is the likelier collision;
				// the resolver re-fetches and falls back to a username conflict.
				return repository.ErrExternalSubjectConflict
			default:
				return repository.ErrUsernameConflict
			}
		}
		if isForeignKeyViolation(err) {
			return errors.Wrap(repository.ErrRoleNotFound, "create identity")
		}
		if isCheckViolation(err) {
			return errors.New("identity needs a password hash or an external subject")
		}

		return translateError(err, nil, "create identity")
	}

	identity.ID = userM.ID
	identity.CreatedAt = userM.CreatedAt
	identity.UpdatedAt = userM.UpdatedAt

	return nil
}

// UpdateProfile persists name and email.
func (repo *identityRepository) UpdateProfile(ctx context.Context, identity *entity.Identity) error {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	now := time.Now()
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("user_id = ?", identity.ID).
		Updates(map[string]any{
			"name":       nullableString(identity.Name),
			"email":      nullableString(identity.Email),
			"updated_at": now,
		})
	if result.Error != nil {
		return translateError(result.Error, nil, "update identity profile")
	}
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}
	identity.UpdatedAt = now

	return nil
}

// UpdateRole points the identity at roleID.
func (repo *identityRepository) UpdateRole(ctx context.Context, id uint64, roleID uint64) error {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("user_id = ?", id).
		Updates(map[string]any{
			"role_id":    roleID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return repository.ErrRoleNotFound
		}

		return translateError(result.Error, nil, "update identity role")
	}
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	return nil
}

// List returns a page of identities ordered by id.
func (repo *identityRepository) List(ctx context.Context, offset, limit int) ([]*entity.Identity, error) {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	var userMs []*model.UserModel
	err := repo.db.WithContext(ctx).
		Preload("Role").
		Order("user_id").
		Offset(offset).
		Limit(limit).
		Find(&userMs).Error
	if err != nil {
		return nil, translateError(err, nil, "list identities")
	}

	identities := make([]*entity.Identity, 0, len(userMs))
	for _, userM := range userMs {
		identities = append(identities, toIdentityDomain(userM))
	}

	return identities, nil
}

// --- Mapper Functions ---

// toIdentityDomain converts a GORM UserModel to a domain Identity entity.
func toIdentityDomain(data *model.UserModel) *entity.Identity {
	if data == nil {
		return nil
	}

	return &entity.Identity{
		ID:              data.ID,
		Username:        derefString(data.Username),
		PasswordHash:    derefString(data.PasswordHash),
		ExternalSubject: derefString(data.ExternalSubject),
		Name:            derefString(data.Name),
		Email:           derefString(data.Email),
		RoleID:          data.RoleID,
		Role:            toRoleDomain(data.Role),
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}

// fromIdentityDomain converts a domain Identity entity to a GORM UserModel for persistence.
func fromIdentityDomain(data *entity.Identity) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:              data.ID,
		Username:        nullableString(data.Username),
		PasswordHash:    nullableString(data.PasswordHash),
		ExternalSubject: nullableString(data.ExternalSubject),
		Name:            nullableString(data.Name),
		Email:           nullableString(data.Email),
		RoleID:          data.RoleID,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
