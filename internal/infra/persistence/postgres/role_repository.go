package postgres

import (
	"context"
	"time"

	"school/config"
	"school/internal/domain/entity"
	"school/internal/domain/repository"
	"school/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// roleRepository implements the repository.RoleRepository interface using GORM.
type roleRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRoleRepository is the constructor for roleRepository.
func NewRoleRepository(db *gorm.DB, cfg *config.Config) repository.RoleRepository {
	return newRoleRepository(db, cfg.Database.QueryTimeout)
}

func newRoleRepository(db *gorm.DB, timeout time.Duration) *roleRepository {
	return &roleRepository{db: db, timeout: timeout}
}

// FindByName retrieves a role by its unique name.
func (repo *roleRepository) FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	var roleM model.RoleModel
	if err := repo.db.WithContext(ctx).Where("name = ?", name.String()).First(&roleM).Error; err != nil {
		return nil, translateError(err, repository.ErrRoleNotFound, "find role by name")
	}

	return toRoleDomain(&roleM), nil
}

// FindByID retrieves a role by id.
func (repo *roleRepository) FindByID(ctx context.Context, id uint64) (*entity.Role, error) {
	ctx, cancel := withQueryTimeout(ctx, repo.timeout)
	defer cancel()

	var roleM model.RoleModel
	if err := repo.db.WithContext(ctx).Where("role_id = ?", id).First(&roleM).Error; err != nil {
		return nil, translateError(err, repository.ErrRoleNotFound, "find role by id")
	}

	return toRoleDomain(&roleM), nil
}

func toRoleDomain(data *model.RoleModel) *entity.Role {
	if data == nil {
		return nil
	}

	return &entity.Role{
		ID:          data.ID,
		Name:        entity.RoleName(data.Name),
		Description: derefString(data.Description),
	}
}
