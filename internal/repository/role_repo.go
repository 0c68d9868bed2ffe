package repository

import (
	"context"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	access.GrantLoader

	EnsureRole(ctx context.Context, role *model.Role) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	ListPermissions(ctx context.Context, roleID uuid.UUID) ([]model.RolePermission, error)
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, perms []model.RolePermission) error
	SavePermission(ctx context.Context, perm *model.RolePermission, overwrite bool) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// EnsureRole creates the role if its code is not present yet and loads the
// stored row into role either way.
func (r *roleRepository) EnsureRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).
		Where("code = ?", role.Code).
		Attrs(model.Role{Name: role.Name, Description: role.Description, IsSystem: role.IsSystem}).
		FirstOrCreate(role).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

func (r *roleRepository) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Order("code asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context, roleID uuid.UUID) ([]model.RolePermission, error) {
	var perms []model.RolePermission
	if err := GetDB(ctx, r.db).Where("role_id = ?", roleID).Order("feature_key asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// ReplacePermissions swaps the full row set of a role. Callers run it inside
// a transaction.
func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, perms []model.RolePermission) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	for i := range perms {
		perms[i].RoleID = roleID
	}
	return db.Create(&perms).Error
}

// SavePermission inserts the (role, feature) row. An existing row is
// overwritten only when overwrite is set.
func (r *roleRepository) SavePermission(ctx context.Context, perm *model.RolePermission, overwrite bool) error {
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "role_id"}, {Name: "feature_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"can_read", "can_write", "can_approve", "updated_at"}),
	}
	if !overwrite {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "role_id"}, {Name: "feature_key"}},
			DoNothing: true,
		}
	}
	return GetDB(ctx, r.db).Clauses(conflict).Create(perm).Error
}

type grantRow struct {
	Code       string
	FeatureKey string
	CanRead    bool
	CanWrite   bool
	CanApprove bool
}

// LoadGrants reads the whole permission table keyed by role code.
func (r *roleRepository) LoadGrants(ctx context.Context) ([]access.Grant, error) {
	var rows []grantRow
	err := GetDB(ctx, r.db).
		Table("role_permissions").
		Select("roles.code, role_permissions.feature_key, role_permissions.can_read, role_permissions.can_write, role_permissions.can_approve").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grants := make([]access.Grant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, access.Grant{
			Role:       domain.ParseRole(row.Code),
			FeatureKey: row.FeatureKey,
			CanRead:    row.CanRead,
			CanWrite:   row.CanWrite,
			CanApprove: row.CanApprove,
		})
	}
	return grants, nil
}
