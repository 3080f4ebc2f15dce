package repository

import (
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"gorm.io/gorm"
)

// GormRoleRepository is a GORM implementation of RoleRepository
type GormRoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &GormRoleRepository{db: db}
}

// FindByName finds a role by name with its permissions
func (r *GormRoleRepository) FindByName(name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// List lists all roles with their permissions
func (r *GormRoleRepository) List() ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.Preload("Permissions").Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// ListPermissions lists all permissions ordered by resource and name
func (r *GormRoleRepository) ListPermissions() ([]models.Permission, error) {
	var permissions []models.Permission
	if err := r.db.Order("resource ASC, name ASC").Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

// EnsurePermission creates the permission unless one with the same name exists
func (r *GormRoleRepository) EnsurePermission(permission *models.Permission) error {
	return r.db.
		Where(models.Permission{Name: permission.Name}).
		Attrs(models.Permission{
			DisplayName: permission.DisplayName,
			Resource:    permission.Resource,
			Action:      permission.Action,
		}).
		FirstOrCreate(permission).Error
}

// EnsureRole creates the role unless it exists and replaces its permissions
func (r *GormRoleRepository) EnsureRole(role *models.Role, permissionNames []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(models.Role{Name: role.Name}).
			Attrs(models.Role{DisplayName: role.DisplayName, Description: role.Description}).
			FirstOrCreate(role).Error; err != nil {
			return err
		}

		var permissions []models.Permission
		if len(permissionNames) > 0 {
			if err := tx.Where("name IN ?", permissionNames).Find(&permissions).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(role).Association("Permissions").Replace(permissions); err != nil {
			return err
		}
		role.Permissions = permissions
		return nil
	})
}
