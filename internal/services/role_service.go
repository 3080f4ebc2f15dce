package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
)

var roleDisplayNames = map[string]string{
	permission.RoleSuperAdmin: "Super Admin",
	permission.RoleAdmin:      "Administrator",
	permission.RoleManager:    "Manager",
	permission.RoleUser:       "User",
}

// RoleService lists roles and keeps the built-in roles in sync with the permission catalog.
type RoleService struct {
	roleRepo   repository.RoleRepository
	principals cache.PrincipalCache
}

// NewRoleService creates a new RoleService.
func NewRoleService(roleRepo repository.RoleRepository, principals cache.PrincipalCache) *RoleService {
	if principals == nil {
		principals = cache.NopPrincipalCache{}
	}
	return &RoleService{
		roleRepo:   roleRepo,
		principals: principals,
	}
}

// ListRoles returns every role with its permissions.
func (s *RoleService) ListRoles() ([]models.Role, error) {
	roles, err := s.roleRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// ListPermissions returns every permission.
func (s *RoleService) ListPermissions() ([]models.Permission, error) {
	permissions, err := s.roleRepo.ListPermissions()
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissions, nil
}

// EnsureDefaults creates the catalog permissions and the built-in roles with
// their default grants. Running it again restores the default grants.
func (s *RoleService) EnsureDefaults(ctx context.Context) error {
	for _, d := range permission.Definitions {
		p := &models.Permission{
			Name:        d.Name,
			DisplayName: d.DisplayName,
			Resource:    d.Resource,
			Action:      d.Action,
		}
		if err := s.roleRepo.EnsurePermission(p); err != nil {
			return fmt.Errorf("failed to ensure permission %s: %w", d.Name, err)
		}
	}

	for name, grants := range permission.DefaultGrants() {
		display, ok := roleDisplayNames[name]
		if !ok {
			display = strings.ToUpper(name[:1]) + name[1:]
		}
		role := &models.Role{Name: name, DisplayName: display}
		if err := s.roleRepo.EnsureRole(role, grants); err != nil {
			return fmt.Errorf("failed to ensure role %s: %w", name, err)
		}
	}

	return s.principals.Invalidate(ctx)
}
