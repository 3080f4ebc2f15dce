package dto

import "github.com/devbridge/dev-bridge-manager/internal/models"

// PermissionDTO represents a permission in API responses
type PermissionDTO struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

// RoleDTO represents a role with its permission names
type RoleDTO struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// ToPermissionDTO converts a Permission model to PermissionDTO
func ToPermissionDTO(p models.Permission) PermissionDTO {
	return PermissionDTO{
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Resource:    p.Resource,
		Action:      p.Action,
	}
}

// ToRoleDTO converts a Role model to RoleDTO
func ToRoleDTO(r models.Role) RoleDTO {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = p.Name
	}
	return RoleDTO{
		ID:          r.ID,
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Permissions: names,
	}
}
