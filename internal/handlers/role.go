package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/dto"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

// RoleHandler lists roles and permissions.
type RoleHandler struct {
	roleService *services.RoleService
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// ListRoles returns every role with its permission names.
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch roles")
		return
	}

	out := make([]dto.RoleDTO, len(roles))
	for i, r := range roles {
		out[i] = dto.ToRoleDTO(r)
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}

// ListPermissions returns every permission.
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch permissions")
		return
	}

	out := make([]dto.PermissionDTO, len(perms))
	for i, p := range perms {
		out[i] = dto.ToPermissionDTO(p)
	}
	c.JSON(http.StatusOK, gin.H{"permissions": out})
}
