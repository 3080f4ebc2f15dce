package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/directory"
	"github.com/devbridge/dev-bridge-manager/internal/dto"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/middleware"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/utils"
)

// UserHandler serves the team member directory.
type UserHandler struct {
	users *directory.Users
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *directory.Users) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns a page of users with the actions the caller may take on each.
// The optional q parameter filters by name or email.
func (h *UserHandler) ListUsers(c *gin.Context) {
	viewer, _ := middleware.GetPrincipal(c)

	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondDirectoryError(c, err)
		return
	}

	if q := strings.ToLower(strings.TrimSpace(c.Query("q"))); q != "" {
		filtered := users[:0:0]
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	params := utils.GetPaginationParams(c)
	page := utils.Paginate(users, params)
	rows := make([]dto.UserRowDTO, len(page))
	for i, u := range page {
		rows[i] = dto.ToUserRowDTO(u, viewer)
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Users:      rows,
		Pagination: utils.NewPaginationResponse(params, len(users)),
	})
}

// GetUser returns one user.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondDirectoryError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, dto.ToUserRowDTO(user, viewer))
}

// CreateUser adds a team member.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Name     string `json:"name" binding:"required,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Position string `json:"position" binding:"max=100"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	if req.Role != "" && req.Role != permission.RoleUser && !permission.Evaluate(viewer, permission.CanAssignRoles) {
		apierrors.InsufficientPermissions(c, "Assigning a role requires role management", gin.H{
			"required": permission.CanAssignRoles.String(),
		})
		return
	}

	user, err := h.users.Create(c.Request.Context(), remote.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
		Password: req.Password,
		RoleName: req.Role,
	})
	if err != nil {
		respondDirectoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserRowDTO(user, viewer))
}

// UpdateUser edits a team member. Changing a role needs role management and
// is never allowed on the caller's own account.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		Name     *string `json:"name" binding:"omitempty,max=100"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Position *string `json:"position" binding:"omitempty,max=100"`
		Role     *string `json:"role"`
	}

	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	if req.Role != nil && viewer != nil && viewer.ID == id {
		apierrors.Forbidden(c, "You cannot change your own role")
		return
	}
	if req.Role != nil && !permission.UserRowActions(viewer, id).AssignRole {
		apierrors.InsufficientPermissions(c, "You cannot change this user's role", gin.H{
			"required": permission.CanAssignRoles.String(),
		})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, remote.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
		RoleName: req.Role,
	})
	if err != nil {
		respondDirectoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserRowDTO(user, viewer))
}

// DeleteUser removes a team member. Callers cannot delete themselves.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	if !permission.UserRowActions(viewer, id).Delete {
		apierrors.InvalidOperation(c, "You cannot delete your own account")
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondDirectoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

func parseUserID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return 0, false
	}
	return id, true
}
