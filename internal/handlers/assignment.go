package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/dto"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/middleware"
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

// AssignmentHandler serves the members of a project.
type AssignmentHandler struct {
	assignments *services.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignments *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
	}
}

// ListAssignments returns the active members of the project.
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	assignments, err := h.assignments.ListAssignments(c.Request.Context(), project.ID)
	if err != nil {
		respondAssignmentError(c, err)
		return
	}

	rows := make([]dto.AssignmentDTO, len(assignments))
	for i, a := range assignments {
		rows[i] = dto.ToAssignmentDTO(a)
	}

	viewer, _ := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, dto.AssignmentListResponse{
		Assignments: rows,
		Count:       len(rows),
		CanManage:   permission.Evaluate(viewer, permission.CanEditProjects),
	})
}

// AssignUser adds a user to the project.
func (h *AssignmentHandler) AssignUser(c *gin.Context) {
	type AssignUserRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"omitempty,assignment_role"`
	}

	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	assignment, err := h.assignments.Assign(c.Request.Context(), project.ID, req.UserID, models.AssignmentRole(req.Role), viewer.ID)
	if err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssignmentDTO(*assignment))
}

// UpdateAssignment changes a member's role.
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	type UpdateAssignmentRequest struct {
		Role string `json:"role" binding:"required,assignment_role"`
	}

	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	assignment, err := h.assignments.UpdateRole(c.Request.Context(), project.ID, userID, models.AssignmentRole(req.Role))
	if err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssignmentDTO(*assignment))
}

// RemoveAssignment removes a user from the project.
func (h *AssignmentHandler) RemoveAssignment(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.assignments.Remove(c.Request.Context(), project.ID, userID); err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User removed from project successfully",
	})
}
