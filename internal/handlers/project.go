package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/board"
	"github.com/devbridge/dev-bridge-manager/internal/directory"
	"github.com/devbridge/dev-bridge-manager/internal/dto"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/middleware"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

// ProjectHandler serves the project directory.
type ProjectHandler struct {
	projects *directory.Projects
	boards   *board.Manager
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *directory.Projects, boards *board.Manager) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		boards:   boards,
	}
}

// ListProjects returns every project, optionally filtered by status.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	viewer, _ := middleware.GetPrincipal(c)

	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		respondDirectoryError(c, err)
		return
	}

	status := c.Query("status")
	rows := make([]dto.ProjectRowDTO, 0, len(projects))
	for _, p := range projects {
		if status != "" && p.Status != status {
			continue
		}
		rows = append(rows, dto.ToProjectRowDTO(p, viewer))
	}

	c.JSON(http.StatusOK, dto.ProjectListResponse{
		Projects:  rows,
		CanCreate: permission.Evaluate(viewer, permission.CanCreateProjects),
	})
}

// GetProject returns the project loaded by LoadProject.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, dto.ToProjectRowDTO(project, viewer))
}

// CreateProject creates a project with the default board columns.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Name        string     `json:"name" binding:"required,max=200"`
		Description string     `json:"description"`
		Status      string     `json:"status" binding:"omitempty,project_status"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	project, err := h.projects.Create(c.Request.Context(), remote.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   viewer.ID,
	})
	if err != nil {
		respondDirectoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectRowDTO(project, viewer))
}

// UpdateProject edits a project.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	type UpdateProjectRequest struct {
		Name        *string    `json:"name" binding:"omitempty,max=200"`
		Description *string    `json:"description"`
		Status      *string    `json:"status" binding:"omitempty,project_status"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}

	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.projects.Update(c.Request.Context(), project.ID, remote.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondDirectoryError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, dto.ToProjectRowDTO(updated, viewer))
}

// DeleteProject deletes a project and closes its board.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	if err := h.projects.Delete(c.Request.Context(), project.ID); err != nil {
		respondDirectoryError(c, err)
		return
	}
	h.boards.Close(project.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}
