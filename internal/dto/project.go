package dto

import (
	"time"

	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

// ProjectActions are the project actions available to the viewer
type ProjectActions struct {
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// ProjectRowDTO is a project in list responses
type ProjectRowDTO struct {
	remote.Project
	Pending bool           `json:"pending"`
	Actions ProjectActions `json:"actions"`
}

// ProjectListResponse lists projects together with whether the viewer may create more
type ProjectListResponse struct {
	Projects  []ProjectRowDTO `json:"projects"`
	CanCreate bool            `json:"can_create"`
}

// ToProjectRowDTO converts a directory entry to a list row for viewer.
// Projects still being created have no ID yet.
func ToProjectRowDTO(p remote.Project, viewer *permission.Principal) ProjectRowDTO {
	row := ProjectRowDTO{Project: p, Pending: p.ID == 0}
	if !row.Pending {
		row.Actions = ProjectActions{
			Edit:   permission.Evaluate(viewer, permission.CanEditProjects),
			Delete: permission.Evaluate(viewer, permission.CanDeleteProjects),
		}
	}
	return row
}

// AssignmentDTO is a project member in API responses
type AssignmentDTO struct {
	ProjectID  uint64    `json:"project_id"`
	UserID     uint64    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	Role       string    `json:"role"`
	AssignedBy uint64    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AssignmentListResponse lists the members of a project together with whether the viewer may manage them
type AssignmentListResponse struct {
	Assignments []AssignmentDTO `json:"assignments"`
	Count       int             `json:"count"`
	CanManage   bool            `json:"can_manage"`
}

// ToAssignmentDTO converts a ProjectAssignment model to AssignmentDTO.
// The user must be preloaded.
func ToAssignmentDTO(a models.ProjectAssignment) AssignmentDTO {
	return AssignmentDTO{
		ProjectID:  a.ProjectID,
		UserID:     a.UserID,
		UserName:   a.User.Name,
		UserEmail:  a.User.Email,
		Role:       string(a.Role),
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
	}
}
