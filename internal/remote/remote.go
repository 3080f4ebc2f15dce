// Package remote declares the persistence operations the optimistic models
// depend on. Implementations live elsewhere and are injected.
package remote

import (
	"context"
	"time"

	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
)

// PrincipalSource resolves the principal of an authenticated user.
// It returns nil without error when the user no longer exists.
type PrincipalSource interface {
	FetchPrincipal(ctx context.Context, userID uint64) (*permission.Principal, error)
}

// BoardRemote persists the board of a project.
type BoardRemote interface {
	FetchBoard(ctx context.Context, projectID uint64) (kanban.Snapshot, error)

	CreateTask(ctx context.Context, projectID uint64, task kanban.Task) (kanban.Task, error)
	UpdateTask(ctx context.Context, projectID uint64, taskID string, patch kanban.TaskPatch) (kanban.Task, error)
	DeleteTask(ctx context.Context, projectID uint64, taskID string) error
	MoveTask(ctx context.Context, projectID uint64, taskID, columnID string, position int) (kanban.Task, error)

	CreateComment(ctx context.Context, projectID uint64, comment kanban.Comment) (kanban.Comment, error)
	UpdateComment(ctx context.Context, projectID uint64, commentID string, patch kanban.CommentPatch) (kanban.Comment, error)
	DeleteComment(ctx context.Context, projectID uint64, commentID string) error

	CreateTimeEntry(ctx context.Context, projectID uint64, entry kanban.TimeEntry) (kanban.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, projectID uint64, entryID string, patch kanban.TimeEntryPatch) (kanban.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, projectID uint64, entryID string) error

	CreateColumn(ctx context.Context, projectID uint64, column kanban.Column) (kanban.Column, error)
	UpdateColumn(ctx context.Context, projectID uint64, columnID string, patch kanban.ColumnPatch) (kanban.Column, error)
	DeleteColumn(ctx context.Context, projectID uint64, columnID string) error
	ReorderColumns(ctx context.Context, projectID uint64, columnIDs []string) error
}

// User is a user directory entry.
type User struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	RoleName  string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserInput creates a user.
type UserInput struct {
	Name     string
	Email    string
	Position string
	Password string
	RoleName string
}

// UserPatch updates a user. Nil fields are left unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Position *string
	RoleName *string
}

// Apply returns u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Position != nil {
		u.Position = *p.Position
	}
	if p.RoleName != nil {
		u.RoleName = *p.RoleName
	}
	return u
}

// UserRemote persists the user directory.
type UserRemote interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, in UserInput) (User, error)
	UpdateUser(ctx context.Context, id uint64, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id uint64) error
}

// Project statuses.
const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectOnHold    = "on-hold"
	ProjectCancelled = "cancelled"
)

// Project is a project directory entry.
type Project struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedBy   uint64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProjectInput creates a project.
type ProjectInput struct {
	Name        string
	Description string
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedBy   uint64
}

// ProjectPatch updates a project. Nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Apply returns p with the patch applied.
func (pp ProjectPatch) Apply(p Project) Project {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.StartDate != nil {
		p.StartDate = pp.StartDate
	}
	if pp.EndDate != nil {
		p.EndDate = pp.EndDate
	}
	return p
}

// ProjectRemote persists the project directory.
type ProjectRemote interface {
	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, in ProjectInput) (Project, error)
	UpdateProject(ctx context.Context, id uint64, patch ProjectPatch) (Project, error)
	DeleteProject(ctx context.Context, id uint64) error
}
