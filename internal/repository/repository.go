package repository

import (
	"errors"

	"github.com/devbridge/dev-bridge-manager/internal/models"
)

var (
	// ErrColumnFull is returned when a task would exceed a column's task limit.
	ErrColumnFull = errors.New("board repository: column is full")
	// ErrInvalidColumnOrder is returned when a reorder is not a permutation of the board's columns.
	ErrInvalidColumnOrder = errors.New("board repository: column order must list every column once")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindWithPermissions finds a user with its role and the role's permissions
	FindWithPermissions(id uint64) (*models.User, error)

	// List lists all users with their roles, oldest first
	List() ([]models.User, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete removes a user together with its project assignments
	Delete(id uint64) error
}

// RoleRepository defines the interface for role and permission data access
type RoleRepository interface {
	// FindByName finds a role by name with its permissions
	FindByName(name string) (*models.Role, error)

	// List lists all roles with their permissions
	List() ([]models.Role, error)

	// ListPermissions lists all permissions ordered by resource and name
	ListPermissions() ([]models.Permission, error)

	// EnsurePermission creates the permission unless one with the same name exists
	EnsurePermission(permission *models.Permission) error

	// EnsureRole creates the role unless it exists and replaces its permissions
	EnsureRole(role *models.Role, permissionNames []string) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project together with its initial board columns
	Create(project *models.Project, columns []models.BoardColumn) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// List lists all projects, oldest first
	List() ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete soft deletes a project and removes its board and assignments
	Delete(id uint64) error
}

// AssignmentRepository defines the interface for project membership data access
type AssignmentRepository interface {
	// ListByProject lists the active assignments of a project with their users, newest first
	ListByProject(projectID uint64) ([]models.ProjectAssignment, error)

	// Find finds the assignment of a user to a project, active or not, with its user
	Find(projectID, userID uint64) (*models.ProjectAssignment, error)

	// Create creates an assignment
	Create(assignment *models.ProjectAssignment) error

	// Update updates an assignment
	Update(assignment *models.ProjectAssignment) error
}

// Board holds every row of a project board.
type Board struct {
	Columns     []models.BoardColumn
	Tasks       []models.BoardTask
	Comments    []models.TaskComment
	TimeEntries []models.TimeEntry
}

// BoardRepository defines the interface for board data access
type BoardRepository interface {
	// Load loads the whole board of a project
	Load(projectID uint64) (*Board, error)

	// CreateColumn appends a column to the board
	CreateColumn(column *models.BoardColumn) error

	// FindColumn finds a column of a project
	FindColumn(projectID uint64, id string) (*models.BoardColumn, error)

	// UpdateColumn updates a column
	UpdateColumn(column *models.BoardColumn) error

	// DeleteColumn deletes a column, its tasks and their comments and time entries
	DeleteColumn(projectID uint64, id string) error

	// ReorderColumns stores the column order given by ids
	ReorderColumns(projectID uint64, ids []string) error

	// CreateTask appends a task to its column
	CreateTask(task *models.BoardTask) error

	// FindTask finds a task of a project
	FindTask(projectID uint64, id string) (*models.BoardTask, error)

	// UpdateTask updates a task's details
	UpdateTask(task *models.BoardTask) error

	// MoveTask places a task at position in a column and renumbers both columns
	MoveTask(projectID uint64, id, columnID string, position int) (*models.BoardTask, error)

	// DeleteTask deletes a task with its comments and time entries
	DeleteTask(projectID uint64, id string) error

	// CreateComment creates a comment
	CreateComment(comment *models.TaskComment) error

	// FindComment finds a comment of a project
	FindComment(projectID uint64, id string) (*models.TaskComment, error)

	// UpdateComment updates a comment
	UpdateComment(comment *models.TaskComment) error

	// DeleteComment deletes a comment
	DeleteComment(projectID uint64, id string) error

	// CreateTimeEntry creates a time entry
	CreateTimeEntry(entry *models.TimeEntry) error

	// FindTimeEntry finds a time entry of a project
	FindTimeEntry(projectID uint64, id string) (*models.TimeEntry, error)

	// UpdateTimeEntry updates a time entry
	UpdateTimeEntry(entry *models.TimeEntry) error

	// DeleteTimeEntry deletes a time entry
	DeleteTimeEntry(projectID uint64, id string) error
}
