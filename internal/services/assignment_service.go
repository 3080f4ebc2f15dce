package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAssignmentNotFound    = fmt.Errorf("assignment %w", remote.ErrNotFound)
	ErrAlreadyAssigned       = errors.New("user is already assigned to this project")
	ErrInvalidAssignmentRole = errors.New("role must be one of: owner, manager, member, viewer")
)

// AssignmentService manages which users belong to a project.
type AssignmentService struct {
	assignmentRepo repository.AssignmentRepository
	projectRepo    repository.ProjectRepository
	userRepo       repository.UserRepository
	now            func() time.Time
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		now:            time.Now,
	}
}

// ListAssignments returns the active members of a project, newest first.
func (s *AssignmentService) ListAssignments(ctx context.Context, projectID uint64) ([]models.ProjectAssignment, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		return nil, notFoundAs(err, ErrProjectNotFound, "find project")
	}

	assignments, err := s.assignmentRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// Assign adds a user to a project. An empty role means member. A user removed
// earlier is reactivated with the new role.
func (s *AssignmentService) Assign(ctx context.Context, projectID, userID uint64, role models.AssignmentRole, assignedBy uint64) (*models.ProjectAssignment, error) {
	if role == "" {
		role = models.AssignmentRoleMember
	}
	if !role.Valid() {
		return nil, ErrInvalidAssignmentRole
	}
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		return nil, notFoundAs(err, ErrProjectNotFound, "find project")
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "find user")
	}

	existing, err := s.assignmentRepo.Find(projectID, userID)
	switch {
	case err == nil && existing.IsActive:
		return nil, ErrAlreadyAssigned
	case err == nil:
		existing.IsActive = true
		existing.Role = role
		existing.AssignedBy = assignedBy
		existing.AssignedAt = s.now()
		if err := s.assignmentRepo.Update(existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate assignment: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		assignment := &models.ProjectAssignment{
			ProjectID:  projectID,
			UserID:     userID,
			Role:       role,
			AssignedBy: assignedBy,
			AssignedAt: s.now(),
			IsActive:   true,
		}
		if err := s.assignmentRepo.Create(assignment); err != nil {
			return nil, fmt.Errorf("failed to create assignment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}

	return s.findActive(projectID, userID)
}

// UpdateRole changes the role of an active member.
func (s *AssignmentService) UpdateRole(ctx context.Context, projectID, userID uint64, role models.AssignmentRole) (*models.ProjectAssignment, error) {
	if !role.Valid() {
		return nil, ErrInvalidAssignmentRole
	}

	assignment, err := s.findActive(projectID, userID)
	if err != nil {
		return nil, err
	}

	assignment.Role = role
	if err := s.assignmentRepo.Update(assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return assignment, nil
}

// Remove deactivates a member's assignment.
func (s *AssignmentService) Remove(ctx context.Context, projectID, userID uint64) error {
	assignment, err := s.findActive(projectID, userID)
	if err != nil {
		return err
	}

	assignment.IsActive = false
	if err := s.assignmentRepo.Update(assignment); err != nil {
		return fmt.Errorf("failed to remove assignment: %w", err)
	}
	return nil
}

func (s *AssignmentService) findActive(projectID, userID uint64) (*models.ProjectAssignment, error) {
	assignment, err := s.assignmentRepo.Find(projectID, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrAssignmentNotFound, "find assignment")
	}
	if !assignment.IsActive {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}
