package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectNameRequired  = errors.New("project name is required")
	ErrInvalidProjectStatus = errors.New("invalid project status")
	ErrInvalidProjectDates  = errors.New("project end date is before its start date")
)

// DefaultColumns are the columns every new project board starts with.
var DefaultColumns = []struct {
	Title string
	Color string
}{
	{"To Do", "#6b7280"},
	{"In Progress", "#3b82f6"},
	{"Review", "#f59e0b"},
	{"Done", "#10b981"},
}

// ProjectService persists the project directory.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	newID       func() string
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		newID:       uuid.NewString,
	}
}

// ListProjects returns every project, oldest first.
func (s *ProjectService) ListProjects(ctx context.Context) ([]remote.Project, error) {
	projects, err := s.projectRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	out := make([]remote.Project, len(projects))
	for i := range projects {
		out[i] = toRemoteProject(&projects[i])
	}
	return out, nil
}

// CreateProject creates a project with the default board columns.
func (s *ProjectService) CreateProject(ctx context.Context, in remote.ProjectInput) (remote.Project, error) {
	project := &models.Project{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Status:      models.ProjectStatus(in.Status),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedBy:   in.CreatedBy,
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}
	if err := validateProject(project); err != nil {
		return remote.Project{}, err
	}

	columns := make([]models.BoardColumn, len(DefaultColumns))
	for i, c := range DefaultColumns {
		columns[i] = models.BoardColumn{ID: s.newID(), Title: c.Title, Color: c.Color}
	}

	if err := s.projectRepo.Create(project, columns); err != nil {
		return remote.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return toRemoteProject(project), nil
}

// UpdateProject edits a project.
func (s *ProjectService) UpdateProject(ctx context.Context, id uint64, patch remote.ProjectPatch) (remote.Project, error) {
	project, err := s.findProject(id)
	if err != nil {
		return remote.Project{}, err
	}

	if patch.Name != nil {
		project.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		project.Description = *patch.Description
	}
	if patch.Status != nil {
		project.Status = models.ProjectStatus(*patch.Status)
	}
	if patch.StartDate != nil {
		project.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		project.EndDate = patch.EndDate
	}
	if err := validateProject(project); err != nil {
		return remote.Project{}, err
	}

	if err := s.projectRepo.Update(project); err != nil {
		return remote.Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return toRemoteProject(project), nil
}

// DeleteProject removes a project and its board.
func (s *ProjectService) DeleteProject(ctx context.Context, id uint64) error {
	if err := s.projectRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *ProjectService) findProject(id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func validateProject(p *models.Project) error {
	if p.Name == "" {
		return ErrProjectNameRequired
	}
	if !p.Status.Valid() {
		return ErrInvalidProjectStatus
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return ErrInvalidProjectDates
	}
	return nil
}

func toRemoteProject(p *models.Project) remote.Project {
	return remote.Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
