package repository

import (
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAssignmentRepository is a GORM implementation of AssignmentRepository
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// ListByProject lists the active assignments of a project with their users, newest first
func (r *GormAssignmentRepository) ListByProject(projectID uint64) ([]models.ProjectAssignment, error) {
	var assignments []models.ProjectAssignment
	err := r.db.Preload("User").
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("assigned_at DESC").
		Order("user_id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// Find finds the assignment of a user to a project, active or not, with its user
func (r *GormAssignmentRepository) Find(projectID, userID uint64) (*models.ProjectAssignment, error) {
	var assignment models.ProjectAssignment
	err := r.db.Preload("User").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create creates an assignment
func (r *GormAssignmentRepository) Create(assignment *models.ProjectAssignment) error {
	return r.db.Omit(clause.Associations).Create(assignment).Error
}

// Update updates an assignment
func (r *GormAssignmentRepository) Update(assignment *models.ProjectAssignment) error {
	return r.db.Omit(clause.Associations).Save(assignment).Error
}
