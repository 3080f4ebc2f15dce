package models

import "time"

type AssignmentRole string

const (
	AssignmentRoleOwner   AssignmentRole = "owner"
	AssignmentRoleManager AssignmentRole = "manager"
	AssignmentRoleMember  AssignmentRole = "member"
	AssignmentRoleViewer  AssignmentRole = "viewer"
)

// Valid reports whether r is a known assignment role.
func (r AssignmentRole) Valid() bool {
	switch r {
	case AssignmentRoleOwner, AssignmentRoleManager, AssignmentRoleMember, AssignmentRoleViewer:
		return true
	}
	return false
}

// ProjectAssignment makes a user a member of a project. Removing a member only
// deactivates the row, so assigning the user again reuses it.
type ProjectAssignment struct {
	ProjectID  uint64         `gorm:"primarykey" json:"project_id"`
	UserID     uint64         `gorm:"primarykey;index" json:"user_id"`
	Role       AssignmentRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	AssignedBy uint64         `gorm:"not null" json:"assigned_by"`
	AssignedAt time.Time      `json:"assigned_at"`
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
