package models

import "time"

// User rows are hard-deleted so a removed account's email can be registered again.
type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Position     string    `gorm:"type:varchar(100)" json:"position"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	RoleID       uint64    `gorm:"not null;index" json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// PermissionNames returns the names of the permissions granted through the user's role.
// The role and its permissions must be preloaded.
func (u *User) PermissionNames() []string {
	names := make([]string, 0, len(u.Role.Permissions))
	for _, p := range u.Role.Permissions {
		names = append(names, p.Name)
	}
	return names
}
