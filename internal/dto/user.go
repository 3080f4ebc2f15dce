package dto

import (
	"time"

	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRowDTO is a row of the user table with the actions the viewer may take on it
type UserRowDTO struct {
	UserDTO
	Pending bool                  `json:"pending"`
	Actions permission.RowActions `json:"actions"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserRowDTO             `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Position:  user.Position,
		Role:      user.Role.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// FromRemoteUser converts a user directory entry to UserDTO
func FromRemoteUser(user remote.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Position:  user.Position,
		Role:      user.RoleName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserRowDTO converts a directory entry to a table row for viewer
func ToUserRowDTO(user remote.User, viewer *permission.Principal) UserRowDTO {
	row := UserRowDTO{UserDTO: FromRemoteUser(user)}
	// Rows still being created have no ID and take no actions.
	if user.ID == 0 {
		row.Pending = true
		return row
	}
	row.Actions = permission.UserRowActions(viewer, user.ID)
	return row
}

// MeResponse describes the current user and what they may see and do
type MeResponse struct {
	User         UserDTO                      `json:"user"`
	Permissions  []string                     `json:"permissions"`
	Navigation   []permission.VisibleTab      `json:"navigation"`
	Capabilities permission.BoardCapabilities `json:"capabilities"`
	IsAdmin      bool                         `json:"is_admin"`
}

// ToMeResponse builds the MeResponse of a principal
func ToMeResponse(user models.User, p *permission.Principal) MeResponse {
	return MeResponse{
		User:         ToUserDTO(user),
		Permissions:  p.Permissions.List(),
		Navigation:   permission.Navigation(p),
		Capabilities: permission.Board(p),
		IsAdmin:      permission.IsAdmin(p),
	}
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
