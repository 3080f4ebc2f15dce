package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"gorm.io/gorm"
)

// UserService persists the user directory.
type UserService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	principals cache.PrincipalCache
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, principals cache.PrincipalCache) *UserService {
	if principals == nil {
		principals = cache.NopPrincipalCache{}
	}
	return &UserService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		principals: principals,
	}
}

// ListUsers returns every user, oldest first.
func (s *UserService) ListUsers(ctx context.Context) ([]remote.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]remote.User, len(users))
	for i := range users {
		out[i] = toRemoteUser(&users[i])
	}
	return out, nil
}

// CreateUser creates a user with the given role, or the default role when none is given.
func (s *UserService) CreateUser(ctx context.Context, in remote.UserInput) (remote.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return remote.User{}, ErrNameRequired
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return remote.User{}, err
	}
	if len(in.Password) < constants.MinPasswordLength {
		return remote.User{}, ErrPasswordTooShort
	}
	if err := ensureEmailFree(s.userRepo, email, 0); err != nil {
		return remote.User{}, err
	}

	roleName := in.RoleName
	if roleName == "" {
		roleName = constants.DefaultSignupRole
	}
	role, err := s.findRole(roleName)
	if err != nil {
		return remote.User{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return remote.User{}, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Position:     strings.TrimSpace(in.Position),
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return remote.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	user.Role = *role

	return toRemoteUser(user), nil
}

// UpdateUser edits a user. Changing the role or email drops the user's cached principal.
func (s *UserService) UpdateUser(ctx context.Context, id uint64, patch remote.UserPatch) (remote.User, error) {
	user, err := s.userRepo.FindByID(id, "Role")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return remote.User{}, ErrUserNotFound
		}
		return remote.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return remote.User{}, ErrNameRequired
		}
		user.Name = name
	}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return remote.User{}, err
		}
		if err := ensureEmailFree(s.userRepo, email, user.ID); err != nil {
			return remote.User{}, err
		}
		user.Email = email
	}
	if patch.Position != nil {
		user.Position = strings.TrimSpace(*patch.Position)
	}
	if patch.RoleName != nil && *patch.RoleName != user.Role.Name {
		role, err := s.findRole(*patch.RoleName)
		if err != nil {
			return remote.User{}, err
		}
		user.RoleID = role.ID
		user.Role = *role
	}

	if err := s.userRepo.Update(user); err != nil {
		return remote.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	if err := s.principals.Invalidate(ctx, user.ID); err != nil {
		return remote.User{}, err
	}

	return toRemoteUser(user), nil
}

// DeleteUser removes a user.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return s.principals.Invalidate(ctx, id)
}

func (s *UserService) findRole(name string) (*models.Role, error) {
	role, err := s.roleRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	return role, nil
}

func toRemoteUser(u *models.User) remote.User {
	return remote.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Position:  u.Position,
		RoleName:  u.Role.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
