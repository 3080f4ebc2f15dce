package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrRoleNotFound         = errors.New("role not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	principals cache.PrincipalCache
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, principals cache.PrincipalCache) *AuthService {
	if principals == nil {
		principals = cache.NopPrincipalCache{}
	}
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		principals: principals,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Name     string
	Email    string
	Position string
	Password string
}

// Signup creates a new user with the default role.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := ensureEmailFree(s.userRepo, email, 0); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.FindByName(constants.DefaultSignupRole)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find default role: %w", err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Position:     strings.TrimSpace(input.Position),
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.Role = *role

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID with its role.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id, "Role")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// ProfileInput updates the caller's own profile. Nil fields are left unchanged.
type ProfileInput struct {
	Name     *string
	Position *string
}

// UpdateProfile edits the name and position of a user.
func (s *AuthService) UpdateProfile(ctx context.Context, id uint64, input ProfileInput) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		user.Name = name
	}
	if input.Position != nil {
		user.Position = strings.TrimSpace(*input.Position)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if err := s.principals.Invalidate(ctx, id); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces a user's password after checking the current one.
func (s *AuthService) ChangePassword(id uint64, current, next string) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}
	if len(next) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ensureEmailFree fails when email belongs to a user other than ownerID.
func ensureEmailFree(repo repository.UserRepository, email string, ownerID uint64) error {
	existing, err := repo.FindByEmail(email)
	if err == nil {
		if existing.ID != ownerID {
			return ErrEmailTaken
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}
