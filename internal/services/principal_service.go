package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"gorm.io/gorm"
)

// PrincipalService resolves the principal of a signed-in user from its role's permissions.
type PrincipalService struct {
	userRepo repository.UserRepository
	cache    cache.PrincipalCache
	logger   *slog.Logger
}

// NewPrincipalService creates a new PrincipalService.
func NewPrincipalService(userRepo repository.UserRepository, c cache.PrincipalCache, logger *slog.Logger) *PrincipalService {
	if c == nil {
		c = cache.NopPrincipalCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PrincipalService{
		userRepo: userRepo,
		cache:    c,
		logger:   logger,
	}
}

// FetchPrincipal returns the principal of userID, or nil when the user no longer exists.
func (s *PrincipalService) FetchPrincipal(ctx context.Context, userID uint64) (*permission.Principal, error) {
	p, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("principal cache read failed", "user_id", userID, "error", err)
	}
	if ok {
		return p, nil
	}

	user, err := s.userRepo.FindWithPermissions(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	p = permission.NewPrincipal(user.ID, user.Name, user.Email, user.Role.Name, user.PermissionNames()...)
	if err := s.cache.Set(ctx, p); err != nil {
		s.logger.Warn("principal cache write failed", "user_id", userID, "error", err)
	}
	return p, nil
}

// Invalidate forgets cached principals; without IDs it forgets all of them.
func (s *PrincipalService) Invalidate(ctx context.Context, userIDs ...uint64) error {
	return s.cache.Invalidate(ctx, userIDs...)
}
