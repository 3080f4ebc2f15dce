package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/directory"
	"github.com/devbridge/dev-bridge-manager/internal/dto"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/middleware"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	tokens      *services.TokenService
	users       *directory.Users
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, tokens *services.TokenService, users *directory.Users) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		users:       users,
	}
}

// Signup registers a new user with the default role.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Name     string `json:"name" binding:"required,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Position string `json:"position" binding:"max=100"`
		Password string `json:"password" binding:"required"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Signup(services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}
	h.users.Invalidate()

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user, initializes the session and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		User:      dto.ToUserDTO(*user),
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user with the navigation and
// board capabilities their permissions allow.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(principal.ID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMeResponse(*user, principal))
}

// UpdateProfile edits the caller's name and position.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	type ProfileRequest struct {
		Name     *string `json:"name" binding:"omitempty,max=100"`
		Position *string `json:"position" binding:"omitempty,max=100"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, services.ProfileInput{
		Name:     req.Name,
		Position: req.Position,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}
	h.users.Invalidate()

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ChangePassword replaces the caller's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	type PasswordRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrWrongPassword):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, "")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrRoleNotFound):
		apierrors.ServiceUnavailable(c, "Roles have not been set up")
	default:
		apierrors.InternalError(c, "")
	}
}
