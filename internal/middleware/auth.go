package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/constants"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

// Authenticate resolves the principal of the request from the session cookie
// or a Bearer token. Requests without credentials pass through
// unauthenticated; RequireAuth and RequirePermission reject them later.
func Authenticate(principals remote.PrincipalSource, tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := sessionUserID(c)
		if !ok {
			var err error
			userID, ok, err = bearerUserID(c, tokens)
			if err != nil {
				apierrors.InvalidToken(c, "")
				c.Abort()
				return
			}
		}
		if !ok {
			c.Next()
			return
		}

		p, err := principals.FetchPrincipal(c.Request.Context(), userID)
		if err != nil {
			apierrors.ServiceUnavailable(c, "Failed to resolve the current user")
			c.Abort()
			return
		}
		if p == nil {
			// The account is gone; drop the stale session.
			session := sessions.Default(c)
			session.Clear()
			_ = session.Save()
			c.Next()
			return
		}

		c.Set(constants.ContextKeyUserID, p.ID)
		c.Set(constants.ContextKeyPrincipal, p)
		c.Next()
	}
}

func sessionUserID(c *gin.Context) (uint64, bool) {
	return toUserID(sessions.Default(c).Get(constants.ContextKeyUserID))
}

// bearerUserID reads the Authorization header. A request without a bearer
// token is anonymous; one with a token that does not verify is an error.
func bearerUserID(c *gin.Context, tokens *services.TokenService) (uint64, bool, error) {
	if tokens == nil {
		return 0, false, nil
	}
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, constants.BearerPrefix) {
		return 0, false, nil
	}
	claims, err := tokens.Parse(strings.TrimPrefix(header, constants.BearerPrefix))
	if err != nil {
		return 0, false, err
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// RequireAuth checks that the request carries an authenticated principal
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetPrincipal(c); !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(userID)
}

// GetPrincipal retrieves the current principal from context
func GetPrincipal(c *gin.Context) (*permission.Principal, bool) {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := v.(*permission.Principal)
	return p, ok && p != nil
}

func toUserID(v any) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
