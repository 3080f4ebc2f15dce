package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/guard"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
)

// RequirePermission lets the request through when the principal satisfies
// requirement. Otherwise onDeny decides the response: Hide answers 404 so the
// resource's existence is not revealed, Redirect answers 303 to its target and
// anything else answers 403. Unauthenticated requests always get 401.
func RequirePermission(requirement permission.Requirement, onDeny guard.DenyAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		d := guard.Decide(p, requirement, onDeny)
		if d.Render() {
			c.Next()
			return
		}

		switch {
		case !d.Authenticated:
			apierrors.Unauthorized(c, "")
		case d.Action.Kind == guard.ActionHide:
			apierrors.NotFound(c, "")
		case d.Action.Kind == guard.ActionRedirect:
			c.Redirect(http.StatusSeeOther, d.Action.Target)
		default:
			details := gin.H{}
			if requirement != nil {
				details["required"] = requirement.String()
			}
			if d.Action.Fallback != nil {
				details["fallback"] = d.Action.Fallback
			}
			apierrors.InsufficientPermissions(c, "", details)
		}
		c.Abort()
	}
}

// Deny is the default deny action for API routes.
func Deny() guard.DenyAction {
	return guard.Fallback(nil)
}
