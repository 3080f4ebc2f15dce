package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/directory"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

// LoadProject resolves the :id project from the project directory
func LoadProject(projects *directory.Projects) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		project, err := projects.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				apierrors.NotFound(c, "Project not found")
			} else {
				apierrors.BadGateway(c, "Failed to load projects")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// GetProject retrieves the project loaded by LoadProject
func GetProject(c *gin.Context) (remote.Project, bool) {
	v, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return remote.Project{}, false
	}
	p, ok := v.(remote.Project)
	return p, ok
}
