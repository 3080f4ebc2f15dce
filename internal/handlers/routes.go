package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/board"
	"github.com/devbridge/dev-bridge-manager/internal/directory"
	"github.com/devbridge/dev-bridge-manager/internal/guard"
	"github.com/devbridge/dev-bridge-manager/internal/middleware"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

// Deps holds what the HTTP layer needs. AIService may be nil.
type Deps struct {
	AuthService *services.AuthService
	RoleService *services.RoleService
	Tokens      *services.TokenService
	Principals  remote.PrincipalSource
	Users       *directory.Users
	Projects    *directory.Projects
	Boards      *board.Manager
	Assignments *services.AssignmentService
	AIService   *services.AIService
}

// RegisterRoutes mounts the health check and the /api/v1 routes on r.
// Session middleware must already be installed.
func RegisterRoutes(r *gin.Engine, d Deps) {
	RegisterValidators()

	authHandler := NewAuthHandler(d.AuthService, d.Tokens, d.Users)
	userHandler := NewUserHandler(d.Users)
	roleHandler := NewRoleHandler(d.RoleService)
	projectHandler := NewProjectHandler(d.Projects, d.Boards)
	boardHandler := NewBoardHandler(d.Boards, d.AIService)
	assignmentHandler := NewAssignmentHandler(d.Assignments)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Dev Bridge Manager API is running",
		})
	})

	require := func(req permission.Requirement) gin.HandlerFunc {
		return middleware.RequirePermission(req, middleware.Deny())
	}
	hide := func(req permission.Requirement) gin.HandlerFunc {
		return middleware.RequirePermission(req, guard.Hide())
	}

	api := r.Group("/api/v1")
	api.Use(middleware.Authenticate(d.Principals, d.Tokens))
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.PATCH("/profile", require(permission.Single(permission.ProfileUpdate)), authHandler.UpdateProfile)
			auth.POST("/password", middleware.RequireAuth(), authHandler.ChangePassword)
		}

		// Team members
		users := api.Group("/users")
		users.Use(middleware.RequireAuth())
		{
			users.GET("", require(permission.CanListUsers), userHandler.ListUsers)
			users.POST("", require(permission.CanCreateUsers), userHandler.CreateUser)
			users.GET("/:user_id", require(permission.CanListUsers), userHandler.GetUser)
			users.PATCH("/:user_id", require(permission.CanEditUsers), userHandler.UpdateUser)
			users.DELETE("/:user_id", require(permission.CanDeleteUsers), userHandler.DeleteUser)
		}

		// Roles
		api.GET("/roles", require(permission.Single(permission.RolesList)), roleHandler.ListRoles)
		api.GET("/permissions", require(permission.Single(permission.RolesList)), roleHandler.ListPermissions)

		// Projects
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.GET("", require(permission.Single(permission.ProjectsList)), projectHandler.ListProjects)
			projects.POST("", require(permission.CanCreateProjects), projectHandler.CreateProject)

			project := projects.Group("/:id")
			project.Use(hide(permission.Single(permission.ProjectsRead)), middleware.LoadProject(d.Projects))
			{
				project.GET("", projectHandler.GetProject)
				project.PATCH("", require(permission.CanEditProjects), projectHandler.UpdateProject)
				project.DELETE("", require(permission.CanDeleteProjects), projectHandler.DeleteProject)

				project.GET("/assignments", assignmentHandler.ListAssignments)
				project.POST("/assignments", require(permission.CanEditProjects), assignmentHandler.AssignUser)
				project.PUT("/assignments/:user_id", require(permission.CanEditProjects), assignmentHandler.UpdateAssignment)
				project.DELETE("/assignments/:user_id", require(permission.CanEditProjects), assignmentHandler.RemoveAssignment)
			}

			b := project.Group("/board")
			{
				b.GET("", boardHandler.GetBoard)
				b.POST("/reload", boardHandler.ReloadBoard)
				b.GET("/stats", boardHandler.GetStats)
				b.GET("/errors", boardHandler.ListErrors)
				b.DELETE("/errors", boardHandler.ClearErrors)

				b.POST("/columns", require(permission.CanManageColumns), boardHandler.CreateColumn)
				b.PUT("/columns/order", require(permission.CanManageColumns), boardHandler.ReorderColumns)
				b.PATCH("/columns/:column_id", require(permission.CanManageColumns), boardHandler.UpdateColumn)
				b.DELETE("/columns/:column_id", require(permission.CanManageColumns), boardHandler.DeleteColumn)
				b.POST("/columns/:column_id/tasks", require(permission.CanCreateTasks), boardHandler.CreateTask)

				b.GET("/tasks", boardHandler.ListTasks)
				b.POST("/tasks/generate", require(permission.CanCreateTasks), boardHandler.GenerateTasks)
				b.GET("/tasks/:task_id", boardHandler.GetTask)
				b.PATCH("/tasks/:task_id", require(permission.CanEditTasks), boardHandler.UpdateTask)
				b.DELETE("/tasks/:task_id", require(permission.CanDeleteTasks), boardHandler.DeleteTask)
				b.POST("/tasks/:task_id/move", require(permission.CanMoveTasks), boardHandler.MoveTask)

				b.POST("/tasks/:task_id/comments", require(permission.CanComment), boardHandler.AddComment)
				b.PATCH("/comments/:comment_id", require(permission.Single(permission.CommentsUpdate)), boardHandler.UpdateComment)
				b.DELETE("/comments/:comment_id", middleware.RequireAuth(), boardHandler.DeleteComment)

				b.GET("/tasks/:task_id/time-entries", hide(permission.CanViewTimeTracking), boardHandler.ListTimeEntries)
				b.POST("/tasks/:task_id/time-entries", require(permission.Single(permission.TimeCreate)), boardHandler.AddTimeEntry)
				b.PATCH("/time-entries/:entry_id", require(permission.CanEditTimeTracking), boardHandler.UpdateTimeEntry)
				b.DELETE("/time-entries/:entry_id", require(permission.CanEditTimeTracking), boardHandler.DeleteTimeEntry)

				drag := b.Group("/drag")
				drag.Use(require(permission.CanMoveTasks))
				{
					drag.GET("", boardHandler.GetDragState)
					drag.POST("/start", boardHandler.StartDrag)
					drag.POST("/over", boardHandler.DragOver)
					drag.POST("/drop", boardHandler.Drop)
					drag.POST("/cancel", boardHandler.CancelDrag)
				}
			}
		}
	}
}
