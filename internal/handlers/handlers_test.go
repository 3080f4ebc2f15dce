package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devbridge/dev-bridge-manager/internal/board"
	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/database"
	"github.com/devbridge/dev-bridge-manager/internal/directory"
	"github.com/devbridge/dev-bridge-manager/internal/dto"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

// APITestSuite drives the full router against an in-memory database
type APITestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	router *gin.Engine
	auth   *services.AuthService
	users  *services.UserService
	boards *board.Manager
}

// SetupTest runs before each test
func (suite *APITestSuite) SetupTest() {
	var err error
	suite.ctx = context.Background()

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(suite.db.AutoMigrate(database.Models()...))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	principalCache := cache.NopPrincipalCache{}

	userRepo := repository.NewUserRepository(suite.db)
	roleRepo := repository.NewRoleRepository(suite.db)
	projectRepo := repository.NewProjectRepository(suite.db)
	boardRepo := repository.NewBoardRepository(suite.db)

	roleService := services.NewRoleService(roleRepo, principalCache)
	suite.Require().NoError(roleService.EnsureDefaults(suite.ctx))

	suite.auth = services.NewAuthService(userRepo, roleRepo, principalCache)
	suite.users = services.NewUserService(userRepo, roleRepo, principalCache)
	suite.boards = board.NewManager(services.NewBoardService(boardRepo, projectRepo), logger)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(suite.router, Deps{
		AuthService: suite.auth,
		RoleService: roleService,
		Tokens:      services.NewTokenService("test-secret", time.Hour),
		Principals:  services.NewPrincipalService(userRepo, principalCache, logger),
		Users:       directory.NewUsers(suite.users, logger),
		Projects:    directory.NewProjects(services.NewProjectService(projectRepo), logger),
		Boards:      suite.boards,
		Assignments: services.NewAssignmentService(repository.NewAssignmentRepository(suite.db), projectRepo, userRepo),
	})
}

// TearDownTest runs after each test
func (suite *APITestSuite) TearDownTest() {
	suite.boards.CloseAll()
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *APITestSuite) request(method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", constants.BearerPrefix+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *APITestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body apierrors.APIError
	suite.decode(w, &body)
	return body.Code
}

// account signs up a user with role and returns its id and an access token.
func (suite *APITestSuite) account(email, role string) (uint64, string) {
	user, err := suite.auth.Signup(services.SignupInput{Name: email, Email: email, Password: "supersecret"})
	suite.Require().NoError(err)
	if role != permission.RoleUser {
		_, err = suite.users.UpdateUser(suite.ctx, user.ID, remote.UserPatch{RoleName: &role})
		suite.Require().NoError(err)
	}

	w := suite.request(http.MethodPost, "/api/v1/auth/login", gin.H{"email": email, "password": "supersecret"}, "")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var login dto.LoginResponse
	suite.decode(w, &login)
	suite.Require().NotEmpty(login.Token)
	return user.ID, login.Token
}

func (suite *APITestSuite) createProject(token string) uint64 {
	w := suite.request(http.MethodPost, "/api/v1/projects", gin.H{"name": "Bridge"}, token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var project dto.ProjectRowDTO
	suite.decode(w, &project)
	return project.ID
}

func (suite *APITestSuite) getBoard(projectID uint64, token string) dto.BoardResponse {
	w := suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/board", projectID), nil, token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var b dto.BoardResponse
	suite.decode(w, &b)
	return b
}

func (suite *APITestSuite) createTask(projectID uint64, columnID, title, token string) kanban.Task {
	path := fmt.Sprintf("/api/v1/projects/%d/board/columns/%s/tasks", projectID, columnID)
	w := suite.request(http.MethodPost, path, gin.H{"title": title, "priority": "high"}, token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task kanban.Task
	suite.decode(w, &task)
	return task
}

// TestHealth tests the health check endpoint
func (suite *APITestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", nil, "")
	suite.Equal(http.StatusOK, w.Code)
}

// TestSignupLoginAndMe tests the session and token flows
func (suite *APITestSuite) TestSignupLoginAndMe() {
	w := suite.request(http.MethodPost, "/api/v1/auth/signup", gin.H{
		"name":     "New Dev",
		"email":    "new@example.com",
		"password": "supersecret",
	}, "")
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.UserDTO
	suite.decode(w, &created)
	suite.Equal(permission.RoleUser, created.Role)

	w = suite.request(http.MethodPost, "/api/v1/auth/signup", gin.H{
		"name":     "Again",
		"email":    "new@example.com",
		"password": "supersecret",
	}, "")
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "new@example.com", "password": "wrong-password"}, "")
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "new@example.com", "password": "supersecret"}, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			sessionCookie = c
		}
	}
	suite.Require().NotNil(sessionCookie, "expected session cookie to be set")

	w = suite.request(http.MethodGet, "/api/v1/auth/me", nil, "", sessionCookie)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var me dto.MeResponse
	suite.decode(w, &me)
	suite.Equal("new@example.com", me.User.Email)
	suite.False(me.IsAdmin)
	suite.Contains(me.Permissions, permission.TasksCreate)
	suite.True(me.Capabilities.CanCreateTasks)
	suite.False(me.Capabilities.CanManageColumns)

	w = suite.request(http.MethodGet, "/api/v1/auth/me", nil, "")
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/auth/me", nil, "not-a-token")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidToken, suite.errorCode(w))

	// A rejected token is not silently treated as anonymous on public routes.
	w = suite.request(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "new@example.com", "password": "supersecret"}, "not-a-token")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidToken, suite.errorCode(w))
}

// TestUsers_PermissionChecks tests that user management follows the caller's role
func (suite *APITestSuite) TestUsers_PermissionChecks() {
	adminID, adminToken := suite.account("admin@example.com", permission.RoleSuperAdmin)
	memberID, memberToken := suite.account("member@example.com", permission.RoleUser)

	w := suite.request(http.MethodGet, "/api/v1/users", nil, memberToken)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ErrCodeInsufficientPermissions, suite.errorCode(w))

	w = suite.request(http.MethodGet, "/api/v1/users?q=member", nil, adminToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.UserListResponse
	suite.decode(w, &list)
	suite.Require().Len(list.Users, 1)
	suite.Equal(memberID, list.Users[0].ID)
	suite.True(list.Users[0].Actions.Delete)
	suite.Equal(int64(1), list.Pagination.Total)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", memberID), gin.H{"role": permission.RoleManager}, adminToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.UserRowDTO
	suite.decode(w, &updated)
	suite.Equal(permission.RoleManager, updated.Role)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", adminID), gin.H{"role": permission.RoleUser}, adminToken)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ErrCodeForbidden, suite.errorCode(w))

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", adminID), gin.H{"role": permission.RoleAdmin}, memberToken)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ErrCodeInsufficientPermissions, suite.errorCode(w))

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", adminID), nil, adminToken)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/users", gin.H{
		"name":     "Hire",
		"email":    "hire@example.com",
		"password": "supersecret",
		"role":     permission.RoleAdmin,
	}, adminToken)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var hire dto.UserRowDTO
	suite.decode(w, &hire)
	suite.Equal(permission.RoleAdmin, hire.Role)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", hire.ID), nil, adminToken)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", hire.ID), nil, adminToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestProjects tests project CRUD and its permission checks
func (suite *APITestSuite) TestProjects() {
	_, adminToken := suite.account("admin@example.com", permission.RoleAdmin)
	_, memberToken := suite.account("member@example.com", permission.RoleUser)

	w := suite.request(http.MethodPost, "/api/v1/projects", gin.H{"name": "Nope"}, memberToken)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/projects", gin.H{"name": "Bad", "status": "paused"}, adminToken)
	suite.Equal(http.StatusBadRequest, w.Code)

	projectID := suite.createProject(adminToken)

	w = suite.request(http.MethodGet, "/api/v1/projects", nil, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.ProjectListResponse
	suite.decode(w, &list)
	suite.Require().Len(list.Projects, 1)
	suite.False(list.CanCreate)
	suite.False(list.Projects[0].Actions.Edit)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d", projectID), gin.H{"status": remote.ProjectOnHold}, adminToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.ProjectRowDTO
	suite.decode(w, &updated)
	suite.Equal(remote.ProjectOnHold, updated.Status)

	w = suite.request(http.MethodGet, "/api/v1/projects/999", nil, adminToken)
	suite.Equal(http.StatusNotFound, w.Code)
	w = suite.request(http.MethodGet, "/api/v1/projects/abc", nil, adminToken)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d", projectID), nil, adminToken)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d", projectID), nil, adminToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestProjects_Assignments tests project membership and its permission checks
func (suite *APITestSuite) TestProjects_Assignments() {
	_, managerToken := suite.account("manager@example.com", permission.RoleManager)
	memberID, memberToken := suite.account("member@example.com", permission.RoleUser)
	projectID := suite.createProject(managerToken)
	path := fmt.Sprintf("/api/v1/projects/%d/assignments", projectID)

	w := suite.request(http.MethodPost, path, gin.H{"user_id": memberID}, memberToken)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"user_id": memberID, "role": "boss"}, managerToken)
	suite.Equal(http.StatusBadRequest, w.Code)
	w = suite.request(http.MethodPost, path, gin.H{"user_id": 999}, managerToken)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"user_id": memberID}, managerToken)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var assignment dto.AssignmentDTO
	suite.decode(w, &assignment)
	suite.Equal("member", assignment.Role)
	suite.Equal("member@example.com", assignment.UserEmail)

	w = suite.request(http.MethodPost, path, gin.H{"user_id": memberID}, managerToken)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodGet, path, nil, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var list dto.AssignmentListResponse
	suite.decode(w, &list)
	suite.Equal(1, list.Count)
	suite.False(list.CanManage)

	w = suite.request(http.MethodPut, fmt.Sprintf("%s/%d", path, memberID), gin.H{"role": "viewer"}, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &assignment)
	suite.Equal("viewer", assignment.Role)

	w = suite.request(http.MethodDelete, fmt.Sprintf("%s/%d", path, memberID), nil, memberToken)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.request(http.MethodDelete, fmt.Sprintf("%s/%d", path, memberID), nil, managerToken)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodDelete, fmt.Sprintf("%s/%d", path, memberID), nil, managerToken)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, path, nil, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	list = dto.AssignmentListResponse{}
	suite.decode(w, &list)
	suite.Empty(list.Assignments)
	suite.True(list.CanManage)

	w = suite.request(http.MethodGet, "/api/v1/projects/999/assignments", nil, managerToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestBoard_TasksAndColumns tests task creation, moves and column limits
func (suite *APITestSuite) TestBoard_TasksAndColumns() {
	_, managerToken := suite.account("manager@example.com", permission.RoleManager)
	_, memberToken := suite.account("member@example.com", permission.RoleUser)
	projectID := suite.createProject(managerToken)

	b := suite.getBoard(projectID, memberToken)
	suite.Require().Len(b.Columns, 4)
	suite.Equal("To Do", b.Columns[0].Title)
	suite.True(b.Capabilities.CanCreateTasks)
	todo, doing := b.Columns[0].ID, b.Columns[1].ID

	task := suite.createTask(projectID, todo, "Write docs", memberToken)
	suite.Equal(todo, task.ColumnID)
	suite.Equal(kanban.PriorityHigh, task.Priority)

	w := suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s", projectID, task.ID), gin.H{"title": "Write better docs"}, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s/move", projectID, task.ID), gin.H{"column_id": doing, "position": 0}, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s", projectID, task.ID), nil, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail dto.TaskDetailResponse
	suite.decode(w, &detail)
	suite.Equal(doing, detail.Task.ColumnID)
	suite.Equal("Write better docs", detail.Task.Title)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/board/tasks?priority=high&column_id=%s", projectID, doing), nil, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var tasks dto.TaskListResponse
	suite.decode(w, &tasks)
	suite.Len(tasks.Tasks, 1)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/board/tasks?has_estimate=true", projectID), nil, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	tasks = dto.TaskListResponse{}
	suite.decode(w, &tasks)
	suite.Empty(tasks.Tasks)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/board/tasks?has_estimate=maybe", projectID), nil, memberToken)
	suite.Equal(http.StatusBadRequest, w.Code)

	// Members cannot manage columns.
	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d/board/columns/%s", projectID, todo), gin.H{"max_tasks": 1}, memberToken)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d/board/columns/%s", projectID, todo), gin.H{"max_tasks": 1}, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	suite.createTask(projectID, todo, "Fits", memberToken)
	w = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/board/columns/%s/tasks", projectID, todo), gin.H{"title": "Overflow"}, memberToken)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(apierrors.ErrCodeColumnFull, suite.errorCode(w))

	b = suite.getBoard(projectID, memberToken)
	suite.True(b.Columns[0].AtCapacity)
	suite.Len(b.Columns[0].Tasks, 1)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s", projectID, task.ID), nil, memberToken)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s", projectID, task.ID), nil, managerToken)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s", projectID, task.ID), nil, memberToken)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/board/tasks/generate", projectID), gin.H{"text": "fix the login page"}, memberToken)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

// TestBoard_CommentsAndTime tests comment ownership and time tracking
func (suite *APITestSuite) TestBoard_CommentsAndTime() {
	_, managerToken := suite.account("manager@example.com", permission.RoleManager)
	_, aliceToken := suite.account("alice@example.com", permission.RoleUser)
	_, bobToken := suite.account("bob@example.com", permission.RoleUser)
	projectID := suite.createProject(managerToken)
	b := suite.getBoard(projectID, aliceToken)
	task := suite.createTask(projectID, b.Columns[0].ID, "Review API", aliceToken)

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s/comments", projectID, task.ID), gin.H{"content": "On it"}, aliceToken)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var comment kanban.Comment
	suite.decode(w, &comment)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d/board/comments/%s", projectID, comment.ID), gin.H{"content": "Hijacked"}, bobToken)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d/board/comments/%s", projectID, comment.ID), gin.H{"content": "Done soon"}, aliceToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &comment)
	suite.True(comment.IsEdited)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/board/comments/%s", projectID, comment.ID), nil, bobToken)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/board/comments/%s", projectID, comment.ID), nil, managerToken)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s/time-entries", projectID, task.ID), gin.H{"hours": 2.5, "description": "Reading"}, aliceToken)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var entry kanban.TimeEntry
	suite.decode(w, &entry)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s/time-entries", projectID, task.ID), gin.H{"hours": 30}, aliceToken)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/board/tasks/%s/time-entries", projectID, task.ID), nil, bobToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	var logged struct {
		LoggedHours float64            `json:"logged_hours"`
		TimeEntries []kanban.TimeEntry `json:"time_entries"`
	}
	suite.decode(w, &logged)
	suite.InDelta(2.5, logged.LoggedHours, 0.001)
	suite.Len(logged.TimeEntries, 1)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/board/time-entries/%s", projectID, entry.ID), nil, bobToken)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/board/time-entries/%s", projectID, entry.ID), nil, aliceToken)
	suite.Equal(http.StatusOK, w.Code)
}

// TestBoard_Drag tests the drag endpoints end to end
func (suite *APITestSuite) TestBoard_Drag() {
	_, managerToken := suite.account("manager@example.com", permission.RoleManager)
	projectID := suite.createProject(managerToken)
	b := suite.getBoard(projectID, managerToken)
	todo, review := b.Columns[0].ID, b.Columns[2].ID
	task := suite.createTask(projectID, todo, "Drag me", managerToken)
	dragPath := fmt.Sprintf("/api/v1/projects/%d/board/drag", projectID)

	w := suite.request(http.MethodPost, dragPath+"/drop", gin.H{"column_id": review}, managerToken)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPost, dragPath+"/start", gin.H{"task_id": task.ID}, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w = suite.request(http.MethodPost, dragPath+"/start", gin.H{"task_id": task.ID}, managerToken)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPost, dragPath+"/over", gin.H{"column_id": review}, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	var state struct {
		State       string `json:"state"`
		Highlighted string `json:"highlighted_column_id"`
	}
	suite.decode(w, &state)
	suite.Equal("dragging", state.State)
	suite.Equal(review, state.Highlighted)

	w = suite.request(http.MethodPost, dragPath+"/drop", gin.H{"column_id": review, "position": 0}, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var outcome struct {
		State string `json:"state"`
		Move  *struct {
			TaskID     string `json:"task_id"`
			ToColumnID string `json:"to_column_id"`
		} `json:"move"`
	}
	suite.decode(w, &outcome)
	suite.Equal("dropped", outcome.State)
	suite.Require().NotNil(outcome.Move)
	suite.Equal(review, outcome.Move.ToColumnID)

	b = suite.getBoard(projectID, managerToken)
	suite.Len(b.Columns[0].Tasks, 0)
	suite.Require().Len(b.Columns[2].Tasks, 1)
	suite.Equal(task.ID, b.Columns[2].Tasks[0].ID)

	w = suite.request(http.MethodPost, dragPath+"/start", gin.H{"task_id": task.ID}, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodPost, dragPath+"/cancel", nil, managerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodGet, dragPath, nil, managerToken)
	suite.decode(w, &state)
	suite.Equal("idle", state.State)
}

// TestAPITestSuite runs the test suite
func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
