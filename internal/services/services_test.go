package services

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/database"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
)

// ServicesTestSuite runs the services against an in-memory database
type ServicesTestSuite struct {
	suite.Suite
	ctx        context.Context
	db         *gorm.DB
	redis      *miniredis.Miniredis
	cache      cache.PrincipalCache
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	auth       *AuthService
	users      *UserService
	principals *PrincipalService
	roles      *RoleService
}

// SetupTest runs before each test
func (suite *ServicesTestSuite) SetupTest() {
	var err error
	suite.ctx = context.Background()

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(suite.db.AutoMigrate(database.Models()...))

	suite.redis = miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: suite.redis.Addr()})
	suite.T().Cleanup(func() { client.Close() })
	suite.cache = cache.NewRedisPrincipalCache(client, time.Minute)

	suite.userRepo = repository.NewUserRepository(suite.db)
	suite.roleRepo = repository.NewRoleRepository(suite.db)
	suite.auth = NewAuthService(suite.userRepo, suite.roleRepo, suite.cache)
	suite.users = NewUserService(suite.userRepo, suite.roleRepo, suite.cache)
	suite.principals = NewPrincipalService(suite.userRepo, suite.cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	suite.roles = NewRoleService(suite.roleRepo, suite.cache)

	suite.Require().NoError(suite.roles.EnsureDefaults(suite.ctx))
}

// TearDownTest runs after each test
func (suite *ServicesTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ServicesTestSuite) signup(email string) uint64 {
	user, err := suite.auth.Signup(SignupInput{Name: "Dev", Email: email, Password: "supersecret"})
	suite.Require().NoError(err)
	return user.ID
}

// TestEnsureDefaults tests that the built-in roles carry their default grants and seeding is repeatable
func (suite *ServicesTestSuite) TestEnsureDefaults() {
	suite.Require().NoError(suite.roles.EnsureDefaults(suite.ctx))

	roles, err := suite.roles.ListRoles()
	suite.Require().NoError(err)
	suite.Len(roles, 4)

	permissions, err := suite.roles.ListPermissions()
	suite.Require().NoError(err)
	suite.Len(permissions, len(permission.Definitions))

	grants := permission.DefaultGrants()
	for _, r := range roles {
		suite.Len(r.Permissions, len(grants[r.Name]), r.Name)
	}
}

// TestSignupAndLogin tests the signup and login flow
func (suite *ServicesTestSuite) TestSignupAndLogin() {
	user, err := suite.auth.Signup(SignupInput{Name: " Dev ", Email: "Dev@Example.com", Password: "supersecret"})
	suite.Require().NoError(err)
	suite.Equal("Dev", user.Name)
	suite.Equal("dev@example.com", user.Email)
	suite.Equal(permission.RoleUser, user.Role.Name)

	_, err = suite.auth.Signup(SignupInput{Name: "Other", Email: "dev@example.com", Password: "supersecret"})
	suite.ErrorIs(err, ErrEmailTaken)
	_, err = suite.auth.Signup(SignupInput{Name: "Other", Email: "other@example.com", Password: "short"})
	suite.ErrorIs(err, ErrPasswordTooShort)
	_, err = suite.auth.Signup(SignupInput{Name: "Other", Email: "not-an-email", Password: "supersecret"})
	suite.ErrorIs(err, ErrInvalidEmail)

	logged, err := suite.auth.Login(LoginInput{Email: "DEV@example.com", Password: "supersecret"})
	suite.Require().NoError(err)
	suite.Equal(user.ID, logged.ID)
	suite.Equal(permission.RoleUser, logged.Role.Name)

	_, err = suite.auth.Login(LoginInput{Email: "dev@example.com", Password: "wrongpassword"})
	suite.ErrorIs(err, ErrInvalidCredentials)
	_, err = suite.auth.Login(LoginInput{Email: "nobody@example.com", Password: "supersecret"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

// TestProfileAndPassword tests profile edits and password changes
func (suite *ServicesTestSuite) TestProfileAndPassword() {
	id := suite.signup("dev@example.com")

	name, position := "Renamed", "Backend"
	user, err := suite.auth.UpdateProfile(suite.ctx, id, ProfileInput{Name: &name, Position: &position})
	suite.Require().NoError(err)
	suite.Equal("Renamed", user.Name)
	suite.Equal("Backend", user.Position)

	blank := " "
	_, err = suite.auth.UpdateProfile(suite.ctx, id, ProfileInput{Name: &blank})
	suite.ErrorIs(err, ErrNameRequired)

	suite.ErrorIs(suite.auth.ChangePassword(id, "wrongpassword", "anotherpass"), ErrWrongPassword)
	suite.ErrorIs(suite.auth.ChangePassword(id, "supersecret", "short"), ErrPasswordTooShort)
	suite.Require().NoError(suite.auth.ChangePassword(id, "supersecret", "anotherpass"))

	_, err = suite.auth.Login(LoginInput{Email: "dev@example.com", Password: "anotherpass"})
	suite.NoError(err)
	_, err = suite.auth.GetUser(999)
	suite.ErrorIs(err, ErrUserNotFound)
}

// TestFetchPrincipal tests principal resolution, caching and invalidation on role change
func (suite *ServicesTestSuite) TestFetchPrincipal() {
	id := suite.signup("dev@example.com")

	p, err := suite.principals.FetchPrincipal(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Require().NotNil(p)
	suite.Equal(permission.RoleUser, p.RoleName)
	suite.True(p.HasPermission(permission.TasksMove))
	suite.False(p.HasPermission(permission.UsersList))
	suite.True(suite.redis.Exists("principal:" + formatID(id)))

	role := permission.RoleManager
	_, err = suite.users.UpdateUser(suite.ctx, id, remote.UserPatch{RoleName: &role})
	suite.Require().NoError(err)
	suite.False(suite.redis.Exists("principal:" + formatID(id)))

	p, err = suite.principals.FetchPrincipal(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Equal(permission.RoleManager, p.RoleName)
	suite.True(p.HasPermission(permission.UsersList))

	missing, err := suite.principals.FetchPrincipal(suite.ctx, 999)
	suite.NoError(err)
	suite.Nil(missing)
}

// TestUserDirectoryRemote tests the user remote operations
func (suite *ServicesTestSuite) TestUserDirectoryRemote() {
	suite.signup("first@example.com")

	created, err := suite.users.CreateUser(suite.ctx, remote.UserInput{
		Name: "Lead", Email: "lead@example.com", Password: "supersecret", RoleName: permission.RoleAdmin,
	})
	suite.Require().NoError(err)
	suite.Equal(permission.RoleAdmin, created.RoleName)

	_, err = suite.users.CreateUser(suite.ctx, remote.UserInput{
		Name: "Ghost", Email: "ghost@example.com", Password: "supersecret", RoleName: "wizard",
	})
	suite.ErrorIs(err, ErrRoleNotFound)

	taken := "first@example.com"
	_, err = suite.users.UpdateUser(suite.ctx, created.ID, remote.UserPatch{Email: &taken})
	suite.ErrorIs(err, ErrEmailTaken)

	list, err := suite.users.ListUsers(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(list, 2)
	suite.Equal("first@example.com", list[0].Email)

	suite.Require().NoError(suite.users.DeleteUser(suite.ctx, created.ID))
	suite.ErrorIs(suite.users.DeleteUser(suite.ctx, created.ID), ErrUserNotFound)

	// The email of a deleted account can be used again.
	_, err = suite.users.CreateUser(suite.ctx, remote.UserInput{
		Name: "Lead", Email: "lead@example.com", Password: "supersecret",
	})
	suite.NoError(err)
}

// TestServicesTestSuite runs the test suite
func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
