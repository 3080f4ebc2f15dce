package repository

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RepositoryTestSuite runs the repositories against a mocked MySQL connection
type RepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	mock sqlmock.Sqlmock
}

// SetupTest runs before each test
func (suite *RepositoryTestSuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New()
	suite.Require().NoError(err)
	suite.mock = mock

	suite.db, err = gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	suite.Require().NoError(err)
}

// TearDownTest runs after each test
func (suite *RepositoryTestSuite) TearDownTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// TestProjectFindByID_NotFound tests that a missing project surfaces gorm's not found error
func (suite *RepositoryTestSuite) TestProjectFindByID_NotFound() {
	suite.mock.ExpectQuery("SELECT \\* FROM `projects`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := NewProjectRepository(suite.db).FindByID(7)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

// TestProjectDelete_RollsBack tests that a failing cascade rolls back the whole deletion
func (suite *RepositoryTestSuite) TestProjectDelete_RollsBack() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("DELETE FROM `time_entries`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	suite.mock.ExpectExec("DELETE FROM `task_comments`").
		WillReturnError(errors.New("lock wait timeout"))
	suite.mock.ExpectRollback()

	err := NewProjectRepository(suite.db).Delete(7)
	suite.ErrorContains(err, "lock wait timeout")
}

// TestUserDelete_NotFound tests that deleting no rows reports not found
func (suite *RepositoryTestSuite) TestUserDelete_NotFound() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("DELETE FROM `project_assignments`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectExec("DELETE FROM `users`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectRollback()

	err := NewUserRepository(suite.db).Delete(9)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

// TestReorderColumns_RejectsPartialOrder tests that an order missing a column is rejected
func (suite *RepositoryTestSuite) TestReorderColumns_RejectsPartialOrder() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery("SELECT `id` FROM `board_columns`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1").AddRow("c2"))
	suite.mock.ExpectRollback()

	err := NewBoardRepository(suite.db).ReorderColumns(1, []string{"c2"})
	suite.ErrorIs(err, ErrInvalidColumnOrder)
}

// TestAssignmentFind_NotFound tests that a missing assignment surfaces gorm's not found error
func (suite *RepositoryTestSuite) TestAssignmentFind_NotFound() {
	suite.mock.ExpectQuery("SELECT \\* FROM `project_assignments` WHERE project_id = \\? AND user_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "user_id", "role"}))

	_, err := NewAssignmentRepository(suite.db).Find(3, 4)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

// TestProjectDelete_RemovesAssignments tests that deleting a project drops its memberships
func (suite *RepositoryTestSuite) TestProjectDelete_RemovesAssignments() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("DELETE FROM `time_entries`").WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectExec("DELETE FROM `task_comments`").WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectExec("DELETE FROM `board_tasks`").WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectExec("DELETE FROM `board_columns`").WillReturnResult(sqlmock.NewResult(0, 4))
	suite.mock.ExpectExec("DELETE FROM `project_assignments` WHERE project_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 2))
	suite.mock.ExpectExec("UPDATE `projects` SET `deleted_at`").WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	suite.NoError(NewProjectRepository(suite.db).Delete(7))
}

// TestRepositoryTestSuite runs the test suite
func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
