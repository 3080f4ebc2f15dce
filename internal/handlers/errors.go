package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/directory"
	"github.com/devbridge/dev-bridge-manager/internal/drag"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

func failureMessage(err error) string {
	var f *remote.Failure
	if errors.As(err, &f) {
		return fmt.Sprintf("Change was not saved: %s", f.Message)
	}
	return ""
}

func respondBindError(c *gin.Context, err error) {
	if details := validationDetails(err); details != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", details)
		return
	}
	apierrors.BadRequest(c, "Invalid request body")
}

// respondBoardError maps board session errors. Rejected remote calls have
// already been rolled back locally; the cause decides the status.
func respondBoardError(c *gin.Context, err error) {
	var capacity *kanban.CapacityError
	switch {
	case errors.As(err, &capacity):
		apierrors.ColumnFull(c, capacity.Error(), gin.H{
			"column_id": capacity.ColumnID,
			"max_tasks": capacity.MaxTasks,
		})
	case errors.Is(err, services.ErrColumnFull):
		apierrors.ColumnFull(c, err.Error(), nil)
	case errors.Is(err, kanban.ErrNotFound),
		errors.Is(err, services.ErrColumnNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrTimeEntryNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, kanban.ErrColumnChange):
		apierrors.InvalidOperation(c, "Use the move endpoint to change a task's column")
	case errors.Is(err, kanban.ErrAlreadyExists):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, kanban.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidBoardInput),
		errors.Is(err, services.ErrInvalidColumnOrder):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, drag.ErrAlreadyDragging),
		errors.Is(err, drag.ErrNotDragging):
		apierrors.Conflict(c, err.Error())
	case remote.IsFailure(err):
		apierrors.BadGateway(c, failureMessage(err))
	default:
		apierrors.InternalError(c, "")
	}
}

// respondDirectoryError maps user and project directory errors.
func respondDirectoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, directory.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrRoleNotFound),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrProjectNameRequired),
		errors.Is(err, services.ErrInvalidProjectStatus),
		errors.Is(err, services.ErrInvalidProjectDates):
		apierrors.BadRequest(c, err.Error())
	case remote.IsFailure(err):
		apierrors.BadGateway(c, failureMessage(err))
	default:
		apierrors.InternalError(c, "")
	}
}

func respondAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAssignmentNotFound):
		apierrors.NotFound(c, "Assignment not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrAlreadyAssigned):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidAssignmentRole):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}

func respondAIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks),
		errors.Is(err, services.ErrAITooManyTasks):
		apierrors.InvalidOperation(c, err.Error())
	default:
		apierrors.BadGateway(c, "Task generation failed")
	}
}
